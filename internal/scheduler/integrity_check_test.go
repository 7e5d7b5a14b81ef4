package scheduler

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/escrow/internal/database"
	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/modules/deposits"
	"github.com/aristath/escrow/internal/modules/schedule"
)

type stubBalance struct {
	units int64
	err   error
}

func (s *stubBalance) Pull(string, int64) error { return nil }

func (s *stubBalance) Push(string, int64) error { return nil }

func (s *stubBalance) PushAsset(string, string, int64) error { return nil }

func (s *stubBalance) BalanceOf(string) (int64, error) { return s.units, s.err }

func setupIntegrityJob(t *testing.T, remaining, tracked int64, balance *stubBalance) *IntegrityCheckJob {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "escrow.db"),
		Profile: database.ProfileLedger,
		Name:    "escrow",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	depositRepo := deposits.NewRepository(db.Conn(), log)
	aggregateRepo := deposits.NewAggregateRepository(db.Conn(), log)

	err = database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if remaining > 0 {
			rec := &deposits.Record{
				Account:          "alice",
				OriginalAmount:   remaining,
				RemainingBalance: remaining,
				CohortStart:      time.Now().UTC(),
				Schedule:         schedule.Default(),
				CreatedAt:        time.Now().UTC(),
			}
			if err := depositRepo.CreateTx(tx, rec); err != nil {
				return err
			}
		}
		return aggregateRepo.AddTx(tx, tracked)
	})
	require.NoError(t, err)

	return NewIntegrityCheckJob(depositRepo, aggregateRepo, balance, "escrow", log)
}

func TestIntegrityCheck_Healthy(t *testing.T) {
	job := setupIntegrityJob(t, 1000, 1000, &stubBalance{units: 1000 * domain.TokenScale})
	assert.NoError(t, job.Run())
}

func TestIntegrityCheck_CounterMayExceedOwed(t *testing.T) {
	// Residue from a partial buyer refund: tracked above the sum of balances
	job := setupIntegrityJob(t, 1000, 1250, &stubBalance{units: 1250 * domain.TokenScale})
	assert.NoError(t, job.Run())
}

func TestIntegrityCheck_TrackedBelowOwed(t *testing.T) {
	job := setupIntegrityJob(t, 1000, 500, &stubBalance{units: 1000 * domain.TokenScale})

	err := job.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

func TestIntegrityCheck_CustodyShortfall(t *testing.T) {
	job := setupIntegrityJob(t, 1000, 1000, &stubBalance{units: 999 * domain.TokenScale})

	err := job.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

func TestIntegrityCheck_TokenServiceUnreachable(t *testing.T) {
	// An unreachable token service is not a ledger defect; the run succeeds
	// and the custody check waits for the next cycle.
	job := setupIntegrityJob(t, 1000, 1000, &stubBalance{err: errors.New("connection refused")})
	assert.NoError(t, job.Run())
}
