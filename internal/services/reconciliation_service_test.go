package services

import (
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/escrow/internal/auth"
	"github.com/aristath/escrow/internal/database"
	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/events"
	"github.com/aristath/escrow/internal/modules/deposits"
)

func newReconciliationEnv(t *testing.T, trackedDollars, custodiedUnits int64) (*ReconciliationService, *fakeTokenClient) {
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
	aggregateRepo := deposits.NewAggregateRepository(db.Conn(), log)

	if trackedDollars != 0 {
		err = database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			return aggregateRepo.AddTx(tx, trackedDollars)
		})
		require.NoError(t, err)
	}

	tokens := &fakeTokenClient{balance: custodiedUnits}
	authz := auth.NewStaticAuthorizer(domain.CapabilityWithdraw, []string{"seller"}, log)

	svc := NewReconciliationService(
		&sync.Mutex{}, aggregateRepo,
		tokens, authz, events.NewManager(log),
		"escrow", "USDM", log)

	return svc, tokens
}

func TestExcess(t *testing.T) {
	// 1000 tracked dollars, 1000.000249 custodied: excess is the dust
	svc, _ := newReconciliationEnv(t, 1000, 1000*domain.TokenScale+249)

	excess, err := svc.Excess()
	require.NoError(t, err)
	assert.Equal(t, int64(249), excess)
}

func TestExcess_ExactCustody(t *testing.T) {
	svc, _ := newReconciliationEnv(t, 1000, 1000*domain.TokenScale)

	excess, err := svc.Excess()
	require.NoError(t, err)
	assert.Equal(t, int64(0), excess)
}

func TestExcess_MissingCustodyIsFatal(t *testing.T) {
	svc, _ := newReconciliationEnv(t, 1000, 999*domain.TokenScale)

	_, err := svc.Excess()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

func TestRescue_DesignatedAssetSweepsExcessOnly(t *testing.T) {
	svc, tokens := newReconciliationEnv(t, 1000, 1000*domain.TokenScale+5000)

	// The requested amount is ignored for the designated asset
	units, err := svc.Rescue("seller", "USDM", 1<<40)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), units)

	require.Len(t, tokens.pushes, 1)
	assert.Equal(t, "seller", tokens.pushes[0].account)
	assert.Equal(t, int64(5000), tokens.pushes[0].amount)
}

func TestRescue_ForeignAssetTransfersRequestedAmount(t *testing.T) {
	svc, tokens := newReconciliationEnv(t, 1000, 1000*domain.TokenScale)

	units, err := svc.Rescue("seller", "EURM", 777)
	require.NoError(t, err)
	assert.Equal(t, int64(777), units)

	require.Len(t, tokens.pushes, 1)
	assert.Equal(t, "EURM", tokens.pushes[0].asset)
	assert.Equal(t, "seller", tokens.pushes[0].account)
	assert.Equal(t, int64(777), tokens.pushes[0].amount)
}

func TestRescue_Unauthorized(t *testing.T) {
	svc, tokens := newReconciliationEnv(t, 0, 0)

	_, err := svc.Rescue("mallory", "USDM", 1)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Empty(t, tokens.pushes)
}

func TestRescue_DesignatedAssetConservationFailure(t *testing.T) {
	svc, tokens := newReconciliationEnv(t, 1000, 500*domain.TokenScale)

	_, err := svc.Rescue("seller", "USDM", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	assert.Empty(t, tokens.pushes)
}
