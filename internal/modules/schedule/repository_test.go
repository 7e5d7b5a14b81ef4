package schedule

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/escrow/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "escrow.db"),
		Profile: database.ProfileLedger,
		Name:    "escrow",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db.Conn()
}

func TestRepository_EnsureDefaultAndGet(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn, zerolog.Nop())

	require.NoError(t, repo.EnsureDefault(Default()))

	got, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, Default(), got)

	// Seeding again must not overwrite
	require.NoError(t, repo.EnsureDefault(Schedule{1, 0, 0, 0, 0, 0, 0, 0}))
	got, err = repo.Get()
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestRepository_Get_Unseeded(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn, zerolog.Nop())

	_, err := repo.Get()
	assert.Error(t, err)
}

func TestRepository_ReplaceTx(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn, zerolog.Nop())
	require.NoError(t, repo.EnsureDefault(Default()))

	replacement := Schedule{100, 50, 25, 0, 0, 0, 0, 0}
	err := database.WithTransaction(conn, func(tx *sql.Tx) error {
		return repo.ReplaceTx(tx, replacement)
	})
	require.NoError(t, err)

	got, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}

func TestRepository_GetTx_SeesOwnReplace(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn, zerolog.Nop())
	require.NoError(t, repo.EnsureDefault(Default()))

	replacement := Schedule{90, 45, 20, 0, 0, 0, 0, 0}
	err := database.WithTransaction(conn, func(tx *sql.Tx) error {
		if err := repo.ReplaceTx(tx, replacement); err != nil {
			return err
		}
		got, err := repo.GetTx(tx)
		if err != nil {
			return err
		}
		assert.Equal(t, replacement, got)
		return nil
	})
	require.NoError(t, err)
}
