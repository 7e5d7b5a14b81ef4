package schedule

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles persistence of the current default decay schedule.
// The schedule lives in a single row; deposits copy it at creation time.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new schedule repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "schedule").Logger(),
	}
}

// Get returns the current default schedule.
func (r *Repository) Get() (Schedule, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT steps FROM refund_schedule WHERE id = 1").Scan(&blob)
	if err == sql.ErrNoRows {
		return Schedule{}, fmt.Errorf("no default schedule configured")
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to get schedule: %w", err)
	}
	return Decode(blob)
}

// GetTx returns the current default schedule inside a transaction.
func (r *Repository) GetTx(tx *sql.Tx) (Schedule, error) {
	var blob []byte
	err := tx.QueryRow("SELECT steps FROM refund_schedule WHERE id = 1").Scan(&blob)
	if err == sql.ErrNoRows {
		return Schedule{}, fmt.Errorf("no default schedule configured")
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to get schedule: %w", err)
	}
	return Decode(blob)
}

// ReplaceTx replaces the stored default schedule inside a transaction.
// Callers validate before replacing; existing deposit snapshots are untouched.
func (r *Repository) ReplaceTx(tx *sql.Tx, s Schedule) error {
	blob, err := s.Encode()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO refund_schedule (id, steps, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			steps = excluded.steps,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, blob, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to replace schedule: %w", err)
	}

	r.log.Debug().Ints64("steps", s.Steps()).Msg("Replaced default schedule")
	return nil
}

// EnsureDefault seeds the default schedule if none is stored yet.
// Called once at startup so a fresh deployment is operable.
func (r *Repository) EnsureDefault(s Schedule) error {
	blob, err := s.Encode()
	if err != nil {
		return err
	}

	query := `INSERT OR IGNORE INTO refund_schedule (id, steps, updated_at) VALUES (1, ?, ?)`
	if _, err := r.db.Exec(query, blob, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to seed default schedule: %w", err)
	}
	return nil
}
