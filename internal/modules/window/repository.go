package window

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles persistence of the published start window slots.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new start window repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "window").Logger(),
	}
}

// Get returns the current start window.
func (r *Repository) Get() (StartWindow, error) {
	rows, err := r.db.Query("SELECT slot, starts_at FROM start_windows ORDER BY slot")
	if err != nil {
		return StartWindow{}, fmt.Errorf("failed to query start windows: %w", err)
	}
	defer rows.Close()

	var w StartWindow
	for rows.Next() {
		var slot int
		var startsAt int64
		if err := rows.Scan(&slot, &startsAt); err != nil {
			return StartWindow{}, fmt.Errorf("failed to scan start window slot: %w", err)
		}
		if slot >= 0 && slot < SlotCount {
			w[slot] = startsAt
		}
	}

	if err := rows.Err(); err != nil {
		return StartWindow{}, fmt.Errorf("error iterating start windows: %w", err)
	}

	return w, nil
}

// ReplaceTx replaces all published slots inside a transaction.
func (r *Repository) ReplaceTx(tx *sql.Tx, w StartWindow) error {
	query := `
		INSERT INTO start_windows (slot, starts_at)
		VALUES (?, ?)
		ON CONFLICT(slot) DO UPDATE SET starts_at = excluded.starts_at
	`
	for slot, startsAt := range w {
		if _, err := tx.Exec(query, slot, startsAt); err != nil {
			return fmt.Errorf("failed to replace start window slot %d: %w", slot, err)
		}
	}

	r.log.Debug().Ints64("starts_at", w.Timestamps()).Msg("Replaced start window")
	return nil
}
