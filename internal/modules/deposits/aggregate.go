package deposits

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/domain"
)

// AggregateRepository maintains the single running total of dollars the
// ledger tracks as owed. Every ledger mutation adjusts it inside the same
// transaction; the schema's non-negative check turns any underflow into a
// hard failure rather than a silently wrong balance.
type AggregateRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAggregateRepository creates a new aggregate counter repository
func NewAggregateRepository(db *sql.DB, log zerolog.Logger) *AggregateRepository {
	return &AggregateRepository{
		db:  db,
		log: log.With().Str("repo", "aggregate").Logger(),
	}
}

// Get returns the tracked total in dollars.
func (r *AggregateRepository) Get() (int64, error) {
	var total int64
	err := r.db.QueryRow("SELECT tracked_dollars FROM aggregate_total WHERE id = 1").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to get aggregate total: %w", err)
	}
	return total, nil
}

// GetTx returns the tracked total inside a transaction.
func (r *AggregateRepository) GetTx(tx *sql.Tx) (int64, error) {
	var total int64
	err := tx.QueryRow("SELECT tracked_dollars FROM aggregate_total WHERE id = 1").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to get aggregate total: %w", err)
	}
	return total, nil
}

// AddTx adjusts the tracked total by delta (negative to decrement) inside a
// transaction. A result below zero violates the conservation invariant and
// aborts the operation.
func (r *AggregateRepository) AddTx(tx *sql.Tx, delta int64) error {
	_, err := tx.Exec(
		"UPDATE aggregate_total SET tracked_dollars = tracked_dollars + ? WHERE id = 1",
		delta,
	)
	if err != nil {
		// The CHECK constraint rejects a negative total. That can only
		// happen if the ledger is corrupt, so surface it as fatal.
		if strings.Contains(err.Error(), "constraint") {
			return fmt.Errorf("%w: aggregate total would go negative (delta %d)",
				domain.ErrInvariantViolation, delta)
		}
		return fmt.Errorf("failed to adjust aggregate total: %w", err)
	}

	r.log.Debug().Int64("delta", delta).Msg("Adjusted aggregate total")
	return nil
}
