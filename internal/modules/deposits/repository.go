package deposits

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/modules/schedule"
)

// Repository handles deposit record persistence.
// An absent row is the NonExistent state; it is never represented as a
// zeroed record. Mutations run inside the caller's transaction so the
// aggregate counter moves in lock-step with every ledger change.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new deposit repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "deposits").Logger(),
	}
}

// Get returns the live record for the account, or nil if none exists.
func (r *Repository) Get(account string) (*Record, error) {
	return scanRecord(r.db.QueryRow(
		"SELECT account, original_amount, remaining_balance, cohort_start, schedule_snapshot, created_at FROM deposits WHERE account = ?",
		account,
	))
}

// GetTx returns the live record for the account inside a transaction,
// or nil if none exists. Within one transaction this sees the transaction's
// own earlier updates, which is what lets a batched withdrawal reprocess a
// duplicated account against its then-current balance.
func (r *Repository) GetTx(tx *sql.Tx, account string) (*Record, error) {
	return scanRecord(tx.QueryRow(
		"SELECT account, original_amount, remaining_balance, cohort_start, schedule_snapshot, created_at FROM deposits WHERE account = ?",
		account,
	))
}

// CreateTx inserts a new deposit record inside a transaction.
// The primary key enforces at most one live record per account.
func (r *Repository) CreateTx(tx *sql.Tx, rec *Record) error {
	blob, err := rec.Schedule.Encode()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO deposits (account, original_amount, remaining_balance, cohort_start, schedule_snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Account, rec.OriginalAmount, rec.RemainingBalance,
		rec.CohortStart.Unix(), blob, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create deposit for %s: %w", rec.Account, err)
	}

	r.log.Debug().
		Str("account", rec.Account).
		Int64("dollars", rec.OriginalAmount).
		Msg("Created deposit record")

	return nil
}

// UpdateRemainingTx sets the remaining balance for an account inside a
// transaction. The schema rejects negative balances outright.
func (r *Repository) UpdateRemainingTx(tx *sql.Tx, account string, remaining int64) error {
	result, err := tx.Exec(
		"UPDATE deposits SET remaining_balance = ? WHERE account = ?",
		remaining, account,
	)
	if err != nil {
		return fmt.Errorf("failed to update remaining balance for %s: %w", account, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no deposit record for %s", account)
	}

	return nil
}

// DeleteTx removes the record for an account inside a transaction,
// producing the terminal NonExistent state.
func (r *Repository) DeleteTx(tx *sql.Tx, account string) error {
	result, err := tx.Exec("DELETE FROM deposits WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to delete deposit for %s: %w", account, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no deposit record for %s", account)
	}

	return nil
}

// SumRemaining returns the sum of remaining balances across all live records.
// Used by the integrity check job to cross-check the aggregate counter.
func (r *Repository) SumRemaining() (int64, error) {
	var total int64
	err := r.db.QueryRow("SELECT COALESCE(SUM(remaining_balance), 0) FROM deposits").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum remaining balances: %w", err)
	}
	return total, nil
}

// Count returns the number of live deposit records.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM deposits").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count deposits: %w", err)
	}
	return count, nil
}

// scanner matches both *sql.Row and tx query rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var cohortStart, createdAt int64
	var blob []byte

	err := row.Scan(&rec.Account, &rec.OriginalAmount, &rec.RemainingBalance, &cohortStart, &blob, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // No record = NonExistent, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deposit record: %w", err)
	}

	steps, err := schedule.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode schedule snapshot: %w", err)
	}

	rec.CohortStart = time.Unix(cohortStart, 0).UTC()
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.Schedule = steps
	return &rec, nil
}
