// Package deposits provides the per-account ledger of live escrow deposits
// and the running aggregate of dollars tracked as owed.
package deposits

import (
	"time"

	"github.com/aristath/escrow/internal/modules/schedule"
)

// Record is one live escrow deposit. OriginalAmount and CohortStart are
// immutable after creation; RemainingBalance only ever decreases. The
// schedule snapshot is frozen at deposit time so later registry updates
// never change the terms of an existing deposit.
type Record struct {
	Account          string
	OriginalAmount   int64 // dollars, positive
	RemainingBalance int64 // dollars, 0 <= RemainingBalance <= OriginalAmount
	CohortStart      time.Time
	Schedule         schedule.Schedule
	CreatedAt        time.Time
}
