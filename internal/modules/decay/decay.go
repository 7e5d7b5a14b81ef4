// Package decay computes refund entitlements from a deposit's frozen
// schedule and the current time. All functions are pure; nothing here
// mutates the ledger.
package decay

import (
	"time"

	"github.com/aristath/escrow/internal/modules/schedule"
)

// PeriodLength is the fixed length of one decay period.
const PeriodLength = 15 * 24 * time.Hour

// PeriodsElapsed returns the number of whole decay periods between the
// cohort start and now. Before the cohort starts no periods have elapsed.
func PeriodsElapsed(cohortStart, now time.Time) int {
	if now.Before(cohortStart) {
		return 0
	}
	return int(now.Sub(cohortStart) / PeriodLength)
}

// Refundable returns the dollars the buyer is entitled to reclaim at the
// given time: the original amount scaled by the schedule step for the
// current period, floored. Once the schedule is exhausted nothing is
// refundable. The result never exceeds the original amount and never
// increases as time passes.
func Refundable(original int64, steps schedule.Schedule, cohortStart, now time.Time) int64 {
	idx := PeriodsElapsed(cohortStart, now)
	if idx >= schedule.StepCount {
		return 0
	}
	return original * steps[idx] / 100
}

// SellerWithdrawable returns the dollars the seller may withdraw from a
// deposit without touching the buyer's current entitlement. One dollar is
// reserved on top of the refundable amount so the subtraction can never
// underflow; that dollar stays with the account as dust until an explicit
// reconciliation sweep.
func SellerWithdrawable(remaining, refundable int64) int64 {
	reserved := refundable + 1
	if reserved >= remaining {
		return 0
	}
	return remaining - reserved
}
