// Package schedule manages the default decay schedule: the ordered list of
// percentages describing what fraction of a deposit remains refundable at
// each successive period. Every deposit freezes its own copy at creation
// time, so replacing the default never retroactively affects depositors.
package schedule

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/escrow/internal/domain"
)

// StepCount is the fixed number of decay periods in a schedule.
const StepCount = 8

// Schedule is an ordered sequence of dollar percentages, one per decay
// period. The first step must be positive, steps never increase, and no
// step exceeds 100.
type Schedule [StepCount]int64

// Validate checks the schedule invariants: every step stays within [0, 100],
// the first period is positive, and no adjacent pair increases. Each failure
// names the specific reason wrapped around domain.ErrInvalidSchedule. A
// negative step would make the refund arithmetic produce negative dollars,
// so the lower bound is enforced here, not left to the storage layer.
func (s Schedule) Validate() error {
	if s[0] == 0 {
		return fmt.Errorf("%w: zero first period", domain.ErrInvalidSchedule)
	}
	for i := 0; i < StepCount; i++ {
		if s[i] < 0 {
			return fmt.Errorf("%w: step %d negative", domain.ErrInvalidSchedule, i)
		}
		if s[i] > 100 {
			return fmt.Errorf("%w: step %d exceeds 100", domain.ErrInvalidSchedule, i)
		}
	}
	for i := 0; i < StepCount-1; i++ {
		if s[i] < s[i+1] {
			return fmt.Errorf("%w: step %d increasing", domain.ErrInvalidSchedule, i+1)
		}
	}
	return nil
}

// Steps returns the schedule as a slice, for JSON responses and events.
func (s Schedule) Steps() []int64 {
	out := make([]int64, StepCount)
	copy(out, s[:])
	return out
}

// FromSteps builds a Schedule from a slice, enforcing arity.
func FromSteps(steps []int64) (Schedule, error) {
	var s Schedule
	if len(steps) != StepCount {
		return s, fmt.Errorf("%w: expected %d steps, got %d", domain.ErrInvalidSchedule, StepCount, len(steps))
	}
	copy(s[:], steps)
	return s, nil
}

// Encode serializes the schedule for storage as a blob column.
func (s Schedule) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(s[:])
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule: %w", err)
	}
	return data, nil
}

// Decode deserializes a schedule previously stored with Encode.
func Decode(data []byte) (Schedule, error) {
	var steps []int64
	if err := msgpack.Unmarshal(data, &steps); err != nil {
		return Schedule{}, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return FromSteps(steps)
}

// Default is the schedule a fresh deployment starts with: full refund before
// the cohort starts, stepping down to nothing over eight periods.
func Default() Schedule {
	return Schedule{100, 75, 75, 50, 50, 25, 25, 0}
}
