// Package window manages the set of currently acceptable cohort start
// timestamps. A deposit is only accepted when its requested start date
// matches one of the published slots exactly.
package window

import "fmt"

// SlotCount is the fixed number of published start timestamps.
const SlotCount = 4

// StartWindow holds the acceptable cohort start timestamps as Unix seconds.
// No ordering or uniqueness is required; unused slots stay zero.
type StartWindow [SlotCount]int64

// Contains reports whether ts matches one of the published slots exactly.
func (w StartWindow) Contains(ts int64) bool {
	for _, slot := range w {
		if slot == ts {
			return true
		}
	}
	return false
}

// Timestamps returns the window as a slice, for JSON responses and events.
func (w StartWindow) Timestamps() []int64 {
	out := make([]int64, SlotCount)
	copy(out, w[:])
	return out
}

// FromTimestamps builds a StartWindow from a slice, enforcing arity.
// Arity is the only validation; the registry stores whatever it is given.
func FromTimestamps(ts []int64) (StartWindow, error) {
	var w StartWindow
	if len(ts) != SlotCount {
		return w, fmt.Errorf("expected %d start timestamps, got %d", SlotCount, len(ts))
	}
	copy(w[:], ts)
	return w, nil
}
