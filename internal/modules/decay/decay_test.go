package decay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/escrow/internal/modules/schedule"
)

var testStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestPeriodsElapsed(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{"before start", testStart.Add(-time.Hour), 0},
		{"at start", testStart, 0},
		{"one second in", testStart.Add(time.Second), 0},
		{"just under one period", testStart.Add(PeriodLength - time.Second), 0},
		{"exactly one period", testStart.Add(PeriodLength), 1},
		{"sixteen days", testStart.Add(16 * 24 * time.Hour), 1},
		{"two periods", testStart.Add(2 * PeriodLength), 2},
		{"far past schedule end", testStart.Add(20 * PeriodLength), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PeriodsElapsed(testStart, tt.now))
		})
	}
}

func TestRefundable_DefaultSchedule(t *testing.T) {
	steps := schedule.Default()

	tests := []struct {
		name     string
		original int64
		now      time.Time
		expected int64
	}{
		{"full refund before start", 1000, testStart.Add(-24 * time.Hour), 1000},
		{"full refund in first period", 1000, testStart.Add(24 * time.Hour), 1000},
		{"second period drops to 75 percent", 1000, testStart.Add(16 * 24 * time.Hour), 750},
		{"third period stays at 75 percent", 1000, testStart.Add(31 * 24 * time.Hour), 750},
		{"fourth period drops to half", 1000, testStart.Add(3 * PeriodLength), 500},
		{"last scheduled period refunds nothing", 1000, testStart.Add(7 * PeriodLength), 0},
		{"past schedule end refunds nothing", 1000, testStart.Add(9 * PeriodLength), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Refundable(tt.original, steps, testStart, tt.now))
		})
	}
}

func TestRefundable_FloorsFractionalDollars(t *testing.T) {
	steps := schedule.Default()

	// 999 * 75% = 749.25, floored to 749
	got := Refundable(999, steps, testStart, testStart.Add(PeriodLength))
	assert.Equal(t, int64(749), got)
}

func TestRefundable_NeverIncreases(t *testing.T) {
	steps := schedule.Default()
	prev := int64(1 << 62)

	for p := 0; p < schedule.StepCount+2; p++ {
		now := testStart.Add(time.Duration(p) * PeriodLength)
		cur := Refundable(1000, steps, testStart, now)
		assert.LessOrEqual(t, cur, prev, "refundable increased at period %d", p)
		prev = cur
	}
}

func TestSellerWithdrawable(t *testing.T) {
	tests := []struct {
		name       string
		remaining  int64
		refundable int64
		expected   int64
	}{
		{"nothing earned in full-refund period", 1000, 1000, 0},
		{"one dollar reserved above refundable", 1000, 750, 249},
		{"reserve swallows the whole margin", 1000, 999, 0},
		{"exhausted schedule leaves the dust dollar", 1000, 0, 999},
		{"drained balance yields nothing", 0, 0, 0},
		{"reserve exactly equals remaining", 751, 750, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SellerWithdrawable(tt.remaining, tt.refundable))
		})
	}
}
