// Package report derives chart data from stored transactions: totals per
// category for the pie view and a cumulative daily series for the trend view.
package report

import (
	"fmt"
	"strings"

	"moneyglitch/internal/core"
)

// TimeRange is a preset window relative to today.
type TimeRange string

const (
	RangeThisMonth     TimeRange = "this-month"
	RangeLastMonth     TimeRange = "last-month"
	RangeLastSixMonths TimeRange = "last-6-months"
	RangeLastYear      TimeRange = "last-year"
	RangeAll           TimeRange = "all"
)

func TimeRanges() []TimeRange {
	return []TimeRange{RangeThisMonth, RangeLastMonth, RangeLastSixMonths, RangeLastYear, RangeAll}
}

func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RangeAll, nil
	}
	for _, known := range TimeRanges() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown time range %q", s)
}

// Bounds returns the inclusive window for today. A zero end means open-ended;
// a zero start means unbounded below.
func (r TimeRange) Bounds(today core.Date) (from, to core.Date) {
	switch r {
	case RangeThisMonth:
		return today.FirstOfMonth(), core.Date{}
	case RangeLastMonth:
		prev := today.FirstOfMonth().AddMonthsClamped(-1)
		return prev, prev.LastOfMonth()
	case RangeLastSixMonths:
		return today.AddMonthsClamped(-6), core.Date{}
	case RangeLastYear:
		return today.AddMonthsClamped(-12), core.Date{}
	default:
		return core.Date{}, core.Date{}
	}
}

// Contains reports whether a stored YYYY-MM-DD date falls in the window.
// Stored dates sort lexically, so no parsing is needed.
func (r TimeRange) Contains(date string, today core.Date) bool {
	from, to := r.Bounds(today)
	if !from.IsZero() && date < from.String() {
		return false
	}
	if !to.IsZero() && date > to.String() {
		return false
	}
	return true
}
