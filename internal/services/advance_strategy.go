// Package services provides business logic and orchestration services.
//
// This file holds the due-date calculator. Each recurrence interval has its
// own strategy that moves a calendar day forward by one period.

package services

import (
	"fmt"

	"moneyglitch/internal/core"
)

// Advancer moves a date forward by exactly one period of its interval.
type Advancer interface {
	Advance(from core.Date) core.Date
}

// DailyAdvancer adds one calendar day.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(from core.Date) core.Date {
	return core.Date{Time: from.AddDate(0, 0, 1)}
}

// WeeklyAdvancer adds seven calendar days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(from core.Date) core.Date {
	return core.Date{Time: from.AddDate(0, 0, 7)}
}

// MonthlyAdvancer adds one calendar month. When the target month is too short
// for the day of month the result is its last day: Jan 31 becomes Feb 28 or 29.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(from core.Date) core.Date {
	return from.AddMonthsClamped(1)
}

var advanceStrategies = map[core.Interval]Advancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
}

// GetAdvancer returns the strategy for an interval.
func GetAdvancer(interval core.Interval) (Advancer, error) {
	advancer, ok := advanceStrategies[interval]
	if !ok {
		return nil, fmt.Errorf("unknown recurring interval: %q", interval)
	}
	return advancer, nil
}

// Advance computes the next occurrence after from. It is pure: the same
// inputs always give the same, strictly later, date.
func Advance(from core.Date, interval core.Interval) (core.Date, error) {
	advancer, err := GetAdvancer(interval)
	if err != nil {
		return core.Date{}, err
	}
	next := advancer.Advance(from)
	if !next.After(from) {
		return core.Date{}, fmt.Errorf("interval %q did not move %s forward", interval, from)
	}
	return next, nil
}

// AdvanceString parses a stored date, advances it and formats the result.
// A malformed stored date surfaces as *core.CalendarParseError.
func AdvanceString(from string, interval core.Interval) (string, error) {
	d, err := core.ParseDate(from)
	if err != nil {
		return "", err
	}
	next, err := Advance(d, interval)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}
