package services

import (
	"testing"

	"moneyglitch/internal/core"
)

func TestDailyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		want string
	}{
		{"mid month", core.NewDate(2024, 3, 9), "2024-03-10"},
		{"end of month", core.NewDate(2024, 4, 30), "2024-05-01"},
		{"leap day", core.NewDate(2024, 2, 28), "2024-02-29"},
		{"end of year", core.NewDate(2023, 12, 31), "2024-01-01"},
		// Europe switches to summer time on this day; dates are zone free.
		{"dst change", core.NewDate(2024, 3, 31), "2024-04-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (DailyAdvancer{}).Advance(tt.from).String(); got != tt.want {
				t.Errorf("DailyAdvancer.Advance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		want string
	}{
		{"inside month", core.NewDate(2024, 3, 1), "2024-03-08"},
		{"across month", core.NewDate(2024, 2, 26), "2024-03-04"},
		{"across year", core.NewDate(2024, 12, 28), "2025-01-04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (WeeklyAdvancer{}).Advance(tt.from).String(); got != tt.want {
				t.Errorf("WeeklyAdvancer.Advance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		want string
	}{
		{"same day exists", core.NewDate(2024, 1, 15), "2024-02-15"},
		{"jan 31 in leap year clamps", core.NewDate(2024, 1, 31), "2024-02-29"},
		{"jan 31 in common year clamps", core.NewDate(2023, 1, 31), "2023-02-28"},
		{"31st into 30-day month", core.NewDate(2024, 5, 31), "2024-06-30"},
		{"december rolls year", core.NewDate(2024, 12, 31), "2025-01-31"},
		{"short month to long keeps day", core.NewDate(2024, 2, 29), "2024-03-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (MonthlyAdvancer{}).Advance(tt.from).String(); got != tt.want {
				t.Errorf("MonthlyAdvancer.Advance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvance_StrictlyForwardAndDeterministic(t *testing.T) {
	start := core.NewDate(2023, 1, 1)
	for day := 0; day < 3*366; day++ {
		d := core.Date{Time: start.AddDate(0, 0, day)}
		for _, iv := range core.Intervals() {
			first, err := Advance(d, iv)
			if err != nil {
				t.Fatalf("Advance(%s, %s) error: %v", d, iv, err)
			}
			if !first.After(d) {
				t.Fatalf("Advance(%s, %s) = %s, not later", d, iv, first)
			}
			second, _ := Advance(d, iv)
			if !second.Equal(first) {
				t.Fatalf("Advance(%s, %s) not deterministic: %s vs %s", d, iv, first, second)
			}
		}
	}
}

func TestAdvanceString(t *testing.T) {
	got, err := AdvanceString("2024-03-01", core.Weekly)
	if err != nil || got != "2024-03-08" {
		t.Fatalf("AdvanceString() = %q, %v", got, err)
	}

	if _, err := AdvanceString("2024-02-30", core.Daily); !core.IsCalendarParseError(err) {
		t.Fatalf("expected calendar parse error, got %v", err)
	}
	if _, err := AdvanceString("2024-02-01", core.Interval("fortnightly")); err == nil {
		t.Fatalf("expected error for unknown interval")
	}
}

func TestGetAdvancer(t *testing.T) {
	tests := []struct {
		name     string
		interval core.Interval
		wantErr  bool
	}{
		{"daily", core.Daily, false},
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"unknown", core.Interval("yearly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advancer, err := GetAdvancer(tt.interval)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetAdvancer() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && advancer == nil {
				t.Error("GetAdvancer() returned nil advancer")
			}
		})
	}
}
