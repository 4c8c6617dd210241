package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"moneyglitch/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Filter selects the rows a view aggregates. Zero values select everything;
// a zero Today means the current day.
type Filter struct {
	Type       core.TransactionType
	Range      TimeRange
	Categories []string
	Today      core.Date
}

func (f Filter) today() core.Date {
	if f.Today.IsZero() {
		return core.Today()
	}
	return f.Today
}

// Apply returns the matching rows, keeping their order.
func (f Filter) Apply(rows []core.Transaction) []core.Transaction {
	today := f.today()
	allowed := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		allowed[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var out []core.Transaction
	for _, t := range rows {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if !f.Range.Contains(t.Date, today) {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(t.Category)] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CategoryTotal is one slice of the pie.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	// Percent of the filtered total, rounded to two places.
	Percent decimal.Decimal
}

// CategoryBreakdown sums the filtered rows per category, largest first.
func CategoryBreakdown(rows []core.Transaction, f Filter) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	sum := decimal.Zero
	for _, t := range f.Apply(rows) {
		totals[t.Category] = totals[t.Category].Add(t.Amount)
		sum = sum.Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		ct := CategoryTotal{Category: category, Total: total, Percent: decimal.Zero}
		if sum.IsPositive() {
			ct.Percent = total.Mul(hundred).Div(sum).Round(2)
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TrendPoint is the total of one day and the running total up to it.
type TrendPoint struct {
	Date       string
	Total      decimal.Decimal
	Cumulative decimal.Decimal
}

// Trend groups the filtered rows by date in ascending order.
func Trend(rows []core.Transaction, f Filter) []TrendPoint {
	byDate := make(map[string]decimal.Decimal)
	for _, t := range f.Apply(rows) {
		byDate[t.Date] = byDate[t.Date].Add(t.Amount)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]TrendPoint, 0, len(dates))
	running := decimal.Zero
	for _, d := range dates {
		running = running.Add(byDate[d])
		out = append(out, TrendPoint{Date: d, Total: byDate[d], Cumulative: running})
	}
	return out
}

// Balance is income against expense over the filtered rows. Filter.Type is
// ignored.
type Balance struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

func Summarize(rows []core.Transaction, f Filter) Balance {
	f.Type = ""
	b := Balance{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range f.Apply(rows) {
		switch t.Type {
		case core.Income:
			b.Income = b.Income.Add(t.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	b.Net = b.Income.Sub(b.Expense)
	return b
}
