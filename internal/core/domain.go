package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"

	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// Interval is the recurrence unit of a template.
	Interval string

	TransactionType string

	// Transaction is the single persisted row. A row with IsRecurring set is
	// a template; NextDueDate and RecurringInterval are empty otherwise.
	Transaction struct {
		ID                int64 // 0 until the store assigns one
		Amount            decimal.Decimal
		Date              string // YYYY-MM-DD
		Description       string
		Category          string
		Type              TransactionType
		IsRecurring       bool
		RecurringInterval Interval
		NextDueDate       string
	}
)

// Intervals returns the recognised recurrence units.
func Intervals() []Interval {
	return []Interval{Daily, Weekly, Monthly}
}

// IntervalList renders Intervals as "daily, weekly, monthly".
func IntervalList() string {
	names := make([]string, 0, len(Intervals()))
	for _, iv := range Intervals() {
		names = append(names, string(iv))
	}
	return strings.Join(names, ", ")
}

// ParseInterval accepts any casing ("Monthly" from a form is fine).
func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if !iv.Valid() {
		return "", NewValidationError("interval", "must be one of "+IntervalList())
	}
	return iv, nil
}

func (i Interval) Valid() bool {
	switch i {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

func ParseTransactionType(s string) (TransactionType, error) {
	tt := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !tt.Valid() {
		return "", NewValidationError("type", "must be income or expense")
	}
	return tt, nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// IsTemplate reports whether the row carries a live recurring schedule.
func (t Transaction) IsTemplate() bool {
	return t.IsRecurring && t.NextDueDate != ""
}

// Occurrence returns a fresh concrete row dated on the given day, copying the
// template's amount, description, category and type.
func (t Transaction) Occurrence(on Date) Transaction {
	return Transaction{
		Amount:      t.Amount,
		Date:        on.String(),
		Description: t.Description,
		Category:    t.Category,
		Type:        t.Type,
	}
}

// CancelRecurrence clears the recurrence fields. ID and history are kept.
func (t Transaction) CancelRecurrence() Transaction {
	t.IsRecurring = false
	t.RecurringInterval = ""
	t.NextDueDate = ""
	return t
}

// Validate checks a row before it is written to the store.
func (t Transaction) Validate() error {
	var errs ValidationErrors

	if t.Amount.IsNegative() {
		errs.Add(NewValidationError("amount", "must not be negative"))
	}
	if _, err := ParseDate(t.Date); err != nil {
		errs.Add(NewValidationError("date", "must be a YYYY-MM-DD date"))
	}
	if strings.TrimSpace(t.Category) == "" {
		errs.Add(NewValidationError("category", "is required"))
	}
	if !t.Type.Valid() {
		errs.Add(NewValidationError("type", "must be income or expense"))
	}

	switch {
	case t.IsRecurring:
		if !t.RecurringInterval.Valid() {
			errs.Add(NewValidationError("interval", "must be one of "+IntervalList()))
		}
		if _, err := ParseDate(t.NextDueDate); err != nil {
			errs.Add(NewValidationError("next_due_date", "must be a YYYY-MM-DD date"))
		}
	case t.RecurringInterval != "" || t.NextDueDate != "":
		errs.Add(NewValidationError("recurrence", "interval and next due date require a recurring row"))
	}

	return errs.ErrOrNil()
}
