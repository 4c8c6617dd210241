package services

import (
	"strings"

	"moneyglitch/internal/core"
)

// TransactionForm is raw user input for a single transaction. ID is zero for
// a new row and set when editing an existing one.
type TransactionForm struct {
	ID          int64
	Amount      string
	Date        string
	Description string
	Category    string
	Type        string
}

// TemplateForm adds the recurrence unit to a transaction form.
type TemplateForm struct {
	TransactionForm
	Interval string
}

// parse validates every field and reports all problems at once.
func (f TransactionForm) parse(errs *core.ValidationErrors) core.Transaction {
	t := core.Transaction{
		ID:          f.ID,
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
	}

	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		errs.Add(err)
	}
	t.Amount = amount

	if date, err := core.ParseDate(f.Date); err != nil {
		errs.Add(core.NewValidationError("date", "must be a YYYY-MM-DD date"))
	} else {
		t.Date = date.String()
	}

	if t.Category == "" {
		errs.Add(core.NewValidationError("category", "is required"))
	}

	if tt, err := core.ParseTransactionType(f.Type); err != nil {
		errs.Add(err)
	} else {
		t.Type = tt
	}

	return t
}

// Parse turns the form into a non-recurring transaction.
func (f TransactionForm) Parse() (core.Transaction, error) {
	var errs core.ValidationErrors
	t := f.parse(&errs)
	if err := errs.ErrOrNil(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// parse returns the transaction fields and the interval.
func (f TemplateForm) parse() (core.Transaction, core.Interval, error) {
	var errs core.ValidationErrors
	t := f.TransactionForm.parse(&errs)

	interval, err := core.ParseInterval(f.Interval)
	if err != nil {
		errs.Add(err)
	}
	if err := errs.ErrOrNil(); err != nil {
		return core.Transaction{}, "", err
	}
	return t, interval, nil
}
