package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyglitch/internal/amqp"
	"moneyglitch/internal/core"
	"moneyglitch/internal/storage"
)

func rentForm(amount, date, interval string) TemplateForm {
	return TemplateForm{
		TransactionForm: TransactionForm{
			Amount:      amount,
			Date:        date,
			Description: " flat ",
			Category:    "Rent",
			Type:        "Expense",
		},
		Interval: interval,
	}
}

func TestNewTemplate(t *testing.T) {
	tmpl, err := NewTemplate(rentForm("800,50", "2024-01-31", "Monthly"))
	require.NoError(t, err)

	assert.True(t, tmpl.IsRecurring)
	assert.Equal(t, core.Monthly, tmpl.RecurringInterval)
	assert.Equal(t, "2024-01-31", tmpl.Date)
	assert.Equal(t, "2024-02-29", tmpl.NextDueDate, "first sweep-created occurrence is one period later")
	assert.Equal(t, "800.50", core.FormatAmount(tmpl.Amount))
	assert.Equal(t, "flat", tmpl.Description)
	assert.Equal(t, core.Expense, tmpl.Type)
	assert.NoError(t, tmpl.Validate())
}

func TestNewTemplate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		form   TemplateForm
		fields []string
	}{
		{"negative amount", rentForm("-5", "2024-01-01", "monthly"), []string{"amount"}},
		{"not a number", rentForm("ten", "2024-01-01", "monthly"), []string{"amount"}},
		{"blank date", rentForm("5", " ", "monthly"), []string{"date"}},
		{"impossible date", rentForm("5", "2024-02-30", "monthly"), []string{"date"}},
		{"unknown interval", rentForm("5", "2024-01-01", "yearly"), []string{"interval"}},
		{"blank category", func() TemplateForm {
			f := rentForm("5", "2024-01-01", "daily")
			f.Category = "  "
			return f
		}(), []string{"category"}},
		{"everything wrong", TemplateForm{}, []string{"amount", "date", "category", "type", "interval"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplate(tt.form)
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
			for _, field := range tt.fields {
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}

func TestTemplateService_CreateRejectsNegativeAmount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewTemplateService(store, nil)

	_, err := svc.Create(ctx, rentForm("-5", "2024-01-01", "monthly"))
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing may be written on validation failure")
}

func TestTemplateService_CreateThenSweep(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewTemplateService(store, nil)

	tmpl, err := svc.Create(ctx, rentForm("10", "2024-03-01", "weekly"))
	require.NoError(t, err)
	require.NotZero(t, tmpl.ID)

	report, err := NewRecurringProcessor(store, nil, DefaultProcessOptions()).Sweep(ctx, day("2024-03-01"))
	require.NoError(t, err)
	assert.Zero(t, report.Occurrences, "the template row is the first occurrence")

	report, err = NewRecurringProcessor(store, nil, DefaultProcessOptions()).Sweep(ctx, day("2024-03-08"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Occurrences)

	stored, err := store.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", stored.NextDueDate)
}

func TestTemplateService_Cancel(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewTemplateService(store, pub)

	tmpl, err := svc.Create(ctx, rentForm("10", "2024-03-01", "daily"))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.IsRecurring)
	assert.Empty(t, cancelled.RecurringInterval)
	assert.Empty(t, cancelled.NextDueDate)

	stored, err := store.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, stored.ID)
	assert.Equal(t, tmpl.Date, stored.Date)
	assert.True(t, tmpl.Amount.Equal(stored.Amount))
	assert.Equal(t, tmpl.Category, stored.Category)
	assert.False(t, stored.IsRecurring)
	assert.Equal(t, []amqp.EventType{amqp.EventTemplateCancelled}, pub.types())

	_, err = svc.Cancel(ctx, tmpl.ID)
	assert.True(t, core.IsValidationError(err), "cancelling twice is refused")

	_, err = svc.Cancel(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBatchOccurrences(t *testing.T) {
	rows, err := BatchOccurrences(rentForm("30", "2024-01-15", "monthly"), 3)
	require.NoError(t, err)

	var dates []string
	for _, r := range rows {
		dates = append(dates, r.Date)
		assert.False(t, r.IsRecurring)
		assert.Empty(t, r.NextDueDate)
	}
	assert.Equal(t, []string{"2024-01-15", "2024-02-15", "2024-03-15"}, dates)

	weekly, err := BatchOccurrences(rentForm("30", "2024-02-26", "weekly"), 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", weekly[1].Date)

	for _, count := range []int{0, -1, MaxBatchOccurrences + 1} {
		_, err := BatchOccurrences(rentForm("30", "2024-01-15", "monthly"), count)
		assert.True(t, core.IsValidationError(err), "count %d", count)
	}
}

func TestTemplateService_CreateBatch(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewTemplateService(store, pub)

	rows, err := svc.CreateBatch(ctx, rentForm("30", "2024-01-15", "monthly"), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.NotZero(t, r.ID)
	}

	recurring, err := store.ListRecurring(ctx)
	require.NoError(t, err)
	assert.Empty(t, recurring, "batch mode creates no template")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Len(t, pub.types(), 3)
}
