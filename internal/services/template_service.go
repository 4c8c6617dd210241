package services

import (
	"context"
	"errors"
	"fmt"

	"moneyglitch/internal/amqp"
	"moneyglitch/internal/core"
	"moneyglitch/internal/log"
	"moneyglitch/internal/storage"
)

// MaxBatchOccurrences bounds a single "repeat N times" request.
const MaxBatchOccurrences = 1000

// TemplateStore is what the template editor writes through.
type TemplateStore interface {
	Upsert(ctx context.Context, t core.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	InsertBatch(ctx context.Context, rows []core.Transaction) ([]int64, error)
}

// NewTemplate validates the form and builds a recurring template. The row
// itself is dated on the start date and counts as the first occurrence, so
// NextDueDate is one interval later.
func NewTemplate(form TemplateForm) (core.Transaction, error) {
	t, interval, err := form.parse()
	if err != nil {
		return core.Transaction{}, err
	}

	next, err := AdvanceString(t.Date, interval)
	if err != nil {
		return core.Transaction{}, err
	}

	t.IsRecurring = true
	t.RecurringInterval = interval
	t.NextDueDate = next
	return t, nil
}

// BatchOccurrences builds count concrete rows starting on the form's date,
// each one interval after the previous. No template is involved.
func BatchOccurrences(form TemplateForm, count int) ([]core.Transaction, error) {
	var errs core.ValidationErrors
	t, interval, err := form.parse()
	if err != nil {
		var ve *core.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, err
		}
		errs = *ve
	}
	if count < 1 || count > MaxBatchOccurrences {
		errs.Add(core.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", MaxBatchOccurrences)))
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	on, err := core.ParseDate(t.Date)
	if err != nil {
		return nil, err
	}

	rows := make([]core.Transaction, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, t.Occurrence(on))
		if i == count-1 {
			break
		}
		if on, err = Advance(on, interval); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// TemplateService creates, cancels and batch-expands recurring schedules.
type TemplateService struct {
	store     TemplateStore
	publisher Publisher
	logger    *log.Logger
}

// NewTemplateService wires the editor to a store. publisher may be nil.
func NewTemplateService(store TemplateStore, publisher Publisher) *TemplateService {
	return &TemplateService{
		store:     store,
		publisher: publisher,
		logger:    log.Default(log.ComponentTemplate),
	}
}

// Create validates and persists a new template. Validation failures are
// returned before anything is written.
func (s *TemplateService) Create(ctx context.Context, form TemplateForm) (core.Transaction, error) {
	t, err := NewTemplate(form)
	if err != nil {
		return core.Transaction{}, err
	}

	id, err := s.store.Upsert(ctx, t)
	if err != nil {
		return core.Transaction{}, asPersistenceError("create template", err)
	}
	t.ID = id

	s.logger.InfoContext(ctx, "Recurring template created",
		log.NewFields().
			WithTemplate(t.ID, string(t.RecurringInterval), t.NextDueDate).
			WithTransaction(t.Date, core.FormatAmount(t.Amount), t.Category, string(t.Type)).
			ToSlice()...)
	return t, nil
}

// Cancel clears the recurrence fields of template id. The row, its id and
// every occurrence already written are kept.
func (s *TemplateService) Cancel(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load template %d: %w", id, err)
	}
	if !t.IsRecurring {
		return core.Transaction{}, core.NewValidationError("id", fmt.Sprintf("%d is not a recurring template", id))
	}

	cancelled := t.CancelRecurrence()
	if _, err := s.store.Upsert(ctx, cancelled); err != nil {
		return core.Transaction{}, asPersistenceError("cancel template", err)
	}

	s.logger.InfoContext(ctx, "Recurring template cancelled",
		log.FieldTemplateID, id,
		log.FieldInterval, t.RecurringInterval)
	publish(ctx, s.logger, s.publisher, amqp.NewTemplateCancelled(cancelled))
	return cancelled, nil
}

// CreateBatch persists count concrete rows in one write.
func (s *TemplateService) CreateBatch(ctx context.Context, form TemplateForm, count int) ([]core.Transaction, error) {
	rows, err := BatchOccurrences(form, count)
	if err != nil {
		return nil, err
	}

	ids, err := s.store.InsertBatch(ctx, rows)
	if err != nil {
		return nil, asPersistenceError("create batch", err)
	}
	for i := range rows {
		rows[i].ID = ids[i]
	}

	s.logger.InfoContext(ctx, "Batch occurrences created",
		log.FieldCount, len(rows),
		log.FieldInterval, form.Interval,
		"first", rows[0].Date,
		"last", rows[len(rows)-1].Date)
	for _, r := range rows {
		publish(ctx, s.logger, s.publisher, amqp.NewTransactionCreated(r, 0))
	}
	return rows, nil
}

// asPersistenceError keeps store errors that are already typed and wraps the
// rest, so callers can always tell a failed write from bad input.
func asPersistenceError(op string, err error) error {
	if core.IsPersistenceError(err) || errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return core.NewPersistenceError(op, err)
}
