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

type TransactionStore interface {
	Upsert(ctx context.Context, t core.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionService handles one-off income and expense rows.
type TransactionService struct {
	store     TransactionStore
	publisher Publisher
	logger    *log.Logger
}

func NewTransactionService(store TransactionStore, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    log.Default(log.ComponentApp),
	}
}

// Save validates the form and upserts it. A form with an ID replaces that
// row; editing a template through here is refused because it would drop its
// schedule.
func (s *TransactionService) Save(ctx context.Context, form TransactionForm) (core.Transaction, error) {
	t, err := form.Parse()
	if err != nil {
		return core.Transaction{}, err
	}

	if t.ID != 0 {
		existing, err := s.store.Get(ctx, t.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return core.Transaction{}, fmt.Errorf("load transaction %d: %w", t.ID, err)
		case existing.IsRecurring:
			return core.Transaction{}, core.NewValidationError("id", fmt.Sprintf("%d is a recurring template; cancel it first", t.ID))
		}
	}

	id, err := s.store.Upsert(ctx, t)
	if err != nil {
		return core.Transaction{}, asPersistenceError("save transaction", err)
	}
	created := t.ID == 0
	t.ID = id

	s.logger.InfoContext(ctx, "Transaction saved",
		log.NewFields().
			WithTransaction(t.Date, core.FormatAmount(t.Amount), t.Category, string(t.Type)).
			ToSlice()...)
	if created {
		publish(ctx, s.logger, s.publisher, amqp.NewTransactionCreated(t, 0))
	}
	return t, nil
}

// Delete removes a row. Occurrences of a deleted template stay.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted", "id", id, log.FieldOperation, log.OpDelete)
	return nil
}
