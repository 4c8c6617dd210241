package services

import (
	"context"

	"moneyglitch/internal/amqp"
	"moneyglitch/internal/log"
)

// Publisher delivers transaction events. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.TransactionEvent) error
}

// publish never fails the caller: the write already succeeded locally.
func publish(ctx context.Context, logger *log.Logger, p Publisher, event *amqp.TransactionEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish transaction event",
			log.FieldType, event.Type,
			"transaction_id", event.TransactionID,
			log.FieldError, err)
	}
}
