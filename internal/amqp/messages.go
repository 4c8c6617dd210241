package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"moneyglitch/internal/core"
)

// EventType names what happened to a transaction row.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTemplateAdvanced   EventType = "template.advanced"
	EventTemplateCancelled  EventType = "template.cancelled"
)

// TransactionEvent carries a snapshot of the affected row so consumers never
// have to read the store.
type TransactionEvent struct {
	MessageID     string    `json:"message_id"`
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	TemplateID    int64     `json:"template_id,omitempty"`
	Amount        string    `json:"amount"`
	Date          string    `json:"date"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Kind          string    `json:"kind"`
	Interval      string    `json:"interval,omitempty"`
	NextDueDate   string    `json:"next_due_date,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func newEvent(typ EventType, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		Type:          typ,
		TransactionID: t.ID,
		Amount:        core.FormatAmount(t.Amount),
		Date:          t.Date,
		Description:   t.Description,
		Category:      t.Category,
		Kind:          string(t.Type),
		Interval:      string(t.RecurringInterval),
		NextDueDate:   t.NextDueDate,
		Timestamp:     time.Now(),
	}
}

// NewTransactionCreated describes an occurrence written by a sweep or a
// batch. templateID is 0 for rows that did not come from a template.
func NewTransactionCreated(t core.Transaction, templateID int64) *TransactionEvent {
	e := newEvent(EventTransactionCreated, t)
	e.TemplateID = templateID
	return e
}

func NewTemplateAdvanced(template core.Transaction) *TransactionEvent {
	e := newEvent(EventTemplateAdvanced, template)
	e.TemplateID = template.ID
	return e
}

func NewTemplateCancelled(template core.Transaction) *TransactionEvent {
	e := newEvent(EventTemplateCancelled, template)
	e.TemplateID = template.ID
	return e
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
