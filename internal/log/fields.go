package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldTemplateID  = "template_id"
	FieldOccurrence  = "occurrence_id"
	FieldNextDueDate = "next_due_date"
	FieldInterval    = "interval"
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldType        = "type"
	FieldCount       = "count"
	FieldPath        = "path"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentRecurring = "recurring"
	ComponentTemplate  = "template"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentReport    = "report"
	ComponentCLI       = "cli"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpCancel   = "cancel"
	OpBatch    = "batch"
	OpSweep    = "sweep"
	OpAdvance  = "advance"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTemplate adds the fields that identify a recurring template.
func (f LogFields) WithTemplate(id int64, interval, nextDue string) LogFields {
	f[FieldTemplateID] = id
	f[FieldInterval] = interval
	f[FieldNextDueDate] = nextDue
	return f
}

// WithTransaction adds the fields of a concrete row.
func (f LogFields) WithTransaction(date, amount, category, kind string) LogFields {
	f[FieldDate] = date
	f[FieldAmount] = amount
	f[FieldCategory] = category
	f[FieldType] = kind
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
