package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"moneyglitch/internal/amqp"
	"moneyglitch/internal/core"
	"moneyglitch/internal/log"
	"moneyglitch/internal/storage"
)

// CatchUp decides how many occurrences an overdue template emits per sweep.
type CatchUp string

const (
	// CatchUpSingle emits at most one occurrence per template per sweep.
	CatchUpSingle CatchUp = "single"
	// CatchUpFull emits one occurrence for every missed period.
	CatchUpFull CatchUp = "full"

	DefaultMaxCatchUp = 366
)

func ParseCatchUp(s string) (CatchUp, error) {
	switch c := CatchUp(strings.ToLower(strings.TrimSpace(s))); c {
	case CatchUpSingle, CatchUpFull:
		return c, nil
	case "":
		return CatchUpSingle, nil
	default:
		return "", fmt.Errorf("unknown catch-up mode %q (want single or full)", s)
	}
}

type ProcessOptions struct {
	CatchUp CatchUp
	// MaxCatchUp caps occurrences per template per sweep in full mode.
	MaxCatchUp int
}

func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{CatchUp: CatchUpSingle, MaxCatchUp: DefaultMaxCatchUp}
}

func (o ProcessOptions) limit() int {
	if o.CatchUp != CatchUpFull {
		return 1
	}
	if o.MaxCatchUp < 1 {
		return DefaultMaxCatchUp
	}
	return o.MaxCatchUp
}

// Materialization is the write one due template produces: its new
// occurrences and the template with NextDueDate moved forward. Expected is
// the NextDueDate the template had when it was read.
type Materialization struct {
	Expected    string
	Template    core.Transaction
	Occurrences []core.Transaction
}

// TemplateFailure records why one template was skipped.
type TemplateFailure struct {
	TemplateID int64
	Err        error
}

func (f TemplateFailure) Error() string {
	return fmt.Sprintf("template %d: %v", f.TemplateID, f.Err)
}

func (f TemplateFailure) Unwrap() error { return f.Err }

// DueResult is the outcome of ProcessDue.
type DueResult struct {
	Checked          int
	Materializations []Materialization
	Failures         []TemplateFailure
}

// NewOccurrences flattens every occurrence, in template order.
func (r DueResult) NewOccurrences() []core.Transaction {
	var out []core.Transaction
	for _, m := range r.Materializations {
		out = append(out, m.Occurrences...)
	}
	return out
}

// UpdatedTemplates returns the advanced copy of each due template.
func (r DueResult) UpdatedTemplates() []core.Transaction {
	out := make([]core.Transaction, 0, len(r.Materializations))
	for _, m := range r.Materializations {
		out = append(out, m.Template)
	}
	return out
}

// ProcessDue decides, without touching any store, what a sweep at now
// writes. A template is due when its NextDueDate is on or before now.
// Templates that are not due are omitted; templates whose stored dates or
// interval cannot be used are reported in Failures and skipped.
func ProcessDue(now core.Date, templates []core.Transaction, opts ProcessOptions) DueResult {
	var result DueResult
	for _, t := range templates {
		if !t.IsRecurring {
			continue
		}
		result.Checked++

		m, due, err := materialize(now, t, opts.limit())
		if err != nil {
			result.Failures = append(result.Failures, TemplateFailure{TemplateID: t.ID, Err: err})
			continue
		}
		if due {
			result.Materializations = append(result.Materializations, m)
		}
	}
	return result
}

func materialize(now core.Date, t core.Transaction, limit int) (Materialization, bool, error) {
	due, err := core.ParseDate(t.NextDueDate)
	if err != nil {
		return Materialization{}, false, err
	}
	advancer, err := GetAdvancer(t.RecurringInterval)
	if err != nil {
		return Materialization{}, false, err
	}
	if due.After(now) {
		return Materialization{}, false, nil
	}

	m := Materialization{Expected: t.NextDueDate}
	for len(m.Occurrences) < limit && !due.After(now) {
		m.Occurrences = append(m.Occurrences, t.Occurrence(due))
		next := advancer.Advance(due)
		if !next.After(due) {
			return Materialization{}, false, fmt.Errorf("interval %q did not move %s forward", t.RecurringInterval, due)
		}
		due = next
	}

	m.Template = t
	m.Template.NextDueDate = due.String()
	return m, true, nil
}

// RecurringStore is the one-shot read and write contract the sweep needs.
type RecurringStore interface {
	ListRecurring(ctx context.Context) ([]core.Transaction, error)
	Materialize(ctx context.Context, expectedNextDue string, template core.Transaction, occurrences []core.Transaction) ([]int64, error)
}

// SweepReport summarises one sweep.
type SweepReport struct {
	RunID        string
	Now          core.Date
	Checked      int
	Materialized int
	Occurrences  int
	// Stale counts templates another writer advanced first.
	Stale    int
	Failed   []TemplateFailure
	Duration time.Duration
}

// RecurringProcessor turns due templates into concrete transactions.
type RecurringProcessor struct {
	store     RecurringStore
	publisher Publisher
	opts      ProcessOptions
	logger    *log.Logger
	group     singleflight.Group
}

// NewRecurringProcessor creates a processor. publisher may be nil.
func NewRecurringProcessor(store RecurringStore, publisher Publisher, opts ProcessOptions) *RecurringProcessor {
	return &RecurringProcessor{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    log.Default(log.ComponentRecurring),
	}
}

// Sweep materializes every template due on or before now. Each template is
// written atomically on its own, so a failing template never blocks the
// others. Concurrent calls for the same day share a single run, which stops
// when the ctx of the call that started it is done.
//
// When the run is interrupted the report of the templates already handled is
// returned together with the error.
func (p *RecurringProcessor) Sweep(ctx context.Context, now core.Date) (*SweepReport, error) {
	if p.store == nil {
		return nil, fmt.Errorf("processor not properly initialized")
	}

	v, err, shared := p.group.Do(now.String(), func() (any, error) {
		return p.sweep(ctx, now)
	})
	report, _ := v.(*SweepReport)
	if err != nil {
		return report, err
	}
	if shared {
		p.logger.DebugContext(ctx, "Joined in-flight sweep", log.FieldRunID, report.RunID)
	}
	return report, nil
}

func (p *RecurringProcessor) sweep(ctx context.Context, now core.Date) (*SweepReport, error) {
	start := time.Now()
	report := &SweepReport{RunID: uuid.NewString(), Now: now}
	logger := p.logger.With(log.FieldRunID, report.RunID)

	templates, err := p.store.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}

	result := ProcessDue(now, templates, p.opts)
	report.Checked = result.Checked

	logger.InfoContext(ctx, "Processing recurring templates",
		"total", result.Checked,
		"due", len(result.Materializations),
		log.FieldDate, now.String())

	for _, f := range result.Failures {
		logger.ErrorContext(ctx, "Skipping unreadable template",
			log.FieldTemplateID, f.TemplateID,
			"calendar_parse", core.IsCalendarParseError(f.Err),
			log.FieldError, f.Err)
		report.Failed = append(report.Failed, f)
	}

	for i, m := range result.Materializations {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			logger.WarnContext(ctx, "Sweep interrupted",
				"materialized", report.Materialized,
				"remaining", len(result.Materializations)-i,
				log.FieldError, err)
			return report, err
		}

		ids, err := p.store.Materialize(ctx, m.Expected, m.Template, m.Occurrences)
		if errors.Is(err, storage.ErrStaleTemplate) {
			report.Stale++
			logger.InfoContext(ctx, "Template already advanced elsewhere",
				log.FieldTemplateID, m.Template.ID,
				log.FieldNextDueDate, m.Expected)
			continue
		}
		if err != nil {
			logger.ErrorContext(ctx, "Failed to materialize template",
				log.FieldTemplateID, m.Template.ID,
				log.FieldNextDueDate, m.Expected,
				log.FieldError, err)
			report.Failed = append(report.Failed, TemplateFailure{
				TemplateID: m.Template.ID,
				Err:        asPersistenceError("materialize template", err),
			})
			continue
		}

		report.Materialized++
		report.Occurrences += len(ids)
		logger.InfoContext(ctx, "Materialized recurring template",
			log.NewFields().
				WithTemplate(m.Template.ID, string(m.Template.RecurringInterval), m.Template.NextDueDate).
				WithTransaction(m.Expected, core.FormatAmount(m.Template.Amount), m.Template.Category, string(m.Template.Type)).
				ToSlice()...)

		for i, occ := range m.Occurrences {
			occ.ID = ids[i]
			publish(ctx, logger, p.publisher, amqp.NewTransactionCreated(occ, m.Template.ID))
		}
		publish(ctx, logger, p.publisher, amqp.NewTemplateAdvanced(m.Template))
	}

	report.Duration = time.Since(start)
	logger.InfoContext(ctx, "Recurring template processing complete",
		"materialized", report.Materialized,
		"occurrences", report.Occurrences,
		"stale", report.Stale,
		"failed", len(report.Failed),
		"total_checked", report.Checked,
		log.FieldDuration, report.Duration.Milliseconds())

	return report, nil
}
