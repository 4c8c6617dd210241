package report

import (
	"context"

	"moneyglitch/internal/core"
	"moneyglitch/internal/log"
	"moneyglitch/internal/storage"
)

// Source is a store that can be listed and watched.
type Source interface {
	storage.ChangeFeed
	ListAll(ctx context.Context) ([]core.Transaction, error)
}

// WatchBreakdown recomputes the category breakdown after every store change
// until ctx is done.
func WatchBreakdown(ctx context.Context, src Source, f Filter) <-chan storage.Snapshot[[]CategoryTotal] {
	return watchRows(ctx, src, "breakdown", f, CategoryBreakdown)
}

// WatchTrend is WatchBreakdown for the trend series.
func WatchTrend(ctx context.Context, src Source, f Filter) <-chan storage.Snapshot[[]TrendPoint] {
	return watchRows(ctx, src, "trend", f, Trend)
}

// WatchBalance is WatchBreakdown for the income and expense balance.
func WatchBalance(ctx context.Context, src Source, f Filter) <-chan storage.Snapshot[Balance] {
	return watchRows(ctx, src, "balance", f, Summarize)
}

func watchRows[T any](ctx context.Context, src Source, view string, f Filter, compute func([]core.Transaction, Filter) T) <-chan storage.Snapshot[T] {
	logger := log.Default(log.ComponentReport).With("view", view)

	return storage.Watch(ctx, src, func(ctx context.Context) (T, error) {
		rows, err := src.ListAll(ctx)
		if err != nil {
			logger.WarnContext(ctx, "Failed to load transactions", log.FieldError, err)
			var zero T
			return zero, err
		}
		logger.DebugContext(ctx, "Recomputing view", log.FieldCount, len(rows))
		return compute(rows, f), nil
	})
}
