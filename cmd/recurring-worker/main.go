package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"moneyglitch/internal/cli"
	"moneyglitch/internal/core"
	"moneyglitch/internal/log"
	"moneyglitch/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.Default(log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting recurring-worker")

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	app, err := cli.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"catch_up", cfg.RecurringCatchUp,
		"sqlite_db", cfg.SQLiteDBPath,
		"amqp", app.Publisher != nil)

	g, ctx := errgroup.WithContext(ctx)

	// Periodic sweep, starting immediately.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RecurringInterval)
		defer ticker.Stop()

		runSweep(ctx, logger, app.Processor, "startup")
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runSweep(ctx, logger, app.Processor, "ticker")
			}
		}
	})

	// Templates fall due at the start of a day, so sweep right after
	// midnight too.
	g.Go(func() error {
		for {
			timer := time.NewTimer(untilNextDay(time.Now()))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
				runSweep(ctx, logger, app.Processor, "midnight")
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Recurring-worker shutdown complete")
}

func runSweep(ctx context.Context, logger *log.Logger, p *services.RecurringProcessor, trigger string) {
	report, err := p.Sweep(ctx, core.Today())
	if err != nil {
		if ctx.Err() == nil {
			logger.ErrorContext(ctx, "Sweep failed", "trigger", trigger, log.FieldError, err)
		} else if report != nil {
			logger.Info("Sweep stopped by shutdown",
				"trigger", trigger,
				log.FieldRunID, report.RunID,
				"occurrences", report.Occurrences)
		}
		return
	}
	logger.InfoContext(ctx, "Sweep finished",
		"trigger", trigger,
		log.FieldRunID, report.RunID,
		"occurrences", report.Occurrences,
		"failed", len(report.Failed))
}

// untilNextDay returns the wait until just after the next local midnight.
func untilNextDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 1, 0, now.Location())
	return next.Sub(now)
}
