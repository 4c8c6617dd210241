// Package cli holds the start-up steps shared by cmd/moneyglitch and
// cmd/recurring-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneyglitch/internal/amqp"
	"moneyglitch/internal/config"
	"moneyglitch/internal/log"
	"moneyglitch/internal/services"
	"moneyglitch/internal/storage"
)

// SetupLogger builds a text logger at the configured level on w and makes it
// the process default.
func SetupLogger(w io.Writer, level string, component string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.NewText(w, lvl, component)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates configuration.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles the store, the optional publisher and the services built on
// them. It is created once per process and passed down explicitly.
type App struct {
	Config       *config.Config
	Logger       *log.Logger
	Store        *storage.SQLiteRepository
	Publisher    *amqp.Client
	Transactions *services.TransactionService
	Templates    *services.TemplateService
	Processor    *services.RecurringProcessor
}

// Open wires every component from cfg. An unreachable broker only disables
// events; a store that cannot be opened is fatal.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.SQLiteDBPath, err)
	}

	app := &App{Config: cfg, Logger: logger, Store: store}

	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "AMQP unavailable, events disabled",
				log.FieldError, err)
		} else {
			app.Publisher = client
			publisher = client
		}
	}

	catchUp, err := services.ParseCatchUp(cfg.RecurringCatchUp)
	if err != nil {
		store.Close()
		return nil, err
	}

	app.Transactions = services.NewTransactionService(store, publisher)
	app.Templates = services.NewTemplateService(store, publisher)
	app.Processor = services.NewRecurringProcessor(store, publisher, services.ProcessOptions{
		CatchUp:    catchUp,
		MaxCatchUp: cfg.MaxCatchUp,
	})
	return app, nil
}

// Close releases the publisher and the store.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %v", errs)
	}
	return nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
