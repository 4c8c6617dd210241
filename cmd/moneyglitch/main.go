package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moneyglitch/internal/cli"
	"moneyglitch/internal/config"
	"moneyglitch/internal/core"
	"moneyglitch/internal/log"
)

// skipStartupSweep is set in the Annotations of commands that sweep on their
// own terms.
const skipStartupSweep = "skip-startup-sweep"

var (
	dbPath   string
	logLevel string
	noSweep  bool
	rootCmd  = &cobra.Command{
		Use:   "moneyglitch",
		Short: "Track income and expenses, with recurring transactions",
		Long: `moneyglitch keeps income and expense transactions in a local SQLite file.

Every command first sweeps recurring templates due today into concrete
transactions, as do "moneyglitch sweep" and the recurring-worker process.
Reports show totals per category and cumulative trends.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH or ./data/moneyglitch.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noSweep, "no-sweep", false, "skip the sweep of due templates at startup")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(recurringCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(eventsCmd())
}

func main() {
	cli.LoadEnvFile()

	ctx, cancel := cli.SignalContext(context.Background(), log.Default(log.ComponentCLI))
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

// loadConfig applies the global flags on top of the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.SQLiteDBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp wires the store and services for one command and catches up due
// templates so the command sees current data. Logs go to stderr so stdout
// stays clean for output.
func openApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(os.Stderr, cfg.LogLevel, log.ComponentCLI)
	app, err := cli.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}

	if !noSweep && cmd.Annotations[skipStartupSweep] == "" {
		if _, err := app.Processor.Sweep(cmd.Context(), core.Today()); err != nil {
			logger.Warn("Startup sweep failed", log.FieldError, err)
		}
	}
	return app, nil
}

func closeApp(app *cli.App) {
	if err := app.Close(); err != nil {
		app.Logger.Error("Failed to close", log.FieldError, err)
	}
}
