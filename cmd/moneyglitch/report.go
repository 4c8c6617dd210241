package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"moneyglitch/internal/cli"
	"moneyglitch/internal/core"
	"moneyglitch/internal/log"
	"moneyglitch/internal/report"
	"moneyglitch/internal/storage"
)

type reportFlags struct {
	txType     string
	timeRange  string
	categories []string
	follow     bool
}

func (f reportFlags) filter() (report.Filter, error) {
	var filter report.Filter
	if f.txType != "" {
		tt, err := core.ParseTransactionType(f.txType)
		if err != nil {
			return filter, err
		}
		filter.Type = tt
	}
	r, err := report.ParseTimeRange(f.timeRange)
	if err != nil {
		return filter, err
	}
	filter.Range = r
	filter.Categories = f.categories
	return filter, nil
}

func reportCmd() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show totals per category, cumulative trends and the balance",
	}
	cmd.PersistentFlags().StringVarP(&flags.txType, "type", "t", "", "only income or expense")
	cmd.PersistentFlags().StringVarP(&flags.timeRange, "range", "r", string(report.RangeAll),
		"one of "+joinRanges())
	cmd.PersistentFlags().StringSliceVar(&flags.categories, "category", nil, "only these categories")
	cmd.PersistentFlags().BoolVarP(&flags.follow, "follow", "f", false, "keep running and reprint on every change")

	cmd.AddCommand(&cobra.Command{
		Use:   "pie",
		Short: "Totals per category with their share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags, report.WatchBreakdown, report.CategoryBreakdown, writeBreakdown)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "trend",
		Short: "Daily totals with a running sum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags, report.WatchTrend, report.Trend, writeTrend)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Income, expense and net over the range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags, report.WatchBalance, report.Summarize, writeBalance)
		},
	})
	return cmd
}

// runReport prints one view, or with --follow keeps printing a fresh one
// after every store change until interrupted.
func runReport[T any](
	cmd *cobra.Command,
	flags reportFlags,
	watch func(context.Context, report.Source, report.Filter) <-chan storage.Snapshot[T],
	compute func([]core.Transaction, report.Filter) T,
	write func(io.Writer, T) error,
) error {
	filter, err := flags.filter()
	if err != nil {
		return err
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	out := cmd.OutOrStdout()
	if !flags.follow {
		rows, err := app.Store.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		return write(out, compute(rows, filter))
	}

	return follow(cmd, app, watch(cmd.Context(), app.Store, filter), write)
}

func follow[T any](cmd *cobra.Command, app *cli.App, snaps <-chan storage.Snapshot[T], write func(io.Writer, T) error) error {
	out := cmd.OutOrStdout()
	logger := app.Logger.WithComponent(log.ComponentReport)
	logger.Debug("Following store changes", log.FieldPath, app.Config.SQLiteDBPath)
	for snap := range snaps {
		if snap.Err != nil {
			return snap.Err
		}
		fmt.Fprintln(out, mutedStyle.Render("── "+core.Today().String()+" ──"))
		if err := write(out, snap.Value); err != nil {
			return err
		}
	}
	logger.Debug("Stopped following")
	return nil
}

func writeBreakdown(out io.Writer, totals []report.CategoryTotal) error {
	if len(totals) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("Nothing in range."))
		return nil
	}
	t := newTable(out, "CATEGORY", "TOTAL", "SHARE")
	for _, ct := range totals {
		t.row(ct.Category, core.FormatAmount(ct.Total), ct.Percent.StringFixed(2)+"%")
	}
	return t.flush()
}

func writeTrend(out io.Writer, points []report.TrendPoint) error {
	if len(points) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("Nothing in range."))
		return nil
	}
	t := newTable(out, "DATE", "TOTAL", "CUMULATIVE")
	for _, p := range points {
		t.row(p.Date, core.FormatAmount(p.Total), core.FormatAmount(p.Cumulative))
	}
	return t.flush()
}

func writeBalance(out io.Writer, b report.Balance) error {
	t := newTable(out, "INCOME", "EXPENSE", "NET")
	net := core.FormatAmount(b.Net)
	if b.Net.IsNegative() {
		net = expenseStyle.Render(net)
	} else {
		net = incomeStyle.Render(net)
	}
	t.row(core.FormatAmount(b.Income), core.FormatAmount(b.Expense), net)
	return t.flush()
}

func joinRanges() string {
	names := make([]string, 0, len(report.TimeRanges()))
	for _, r := range report.TimeRanges() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}
