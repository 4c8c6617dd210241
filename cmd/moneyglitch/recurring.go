package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moneyglitch/internal/core"
	"moneyglitch/internal/services"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Manage recurring templates",
	}
	cmd.AddCommand(recurringAddCmd())
	cmd.AddCommand(recurringBatchCmd())
	cmd.AddCommand(recurringListCmd())
	cmd.AddCommand(recurringCancelCmd())
	return cmd
}

func recurringAddCmd() *cobra.Command {
	var form services.TemplateForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template; its first occurrence is the start date itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			tmpl, err := app.Templates.Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s template %d: %s %s, next due %s\n",
				tmpl.RecurringInterval, tmpl.ID, styledAmount(tmpl), tmpl.Category, tmpl.NextDueDate)
			return nil
		},
	}
	bindForm(cmd, &form.TransactionForm)
	cmd.Flags().StringVarP(&form.Interval, "interval", "i", string(core.Monthly), "one of "+core.IntervalList())
	return cmd
}

func recurringBatchCmd() *cobra.Command {
	var (
		form  services.TemplateForm
		count int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Write N occurrences up front, without a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rows, err := app.Templates.CreateBatch(cmd.Context(), form, count)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Created %d transactions", len(rows))))
			return writeTransactions(cmd.OutOrStdout(), rows)
		},
	}
	bindForm(cmd, &form.TransactionForm)
	cmd.Flags().StringVarP(&form.Interval, "interval", "i", string(core.Monthly), "one of "+core.IntervalList())
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of occurrences")
	return cmd
}

func recurringListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates, earliest due first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rows, err := app.Store.ListRecurring(cmd.Context())
			if err != nil {
				return err
			}
			return writeTransactions(cmd.OutOrStdout(), rows)
		},
	}
}

func recurringCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Stop a template; the row and past occurrences are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if _, err := app.Templates.Cancel(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled template %d\n", id)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:         "sweep",
		Short:       "Materialize every template due on or before today",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStartupSweep: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := core.Today()
			if now != "" {
				d, err := core.ParseDate(now)
				if err != nil {
					return err
				}
				day = d
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			report, err := app.Processor.Sweep(cmd.Context(), day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Swept %d templates as of %s: %d occurrences from %d templates\n",
				report.Checked, day, report.Occurrences, report.Materialized)
			for _, f := range report.Failed {
				fmt.Fprintln(out, errorStyle.Render("  failed: ")+f.Error())
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d templates could not be processed", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "sweep as of this YYYY-MM-DD instead of today")
	return cmd
}
