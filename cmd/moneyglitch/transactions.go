package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"moneyglitch/internal/core"
	"moneyglitch/internal/services"
)

// bindForm registers the flags shared by every command that takes a
// transaction.
func bindForm(cmd *cobra.Command, f *services.TransactionForm) {
	cmd.Flags().StringVarP(&f.Amount, "amount", "a", "", "amount, e.g. 12.50 or 12,50 (required)")
	cmd.Flags().StringVarP(&f.Date, "date", "d", core.Today().String(), "date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "category (required)")
	cmd.Flags().StringVarP(&f.Type, "type", "t", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&f.Description, "description", "", "free text")
}

func addCmd() *cobra.Command {
	var form services.TransactionForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a one-off transaction, or replace one with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			saved, err := app.Transactions.Save(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved transaction %d: %s %s on %s\n",
				saved.ID, styledAmount(saved), saved.Category, saved.Date)
			return nil
		},
	}
	bindForm(cmd, &form)
	cmd.Flags().Int64Var(&form.ID, "id", 0, "replace the transaction with this id")
	return cmd
}

func listCmd() *cobra.Command {
	var txType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			var rows []core.Transaction
			if txType == "" {
				rows, err = app.Store.ListAll(cmd.Context())
			} else {
				tt, perr := core.ParseTransactionType(txType)
				if perr != nil {
					return perr
				}
				rows, err = app.Store.ListByType(cmd.Context(), tt)
			}
			if err != nil {
				return err
			}

			count, err := app.Store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Transactions (%d stored)", count)))
			return writeTransactions(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&txType, "type", "t", "", "only income or expense")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
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

			if err := app.Transactions.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, core.NewValidationError("id", fmt.Sprintf("%q is not a transaction id", s))
	}
	return id, nil
}
