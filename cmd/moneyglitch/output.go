package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"moneyglitch/internal/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// table writes aligned columns; call flush when done.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	t.row(styled...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func styledAmount(tr core.Transaction) string {
	s := core.FormatAmount(tr.Amount)
	if tr.Type == core.Income {
		return incomeStyle.Render("+" + s)
	}
	return expenseStyle.Render("-" + s)
}

func recurrence(tr core.Transaction) string {
	if !tr.IsRecurring {
		return mutedStyle.Render("-")
	}
	return fmt.Sprintf("%s, next %s", tr.RecurringInterval, tr.NextDueDate)
}

func writeTransactions(out io.Writer, rows []core.Transaction) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No transactions."))
		return nil
	}
	t := newTable(out, "ID", "DATE", "AMOUNT", "CATEGORY", "DESCRIPTION", "RECURRING")
	for _, tr := range rows {
		t.row(fmt.Sprint(tr.ID), tr.Date, styledAmount(tr), tr.Category, tr.Description, recurrence(tr))
	}
	return t.flush()
}
