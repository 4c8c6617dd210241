package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyglitch/internal/core"
)

// transactionStore is what both stores offer; the suite below runs on each.
type transactionStore interface {
	ChangeFeed
	Upsert(ctx context.Context, t core.Transaction) (int64, error)
	Delete(ctx context.Context, id int64) error
	Materialize(ctx context.Context, expectedNextDue string, template core.Transaction, occurrences []core.Transaction) ([]int64, error)
	InsertBatch(ctx context.Context, rows []core.Transaction) ([]int64, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	ListByType(ctx context.Context, tt core.TransactionType) ([]core.Transaction, error)
	ListAll(ctx context.Context) ([]core.Transaction, error)
	ListRecurring(ctx context.Context) ([]core.Transaction, error)
	Count(ctx context.Context) (int64, error)
}

func newSQLite(t *testing.T) transactionStore {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newMemory(t *testing.T) transactionStore {
	return NewMemoryStore()
}

func row(date, category string, tt core.TransactionType, amount string) core.Transaction {
	return core.Transaction{
		Amount:   decimal.RequireFromString(amount),
		Date:     date,
		Category: category,
		Type:     tt,
	}
}

func recurringRow(date, next string, iv core.Interval) core.Transaction {
	t := row(date, "Rent", core.Expense, "800")
	t.Description = "flat"
	t.IsRecurring = true
	t.RecurringInterval = iv
	t.NextDueDate = next
	return t
}

func forEachStore(t *testing.T, fn func(t *testing.T, s transactionStore)) {
	stores := map[string]func(*testing.T) transactionStore{
		"sqlite": newSQLite,
		"memory": newMemory,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func TestStore_UpsertInsertsThenReplaces(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		ctx := context.Background()

		id, err := s.Upsert(ctx, row("2024-03-01", "Food", core.Expense, "12.30"))
		require.NoError(t, err)
		require.NotZero(t, id)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Food", got.Category)
		assert.True(t, decimal.RequireFromString("12.3").Equal(got.Amount))

		got.Category = "Groceries"
		again, err := s.Upsert(ctx, got)
		require.NoError(t, err)
		assert.Equal(t, id, again)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		got, err = s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Groceries", got.Category)
	})
}

func TestStore_RejectsBrokenRecurrenceFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		bad := row("2024-03-01", "Food", core.Expense, "1")
		bad.RecurringInterval = core.Weekly

		_, err := s.Upsert(context.Background(), bad)
		require.Error(t, err)
		assert.True(t, core.IsPersistenceError(err), "got %v", err)
	})
}

func TestStore_Queries(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		ctx := context.Background()
		for _, tx := range []core.Transaction{
			row("2024-01-05", "Salary", core.Income, "2000"),
			row("2024-02-10", "Food", core.Expense, "15"),
			row("2024-01-20", "Fuel", core.Expense, "60"),
			recurringRow("2024-01-01", "2024-02-01", core.Monthly),
		} {
			_, err := s.Upsert(ctx, tx)
			require.NoError(t, err)
		}

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, []string{"2024-02-10", "2024-01-20", "2024-01-05", "2024-01-01"},
			[]string{all[0].Date, all[1].Date, all[2].Date, all[3].Date})

		expenses, err := s.ListByType(ctx, core.Expense)
		require.NoError(t, err)
		assert.Len(t, expenses, 3)
		for _, e := range expenses {
			assert.Equal(t, core.Expense, e.Type)
		}

		recurring, err := s.ListRecurring(ctx)
		require.NoError(t, err)
		require.Len(t, recurring, 1)
		assert.Equal(t, core.Monthly, recurring[0].RecurringInterval)
		assert.Equal(t, "2024-02-01", recurring[0].NextDueDate)
	})
}

func TestStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		ctx := context.Background()
		id, err := s.Upsert(ctx, row("2024-03-01", "Food", core.Expense, "1"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, id))
		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
	})
}

func TestStore_MaterializeIsAtomicAndGuarded(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		ctx := context.Background()
		tmpl := recurringRow("2024-01-15", "2024-02-15", core.Monthly)
		id, err := s.Upsert(ctx, tmpl)
		require.NoError(t, err)
		tmpl.ID = id

		advanced := tmpl
		advanced.NextDueDate = "2024-03-15"
		occ := tmpl.Occurrence(core.NewDate(2024, 2, 15))

		ids, err := s.Materialize(ctx, "2024-02-15", advanced, []core.Transaction{occ})
		require.NoError(t, err)
		require.Len(t, ids, 1)

		stored, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-15", stored.NextDueDate)

		created, err := s.Get(ctx, ids[0])
		require.NoError(t, err)
		assert.False(t, created.IsRecurring)
		assert.Equal(t, "2024-02-15", created.Date)

		// A second writer holding the old due date must not double-materialize.
		_, err = s.Materialize(ctx, "2024-02-15", advanced, []core.Transaction{occ})
		assert.ErrorIs(t, err, ErrStaleTemplate)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}

func TestStore_MaterializeRollsBackOnBadOccurrence(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		ctx := context.Background()
		tmpl := recurringRow("2024-01-15", "2024-02-15", core.Monthly)
		id, err := s.Upsert(ctx, tmpl)
		require.NoError(t, err)
		tmpl.ID = id

		advanced := tmpl
		advanced.NextDueDate = "2024-03-15"
		bad := tmpl.Occurrence(core.NewDate(2024, 2, 15))
		bad.Type = "transfer"

		_, err = s.Materialize(ctx, "2024-02-15", advanced, []core.Transaction{bad})
		require.Error(t, err)
		assert.True(t, core.IsPersistenceError(err))

		stored, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "2024-02-15", stored.NextDueDate, "template must not advance")

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}

func TestStore_InsertBatchAllOrNothing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s transactionStore) {
		ctx := context.Background()

		ids, err := s.InsertBatch(ctx, []core.Transaction{
			row("2024-01-15", "Gym", core.Expense, "30"),
			row("2024-02-15", "Gym", core.Expense, "30"),
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Less(t, ids[0], ids[1])

		_, err = s.InsertBatch(ctx, []core.Transaction{
			row("2024-03-15", "Gym", core.Expense, "30"),
			row("2024-04-15", "Gym", "transfer", "30"),
		})
		require.Error(t, err)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}
