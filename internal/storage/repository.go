package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"moneyglitch/internal/core"
	"moneyglitch/internal/log"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("transaction not found")

	// ErrStaleTemplate means the template's next due date changed since it
	// was read, so another sweep already advanced it.
	ErrStaleTemplate = errors.New("recurring template changed since it was read")
)

// DefaultPollInterval is how often a subscribed repository checks the file
// for commits made by other connections.
const DefaultPollInterval = time.Second

const transactionColumns = `id, amount, date, description, category, type,
	is_recurring, recurring_interval, next_due_date`

// SQLiteRepository is the transaction store backed by an embedded SQLite file.
type SQLiteRepository struct {
	db           *sql.DB
	notifier     Notifier
	pollInterval time.Duration
	logger       *log.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the main pool exists so both never hold the file.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite gains nothing from more connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:           db,
		pollInterval: DefaultPollInterval,
		logger:       log.Default(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetPollInterval changes how often subscriptions opened after the call look
// for outside commits.
func (r *SQLiteRepository) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

// Changes implements ChangeFeed. Writes through this repository signal at
// once. Commits from other connections, such as the recurring-worker or
// another CLI process, are picked up by polling PRAGMA data_version until the
// subscription is cancelled.
func (r *SQLiteRepository) Changes() (<-chan struct{}, func()) {
	ch, unsubscribe := r.notifier.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	// Read the baseline before returning so a commit racing with the
	// caller's first query still counts as a change.
	last, err := r.dataVersion(ctx)
	if err != nil {
		last = -1
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.pollDataVersion(ctx, last, r.pollInterval)
	}()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cancel()
			<-done
			unsubscribe()
		})
	}
}

func (r *SQLiteRepository) pollDataVersion(ctx context.Context, last int64, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		v, err := r.dataVersion(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Debug("Failed to read data version", log.FieldError, err)
			}
			continue
		}
		if v != last {
			last = v
			r.notifier.Notify()
		}
	}
}

// dataVersion changes whenever another connection commits to the file.
func (r *SQLiteRepository) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read data version: %w", err)
	}
	return v, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Upsert inserts t when its ID is zero and replaces the row with that ID
// otherwise. It returns the row's ID.
func (r *SQLiteRepository) Upsert(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := upsert(ctx, r.db, t)
	if err != nil {
		return 0, core.NewPersistenceError("upsert transaction", err)
	}
	r.notifier.Notify()
	return id, nil
}

func upsert(ctx context.Context, db execer, t core.Transaction) (int64, error) {
	if t.ID == 0 {
		return insert(ctx, db, t)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, date, description, category, type,
			is_recurring, recurring_interval, next_due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			date = excluded.date,
			description = excluded.description,
			category = excluded.category,
			type = excluded.type,
			is_recurring = excluded.is_recurring,
			recurring_interval = excluded.recurring_interval,
			next_due_date = excluded.next_due_date,
			updated_at = CURRENT_TIMESTAMP`,
		t.ID, t.Amount.String(), t.Date, t.Description, t.Category, string(t.Type),
		t.IsRecurring, nullString(string(t.RecurringInterval)), nullString(t.NextDueDate),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert transaction %d: %w", t.ID, err)
	}
	return t.ID, nil
}

func insert(ctx context.Context, db execer, t core.Transaction) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO transactions (amount, date, description, category, type,
			is_recurring, recurring_interval, next_due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Amount.String(), t.Date, t.Description, t.Category, string(t.Type),
		t.IsRecurring, nullString(string(t.RecurringInterval)), nullString(t.NextDueDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// Delete removes one row.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.NewPersistenceError("delete transaction", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	r.logger.DebugContext(ctx, "Transaction deleted", "id", id)
	r.notifier.Notify()
	return nil
}

// Materialize inserts the occurrences and rewrites the template in a single
// database transaction. The template row must still carry expectedNextDue;
// otherwise nothing is written and ErrStaleTemplate is returned.
func (r *SQLiteRepository) Materialize(ctx context.Context, expectedNextDue string, template core.Transaction, occurrences []core.Transaction) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, core.NewPersistenceError("begin materialize", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, date = ?, description = ?, category = ?, type = ?,
			is_recurring = ?, recurring_interval = ?, next_due_date = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_recurring = 1 AND next_due_date = ?`,
		template.Amount.String(), template.Date, template.Description, template.Category, string(template.Type),
		template.IsRecurring, nullString(string(template.RecurringInterval)), nullString(template.NextDueDate),
		template.ID, expectedNextDue,
	)
	if err != nil {
		return nil, core.NewPersistenceError("advance template", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, core.NewPersistenceError("advance template", err)
	} else if n == 0 {
		return nil, ErrStaleTemplate
	}

	ids := make([]int64, 0, len(occurrences))
	for _, occ := range occurrences {
		occ.ID = 0
		id, err := insert(ctx, tx, occ)
		if err != nil {
			return nil, core.NewPersistenceError("insert occurrence", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, core.NewPersistenceError("commit materialize", err)
	}

	r.notifier.Notify()
	return ids, nil
}

// InsertBatch inserts every row in one database transaction and returns the
// new ids in order. Row IDs are ignored.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, rows []core.Transaction) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, core.NewPersistenceError("begin batch", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(rows))
	for _, t := range rows {
		t.ID = 0
		id, err := insert(ctx, tx, t)
		if err != nil {
			return nil, core.NewPersistenceError("insert batch", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, core.NewPersistenceError("commit batch", err)
	}

	r.notifier.Notify()
	return ids, nil
}

// Get returns the row with the given id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListByType returns every row of one type, newest first.
func (r *SQLiteRepository) ListByType(ctx context.Context, tt core.TransactionType) ([]core.Transaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE type = ? ORDER BY date DESC, id DESC`, string(tt))
}

// ListAll returns every row, newest first.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
}

// ListRecurring returns the templates, earliest due first.
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.Transaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE is_recurring = 1 ORDER BY next_due_date ASC, id ASC`)
}

// Count returns the number of rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (core.Transaction, error) {
	var (
		t        core.Transaction
		amount   string
		txType   string
		interval sql.NullString
		nextDue  sql.NullString
	)
	if err := row.Scan(&t.ID, &amount, &t.Date, &t.Description, &t.Category, &txType,
		&t.IsRecurring, &interval, &nextDue); err != nil {
		return core.Transaction{}, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q of transaction %d: %w", amount, t.ID, err)
	}
	t.Amount = d
	t.Type = core.TransactionType(txType)
	t.RecurringInterval = core.Interval(interval.String)
	t.NextDueDate = nextDue.String
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
