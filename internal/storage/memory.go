package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"moneyglitch/internal/core"
)

// MemoryStore keeps transactions in process memory. It enforces the same row
// constraints as the SQLite schema and is used by tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	rows     map[int64]core.Transaction
	nextID   int64
	notifier Notifier
}

func NewMemoryStore(seed ...core.Transaction) *MemoryStore {
	s := &MemoryStore{rows: make(map[int64]core.Transaction), nextID: 1}
	for _, t := range seed {
		_, _ = s.put(t)
	}
	return s
}

// Changes implements ChangeFeed.
func (s *MemoryStore) Changes() (<-chan struct{}, func()) {
	return s.notifier.Subscribe()
}

func (s *MemoryStore) Upsert(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	id, err := s.put(t)
	s.mu.Unlock()
	if err != nil {
		return 0, core.NewPersistenceError("upsert transaction", err)
	}
	s.notifier.Notify()
	return id, nil
}

// put must be called with mu held (or before the store is shared).
func (s *MemoryStore) put(t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("constraint failed: %w", err)
	}
	if t.ID == 0 {
		t.ID = s.nextID
	}
	if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	s.rows[t.ID] = t
	return t.ID, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.rows[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.rows, id)
	s.mu.Unlock()

	s.notifier.Notify()
	return nil
}

// Materialize mirrors SQLiteRepository.Materialize: all rows are written or
// none are.
func (s *MemoryStore) Materialize(_ context.Context, expectedNextDue string, template core.Transaction, occurrences []core.Transaction) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows[template.ID]
	if !ok || !current.IsRecurring || current.NextDueDate != expectedNextDue {
		return nil, ErrStaleTemplate
	}
	if err := template.Validate(); err != nil {
		return nil, core.NewPersistenceError("advance template", fmt.Errorf("constraint failed: %w", err))
	}
	for _, occ := range occurrences {
		if err := occ.Validate(); err != nil {
			return nil, core.NewPersistenceError("insert occurrence", fmt.Errorf("constraint failed: %w", err))
		}
	}

	s.rows[template.ID] = template
	ids := make([]int64, 0, len(occurrences))
	for _, occ := range occurrences {
		occ.ID = 0
		id, _ := s.put(occ)
		ids = append(ids, id)
	}

	s.notifier.Notify()
	return ids, nil
}

func (s *MemoryStore) InsertBatch(_ context.Context, rows []core.Transaction) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range rows {
		if err := t.Validate(); err != nil {
			return nil, core.NewPersistenceError("insert batch", fmt.Errorf("constraint failed: %w", err))
		}
	}
	ids := make([]int64, 0, len(rows))
	for _, t := range rows {
		t.ID = 0
		id, _ := s.put(t)
		ids = append(ids, id)
	}

	s.notifier.Notify()
	return ids, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.rows[id]
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListByType(_ context.Context, tt core.TransactionType) ([]core.Transaction, error) {
	return s.filter(func(t core.Transaction) bool { return t.Type == tt }, newestFirst), nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]core.Transaction, error) {
	return s.filter(func(core.Transaction) bool { return true }, newestFirst), nil
}

func (s *MemoryStore) ListRecurring(_ context.Context) ([]core.Transaction, error) {
	return s.filter(func(t core.Transaction) bool { return t.IsRecurring }, earliestDueFirst), nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

func (s *MemoryStore) filter(keep func(core.Transaction) bool, less func(a, b core.Transaction) bool) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, t := range s.rows {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b core.Transaction) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	return a.ID > b.ID
}

func earliestDueFirst(a, b core.Transaction) bool {
	if a.NextDueDate != b.NextDueDate {
		return a.NextDueDate < b.NextDueDate
	}
	return a.ID < b.ID
}
