package storage

import (
	"context"
	"sync"
)

// ChangeFeed is implemented by stores that announce successful writes.
// Each subscriber gets a channel with room for one pending signal, so bursts
// of writes coalesce into a single wake-up.
type ChangeFeed interface {
	Changes() (<-chan struct{}, func())
}

// Notifier fans a change signal out to every subscriber. The zero value is
// ready to use.
type Notifier struct {
	mu   sync.Mutex
	subs map[uint64]chan struct{}
	next uint64
}

// Subscribe registers a new listener. The returned func unsubscribes and
// closes the channel; calling it more than once is safe.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[uint64]chan struct{})
	}
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
}

// Notify wakes every subscriber. Non-blocking if a signal is already pending.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot is one evaluation of a watched query.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Watch evaluates query once immediately and again after every change on
// feed, delivering each result on the returned channel. The channel closes
// when ctx is done. Calling Watch again starts a fresh sequence.
func Watch[T any](ctx context.Context, feed ChangeFeed, query func(context.Context) (T, error)) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])
	// Subscribe before the first query so a write racing with it is not lost.
	changes, unsubscribe := feed.Changes()

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			value, err := query(ctx)
			select {
			case out <- Snapshot[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}
