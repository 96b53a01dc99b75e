package store

import (
	"context"

	"github.com/sadopc/willard/internal/observe"
)

const (
	tableTasks       = "tasks"
	tableProgress    = "daily_progress"
	tableCompletions = "completion_logs"
)

// invalidator keeps a change counter per table. Streams re-run their query
// every time the counter of the table they read moves.
type invalidator struct {
	tables map[string]*observe.Subject[uint64]
}

func newInvalidator(tables ...string) *invalidator {
	iv := &invalidator{tables: make(map[string]*observe.Subject[uint64], len(tables))}
	for _, t := range tables {
		iv.tables[t] = observe.NewSubject[uint64](0)
	}
	return iv
}

// notify is called after a committed write.
func (iv *invalidator) notify(tables ...string) {
	for _, t := range tables {
		iv.tables[t].Update(func(v uint64) uint64 { return v + 1 })
	}
}

func (iv *invalidator) subscribe(ctx context.Context, table string) <-chan uint64 {
	return iv.tables[table].Subscribe(ctx)
}

func (iv *invalidator) close() {
	for _, s := range iv.tables {
		s.Close()
	}
}

// observeQuery turns a one-shot query into a live stream of snapshots.
// The first snapshot is computed before returning so that a failing query
// surfaces as an error to the caller. Later query failures are logged and
// the stream waits for the next change.
func observeQuery[T any](ctx context.Context, s *Store, table string, query func(context.Context) (T, error)) (<-chan T, error) {
	ctx, cancel := context.WithCancel(ctx)
	ticks := s.changes.subscribe(ctx, table)

	// The replayed counter stands for the state the first query reads.
	if _, ok := <-ticks; !ok {
		cancel()
		return nil, errStoreClosed
	}
	first, err := query(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	out <- first

	go func() {
		defer cancel()
		defer close(out)
		for range ticks {
			snapshot, err := query(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.WithError(err).WithField("table", table).Warn("refresh observed query")
				continue
			}
			replaceLatest(out, snapshot)
		}
	}()
	return out, nil
}

// replaceLatest sends v without blocking, dropping an unread older snapshot.
func replaceLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
