package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(context.Background())
	require.NoError(t, err, "open memory store")
	t.Cleanup(func() { s.Close() })
	return s
}

// next receives one snapshot from a stream or fails the test.
func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

// until reads snapshots until match returns true.
func until[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "stream closed unexpectedly")
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
		}
	}
}

func requireClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream was not closed")
		}
	}
}

func ptr[T any](v T) *T { return &v }

// rawDB opens a database file without going through Open.
func rawDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	return db
}

// ============================================================
// Store initialization
// ============================================================

func TestOpenMemory(t *testing.T) {
	s := newTestStore(t)

	version, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currentVersion, version)
}

func TestOpenWithPathAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "willard.db")

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	id, err := s.Tasks().Insert(ctx, Task{Title: "persist me"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopen: data survives and no migration runs again.
	s2, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "persist me", got.Title)
}

func TestOpenUnwritableLocation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Open(context.Background(), Options{Path: filepath.Join(blocker, "db", "willard.db")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageInit)

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "create directory", initErr.Op)
}

func TestOpenNewerSchemaFails(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "willard.db")
	db := rawDB(t, path)
	_, err := db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(ctx, Options{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageInit)
	assert.ErrorIs(t, err, errIncompatibleSchema)
}

func TestDestructiveMigrationRecreates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "willard.db")
	db := rawDB(t, path)
	_, err := db.Exec(`CREATE TABLE legacy (id INTEGER); INSERT INTO legacy VALUES (1); PRAGMA user_version = 99;`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(ctx, Options{Path: path, DestructiveMigration: true})
	require.NoError(t, err)
	defer s.Close()

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentVersion, version)

	var n int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'legacy'`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n, "legacy table should be dropped")

	reset, err := s.LastDestructiveReset(ctx)
	require.NoError(t, err)
	require.NotNil(t, reset)
	assert.Equal(t, 99, reset.FromVersion)
	assert.False(t, reset.At.IsZero())
}

func TestNoDestructiveResetRecordedNormally(t *testing.T) {
	s := newTestStore(t)
	reset, err := s.LastDestructiveReset(context.Background())
	require.NoError(t, err)
	assert.Nil(t, reset)
}

func TestMigrateFromV1(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "willard.db")
	db := rawDB(t, path)
	_, err := db.Exec(schemaV1 + `PRAGMA user_version = 1;`)
	require.NoError(t, err)
	now := formatTime(time.Now())
	_, err = db.Exec(`INSERT INTO tasks (title, created_at, updated_at) VALUES ('old', ?, ?)`, now, now)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer s.Close()

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "old", tasks[0].Title)
	assert.Zero(t, tasks[0].EstimateMinutes)
	assert.Nil(t, tasks[0].StartedAt)
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	// Running migrate again should be a no-op
	require.NoError(t, s.migrate(context.Background()))
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestDAOsAreCached(t *testing.T) {
	s := newTestStore(t)
	assert.Same(t, s.Tasks(), s.Tasks())
	assert.Same(t, s.DailyProgress(), s.DailyProgress())
	assert.Same(t, s.CompletionLogs(), s.CompletionLogs())
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := OpenMemory(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, "willard.db", filepath.Base(path))
}

// ============================================================
// Reset
// ============================================================

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Tasks().Insert(ctx, Task{Title: "a"})
	require.NoError(t, err)
	_, err = s.CompleteTask(ctx, id, TaskCompletionLog{FocusMinutes: 5})
	require.NoError(t, err)

	stream, err := s.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	require.Len(t, next(t, stream), 1)

	require.NoError(t, s.Reset(ctx))
	assert.Empty(t, until(t, stream, func(ts []Task) bool { return len(ts) == 0 }))

	logs, err := s.CompletionLogs().ListForTask(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, logs)
	p, err := s.DailyProgress().GetByDate(ctx, time.Now())
	require.NoError(t, err)
	assert.Nil(t, p)
}

// ============================================================
// Streams
// ============================================================

func TestStreamCancelCloses(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := s.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	next(t, stream)

	cancel()
	requireClosed(t, stream)
}

func TestStoreCloseEndsStreams(t *testing.T) {
	s, err := OpenMemory(context.Background())
	require.NoError(t, err)

	stream, err := s.CompletionLogs().ObserveForTask(context.Background(), 1)
	require.NoError(t, err)
	next(t, stream)

	require.NoError(t, s.Close())
	requireClosed(t, stream)
}

func TestObserveOnCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Tasks().ObserveAll(ctx)
	assert.Error(t, err)
}

func TestConcurrentWritersDoNotBlockStreams(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stream, err := s.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	next(t, stream)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Tasks().Insert(ctx, Task{Title: "parallel"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := until(t, stream, func(ts []Task) bool { return len(ts) == 20 })
	assert.Len(t, got, 20)
}

// ============================================================
// Changes from other connections
// ============================================================

func TestStreamsSeeWritesFromAnotherHandle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "willard.db")

	watcher, err := Open(ctx, Options{Path: path, RefreshInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer watcher.Close()

	writer, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer writer.Close()

	tasks, err := watcher.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, next(t, tasks))

	logs, err := watcher.CompletionLogs().ObserveForTask(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, next(t, logs))

	_, err = writer.Tasks().Insert(ctx, Task{Title: "from elsewhere"})
	require.NoError(t, err)
	got := until(t, tasks, func(ts []Task) bool { return len(ts) == 1 })
	assert.Equal(t, "from elsewhere", got[0].Title)

	_, err = writer.CompletionLogs().Append(ctx, TaskCompletionLog{TaskID: 1})
	require.NoError(t, err)
	assert.Len(t, until(t, logs, func(ls []TaskCompletionLog) bool { return len(ls) == 1 }), 1)
}

func TestCloseStopsExternalWatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "willard.db")

	s, err := Open(ctx, Options{Path: path, RefreshInterval: time.Millisecond})
	require.NoError(t, err)

	stream, err := s.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	next(t, stream)

	done := make(chan error, 1)
	go func() { done <- s.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	requireClosed(t, stream)
}

func TestMemoryStoreIgnoresRefreshInterval(t *testing.T) {
	s, err := Open(context.Background(), Options{Path: memoryPath, RefreshInterval: time.Millisecond})
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.stopWatch)
}
