package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Options configures Open.
type Options struct {
	// Path of the database file. Parent directories are created.
	Path string

	// DestructiveMigration drops and recreates every table when the stored
	// schema cannot be migrated. All data is lost. Off unless explicitly set.
	DestructiveMigration bool

	// RefreshInterval, when positive, is how often the store checks for
	// commits made through other connections to the same file, such as
	// another process. Every stream is refreshed when one is seen. Ignored
	// for in-memory databases.
	RefreshInterval time.Duration

	Logger logrus.FieldLogger
}

// Store owns the database handle and hands out the DAOs bound to it.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	opts   Options
	log    logrus.FieldLogger
	closed bool

	changes      *invalidator
	pendingReset *destructiveReset

	stopWatch context.CancelFunc
	watching  sync.WaitGroup

	tasksOnce       sync.Once
	tasks           *TaskDAO
	progressOnce    sync.Once
	progress        *DailyProgressDAO
	completionsOnce sync.Once
	completions     *CompletionLogDAO
}

// Open opens (or creates) the SQLite database at opts.Path and runs
// migrations. Every failure is an *InitError wrapping ErrStorageInit.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	logger = logger.WithField("component", "store")

	if opts.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, &InitError{Path: opts.Path, Op: "create directory", Err: err}
		}
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, &InitError{Path: opts.Path, Op: "open", Err: err}
	}

	// One connection serialises writers and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, &InitError{Path: opts.Path, Op: fmt.Sprintf("exec %q", p), Err: err}
		}
	}

	s := &Store{
		db:      db,
		opts:    opts,
		log:     logger,
		changes: newInvalidator(tableTasks, tableProgress, tableCompletions),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, &InitError{Path: opts.Path, Op: "migrate", Err: err}
	}

	if opts.RefreshInterval > 0 && opts.Path != memoryPath {
		s.watchExternal(opts.RefreshInterval)
	}

	logger.WithField("path", opts.Path).Debug("store opened")
	return s, nil
}

// OpenMemory creates an in-memory store for testing.
func OpenMemory(ctx context.Context) (*Store, error) {
	return Open(ctx, Options{Path: memoryPath})
}

// Close ends every live stream and releases the database handle.
// Calling Close more than once is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.stopWatch != nil {
		s.stopWatch()
		s.watching.Wait()
	}
	s.changes.close()
	return s.db.Close()
}

// Path returns the database location the store was opened with.
func (s *Store) Path() string {
	return s.opts.Path
}

// Tasks returns the task DAO. The same instance is returned on every call.
func (s *Store) Tasks() *TaskDAO {
	s.tasksOnce.Do(func() {
		s.tasks = &TaskDAO{s: s}
	})
	return s.tasks
}

// DailyProgress returns the daily progress DAO.
func (s *Store) DailyProgress() *DailyProgressDAO {
	s.progressOnce.Do(func() {
		s.progress = &DailyProgressDAO{s: s}
	})
	return s.progress
}

// CompletionLogs returns the completion log DAO.
func (s *Store) CompletionLogs() *CompletionLogDAO {
	s.completionsOnce.Do(func() {
		s.completions = &CompletionLogDAO{s: s}
	})
	return s.completions
}

// Reset deletes every task, progress record and completion log.
func (s *Store) Reset(ctx context.Context) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range []string{tableCompletions, tableProgress, tableTasks} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.log.Info("all task data reset")
	s.changes.notify(tableTasks, tableProgress, tableCompletions)
	return nil
}

// DefaultDBPath returns ~/.config/willard/willard.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "willard", "willard.db"), nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
