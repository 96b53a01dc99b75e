package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const currentVersion = 2

type migration struct {
	version int
	ddl     string
}

var migrations = []migration{
	{version: 1, ddl: schemaV1},
	{version: 2, ddl: schemaV2},
}

const schemaV1 = `
	CREATE TABLE IF NOT EXISTS tasks (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		completed    INTEGER NOT NULL DEFAULT 0,
		due_at       TEXT,
		completed_at TEXT,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_progress (
		day             TEXT PRIMARY KEY,
		tasks_completed INTEGER NOT NULL DEFAULT 0,
		focus_minutes   INTEGER NOT NULL DEFAULT 0,
		updated_at      TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS completion_logs (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id       INTEGER NOT NULL,
		completed_at  TEXT NOT NULL,
		focus_minutes INTEGER NOT NULL DEFAULT 0,
		note          TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_completion_logs_task ON completion_logs(task_id, completed_at);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

const schemaV2 = `
	ALTER TABLE tasks ADD COLUMN started_at TEXT;
	ALTER TABLE tasks ADD COLUMN estimate_minutes INTEGER NOT NULL DEFAULT 0;

	CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(completed, due_at);
	CREATE INDEX IF NOT EXISTS idx_completion_logs_time ON completion_logs(completed_at);
`

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

func (s *Store) migrate(ctx context.Context) error {
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	if version > currentVersion {
		if !s.opts.DestructiveMigration {
			return fmt.Errorf("stored schema v%d, supported v%d: %w", version, currentVersion, errIncompatibleSchema)
		}
		if err := s.dropAll(ctx, version); err != nil {
			return err
		}
		version = 0
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		err := withTx(ctx, s.db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.ddl); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		})
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		s.log.WithField("version", m.version).Info("schema migrated")
	}
	return s.recordDestructiveReset(ctx)
}

// dropAll discards every table. Only reachable with DestructiveMigration set.
func (s *Store) dropAll(ctx context.Context, from int) error {
	s.log.WithFields(logrus.Fields{
		"event":        "destructive_migration",
		"from_version": from,
		"to_version":   currentVersion,
		"path":         s.opts.Path,
	}).Warn("incompatible schema: dropping all tables, stored data is lost")

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", t)); err != nil {
				return fmt.Errorf("drop %s: %w", t, err)
			}
		}
		_, err := tx.ExecContext(ctx, "PRAGMA user_version = 0")
		if err != nil {
			return err
		}
		s.pendingReset = &destructiveReset{at: time.Now(), from: from}
		return nil
	})
}

// destructiveReset is written to meta once the new schema exists.
type destructiveReset struct {
	at   time.Time
	from int
}

func (s *Store) recordDestructiveReset(ctx context.Context) error {
	if s.pendingReset == nil {
		return nil
	}
	r := s.pendingReset
	s.pendingReset = nil
	if err := s.setMeta(ctx, metaResetAt, formatTime(r.at)); err != nil {
		return err
	}
	return s.setMeta(ctx, metaResetFrom, strconv.Itoa(r.from))
}
