package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	metaResetAt   = "destructive_reset_at"
	metaResetFrom = "destructive_reset_from_version"
)

func (s *Store) getMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if isNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// DestructiveReset describes the last time a destructive migration wiped
// the database.
type DestructiveReset struct {
	At          time.Time
	FromVersion int
}

// LastDestructiveReset returns nil when the database was never wiped.
func (s *Store) LastDestructiveReset(ctx context.Context) (*DestructiveReset, error) {
	at, ok, err := s.getMeta(ctx, metaResetAt)
	if err != nil || !ok {
		return nil, err
	}
	r := &DestructiveReset{At: parseTime(at)}
	from, ok, err := s.getMeta(ctx, metaResetFrom)
	if err != nil {
		return nil, err
	}
	if ok {
		r.FromVersion, _ = strconv.Atoi(from)
	}
	return r, nil
}

// SchemaVersion reports the schema version of the open database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return s.schemaVersion(ctx)
}
