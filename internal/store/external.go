package store

import (
	"context"
	"time"
)

// watchExternal polls PRAGMA data_version, which only moves when another
// connection commits to the file. Writes made through this store already
// notify their own streams.
func (s *Store) watchExternal(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel
	s.watching.Add(1)

	go func() {
		defer s.watching.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last, err := s.dataVersion(ctx)
		if err != nil {
			s.log.WithError(err).Warn("read data version")
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			v, err := s.dataVersion(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.WithError(err).Warn("read data version")
				continue
			}
			if v == last {
				continue
			}
			last = v
			s.log.WithField("data_version", v).Debug("external change")
			s.changes.notify(tableTasks, tableProgress, tableCompletions)
		}
	}()
}

func (s *Store) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}
