package store

import (
	"context"
	"fmt"
	"time"
)

// DailyProgressDAO reads and writes per-day aggregates.
type DailyProgressDAO struct {
	s *Store
}

const upsertProgress = `
	INSERT INTO daily_progress (day, tasks_completed, focus_minutes, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(day) DO UPDATE SET
		tasks_completed = excluded.tasks_completed,
		focus_minutes   = excluded.focus_minutes,
		updated_at      = excluded.updated_at`

const incrementProgress = `
	INSERT INTO daily_progress (day, tasks_completed, focus_minutes, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(day) DO UPDATE SET
		tasks_completed = tasks_completed + excluded.tasks_completed,
		focus_minutes   = focus_minutes + excluded.focus_minutes,
		updated_at      = excluded.updated_at`

// Upsert writes the record for the calendar day of day, replacing any
// existing one. p.Day is ignored. Concurrent upserts of one day resolve to
// the last writer.
func (d *DailyProgressDAO) Upsert(ctx context.Context, day time.Time, p DailyProgress) error {
	if p.TasksCompleted < 0 || p.FocusMinutes < 0 {
		return invalidf("progress counters must not be negative")
	}
	key := DayKey(day)
	_, err := d.s.db.ExecContext(ctx, upsertProgress, key, p.TasksCompleted, p.FocusMinutes, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert progress %s: %w", key, err)
	}
	d.s.changes.notify(tableProgress)
	return nil
}

// Increment adds to the counters of the day, creating the record if needed.
func (d *DailyProgressDAO) Increment(ctx context.Context, day time.Time, tasks, focusMinutes int) error {
	if tasks < 0 || focusMinutes < 0 {
		return invalidf("progress increments must not be negative")
	}
	key := DayKey(day)
	_, err := d.s.db.ExecContext(ctx, incrementProgress, key, tasks, focusMinutes, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("increment progress %s: %w", key, err)
	}
	d.s.changes.notify(tableProgress)
	return nil
}

// GetByDate returns nil without error when the day has no record.
func (d *DailyProgressDAO) GetByDate(ctx context.Context, day time.Time) (*DailyProgress, error) {
	key := DayKey(day)
	var p DailyProgress
	var updatedAt string
	err := d.s.db.QueryRowContext(ctx,
		`SELECT day, tasks_completed, focus_minutes, updated_at FROM daily_progress WHERE day = ?`, key,
	).Scan(&p.Day, &p.TasksCompleted, &p.FocusMinutes, &updatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s: %w", key, err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// ListRange returns the records between the days of start and end, both
// inclusive, in ascending day order.
func (d *DailyProgressDAO) ListRange(ctx context.Context, start, end time.Time) ([]DailyProgress, error) {
	from, to := DayKey(start), DayKey(end)
	if to < from {
		return nil, invalidf("range end %s is before start %s", to, from)
	}
	rows, err := d.s.db.QueryContext(ctx,
		`SELECT day, tasks_completed, focus_minutes, updated_at FROM daily_progress
		 WHERE day >= ? AND day <= ? ORDER BY day`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var days []DailyProgress
	for rows.Next() {
		var p DailyProgress
		var updatedAt string
		if err := rows.Scan(&p.Day, &p.TasksCompleted, &p.FocusMinutes, &updatedAt); err != nil {
			return nil, err
		}
		p.UpdatedAt = parseTime(updatedAt)
		days = append(days, p)
	}
	return days, rows.Err()
}

// ObserveRange streams ListRange, re-emitting after every progress change.
func (d *DailyProgressDAO) ObserveRange(ctx context.Context, start, end time.Time) (<-chan []DailyProgress, error) {
	if DayKey(end) < DayKey(start) {
		return nil, invalidf("range end %s is before start %s", DayKey(end), DayKey(start))
	}
	return observeQuery(ctx, d.s, tableProgress, func(ctx context.Context) ([]DailyProgress, error) {
		return d.ListRange(ctx, start, end)
	})
}
