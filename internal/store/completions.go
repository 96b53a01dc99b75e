package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CompletionLogDAO appends and reads completion events. Existing entries
// are never updated or deleted outside of Reset.
type CompletionLogDAO struct {
	s *Store
}

func validateLog(l TaskCompletionLog) error {
	if l.TaskID <= 0 {
		return invalidf("completion log needs a task id")
	}
	if l.FocusMinutes < 0 {
		return invalidf("focus minutes must not be negative, got %d", l.FocusMinutes)
	}
	return nil
}

// Append writes l and returns its id. A zero CompletedAt is stamped with
// the current time. The referenced task does not have to exist.
//
// Logs are read back in CompletedAt order, with the id breaking ties, so
// a backdated entry sorts ahead of rows appended before it.
func (d *CompletionLogDAO) Append(ctx context.Context, l TaskCompletionLog) (int64, error) {
	if err := validateLog(l); err != nil {
		return 0, err
	}
	if l.CompletedAt.IsZero() {
		l.CompletedAt = time.Now()
	}
	id, err := insertLog(ctx, d.s.db, l)
	if err != nil {
		return 0, err
	}
	d.s.changes.notify(tableCompletions)
	return id, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLog(ctx context.Context, db execer, l TaskCompletionLog) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO completion_logs (task_id, completed_at, focus_minutes, note) VALUES (?, ?, ?, ?)`,
		l.TaskID, formatTime(l.CompletedAt), l.FocusMinutes, l.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("append completion log: %w", err)
	}
	return res.LastInsertId()
}

// ListForTask returns the logs of one task, oldest first.
func (d *CompletionLogDAO) ListForTask(ctx context.Context, taskID int64) ([]TaskCompletionLog, error) {
	return d.List(ctx, CompletionFilter{TaskID: &taskID})
}

// ObserveForTask streams ListForTask, re-emitting after every append.
func (d *CompletionLogDAO) ObserveForTask(ctx context.Context, taskID int64) (<-chan []TaskCompletionLog, error) {
	return observeQuery(ctx, d.s, tableCompletions, func(ctx context.Context) ([]TaskCompletionLog, error) {
		return d.ListForTask(ctx, taskID)
	})
}

// List returns logs matching f ordered by completion time, then id.
// From is inclusive, To exclusive.
func (d *CompletionLogDAO) List(ctx context.Context, f CompletionFilter) ([]TaskCompletionLog, error) {
	query := `SELECT id, task_id, completed_at, focus_minutes, note FROM completion_logs WHERE 1=1`
	var args []any

	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.From != nil {
		query += ` AND completed_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND completed_at < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY completed_at, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := d.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completion logs: %w", err)
	}
	defer rows.Close()

	var logs []TaskCompletionLog
	for rows.Next() {
		var l TaskCompletionLog
		var completedAt string
		if err := rows.Scan(&l.ID, &l.TaskID, &completedAt, &l.FocusMinutes, &l.Note); err != nil {
			return nil, err
		}
		l.CompletedAt = parseTime(completedAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CompleteTask marks the task done, appends its completion log and adds it
// to the progress of the completion day, all in one transaction.
// l.TaskID is set from taskID; a zero l.CompletedAt is stamped with now.
func (s *Store) CompleteTask(ctx context.Context, taskID int64, l TaskCompletionLog) (TaskCompletionLog, error) {
	l.TaskID = taskID
	if l.CompletedAt.IsZero() {
		l.CompletedAt = time.Now()
	}
	if err := validateLog(l); err != nil {
		return TaskCompletionLog{}, err
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var completed int
		err := tx.QueryRowContext(ctx, `SELECT completed FROM tasks WHERE id = ?`, taskID).Scan(&completed)
		if isNoRows(err) {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get task %d: %w", taskID, err)
		}
		if completed == 1 {
			return fmt.Errorf("task %d: %w", taskID, ErrAlreadyCompleted)
		}

		now := formatTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET completed = 1, completed_at = ?, updated_at = ? WHERE id = ?`,
			formatTime(l.CompletedAt), now, taskID,
		); err != nil {
			return fmt.Errorf("complete task %d: %w", taskID, err)
		}

		id, err := insertLog(ctx, tx, l)
		if err != nil {
			return err
		}
		l.ID = id

		if _, err := tx.ExecContext(ctx, incrementProgress, DayKey(l.CompletedAt), 1, l.FocusMinutes, now); err != nil {
			return fmt.Errorf("record progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return TaskCompletionLog{}, err
	}
	s.changes.notify(tableTasks, tableCompletions, tableProgress)
	return l, nil
}

// ReopenTask clears the completion of a task. Its logs and the progress
// they contributed stay as history.
func (s *Store) ReopenTask(ctx context.Context, taskID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 0, completed_at = NULL, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), taskID,
	)
	if err != nil {
		return fmt.Errorf("reopen task %d: %w", taskID, err)
	}
	if err := requireAffected(res, "task", taskID); err != nil {
		return err
	}
	s.changes.notify(tableTasks)
	return nil
}
