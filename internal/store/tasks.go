package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const taskColumns = `id, title, description, completed, due_at, started_at, estimate_minutes, completed_at, created_at, updated_at`

// TaskDAO reads and writes tasks.
type TaskDAO struct {
	s *Store
}

func validateTask(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return invalidf("task title cannot be empty")
	}
	if utf8.RuneCountInString(t.Title) > maxTitleLen {
		return invalidf("task title cannot exceed %d characters", maxTitleLen)
	}
	if t.EstimateMinutes < 0 {
		return invalidf("estimate must not be negative, got %d", t.EstimateMinutes)
	}
	return nil
}

// Insert stores a new task and returns its id. ID, CreatedAt and UpdatedAt
// are assigned by the store; every other field is stored as given.
func (d *TaskDAO) Insert(ctx context.Context, t Task) (int64, error) {
	if err := validateTask(t); err != nil {
		return 0, err
	}
	now := time.Now()
	if t.Completed && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	res, err := d.s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, completed, due_at, started_at, estimate_minutes, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, boolToInt(t.Completed), nullTime(t.DueAt), nullTime(t.StartedAt),
		t.EstimateMinutes, nullTime(t.CompletedAt), formatTime(now), formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	d.s.changes.notify(tableTasks)
	return id, nil
}

// Update overwrites every mutable field of the task with t.ID.
func (d *TaskDAO) Update(ctx context.Context, t Task) error {
	if err := validateTask(t); err != nil {
		return err
	}
	completedAt := t.CompletedAt
	if !t.Completed {
		completedAt = nil
	} else if completedAt == nil {
		now := time.Now()
		completedAt = &now
	}
	res, err := d.s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, completed = ?, due_at = ?, started_at = ?,
		 estimate_minutes = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, boolToInt(t.Completed), nullTime(t.DueAt), nullTime(t.StartedAt),
		t.EstimateMinutes, nullTime(completedAt), formatTime(time.Now()), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	if err := requireAffected(res, "task", t.ID); err != nil {
		return err
	}
	d.s.changes.notify(tableTasks)
	return nil
}

// MarkStarted records when work on an open task began.
func (d *TaskDAO) MarkStarted(ctx context.Context, id int64, at time.Time) error {
	res, err := d.s.db.ExecContext(ctx,
		`UPDATE tasks SET started_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(at), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("start task %d: %w", id, err)
	}
	if err := requireAffected(res, "task", id); err != nil {
		return err
	}
	d.s.changes.notify(tableTasks)
	return nil
}

// Delete removes the task. Deleting an absent id returns ErrNotFound.
// Completion logs of the task are kept.
func (d *TaskDAO) Delete(ctx context.Context, id int64) error {
	res, err := d.s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if err := requireAffected(res, "task", id); err != nil {
		return err
	}
	d.s.changes.notify(tableTasks)
	return nil
}

// GetByID returns nil without error when no task has the id.
func (d *TaskDAO) GetByID(ctx context.Context, id int64) (*Task, error) {
	row := d.s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// List returns every task in creation order.
func (d *TaskDAO) List(ctx context.Context) ([]Task, error) {
	return d.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

// GetOverdue returns open tasks due strictly before asOf, earliest first.
func (d *TaskDAO) GetOverdue(ctx context.Context, asOf time.Time) ([]Task, error) {
	return d.query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE completed = 0 AND due_at IS NOT NULL AND due_at < ?
		 ORDER BY due_at, id`,
		formatTime(asOf),
	)
}

// ObserveAll streams the full task list, re-emitting after every change.
// The stream ends when ctx is cancelled or the store is closed.
func (d *TaskDAO) ObserveAll(ctx context.Context) (<-chan []Task, error) {
	return observeQuery(ctx, d.s, tableTasks, d.List)
}

func (d *TaskDAO) query(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := d.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var completed int
	var dueAt, startedAt, completedAt sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &completed, &dueAt, &startedAt,
		&t.EstimateMinutes, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return Task{}, err
	}
	t.Completed = completed == 1
	t.DueAt = parseNullTime(dueAt)
	t.StartedAt = parseNullTime(startedAt)
	t.CompletedAt = parseNullTime(completedAt)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}
