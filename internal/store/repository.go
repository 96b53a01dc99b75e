package store

import (
	"context"
	"time"
)

// TaskRepository is the task access surface callers depend on.
type TaskRepository interface {
	Insert(ctx context.Context, t Task) (int64, error)
	Update(ctx context.Context, t Task) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context) ([]Task, error)
	ObserveAll(ctx context.Context) (<-chan []Task, error)
	GetOverdue(ctx context.Context, asOf time.Time) ([]Task, error)
	MarkStarted(ctx context.Context, id int64, at time.Time) error
}

// DailyProgressRepository is the daily progress access surface.
type DailyProgressRepository interface {
	Upsert(ctx context.Context, day time.Time, p DailyProgress) error
	Increment(ctx context.Context, day time.Time, tasks, focusMinutes int) error
	GetByDate(ctx context.Context, day time.Time) (*DailyProgress, error)
	ListRange(ctx context.Context, start, end time.Time) ([]DailyProgress, error)
	ObserveRange(ctx context.Context, start, end time.Time) (<-chan []DailyProgress, error)
}

// CompletionLogRepository is the append-only completion history surface.
type CompletionLogRepository interface {
	Append(ctx context.Context, l TaskCompletionLog) (int64, error)
	List(ctx context.Context, f CompletionFilter) ([]TaskCompletionLog, error)
	ListForTask(ctx context.Context, taskID int64) ([]TaskCompletionLog, error)
	ObserveForTask(ctx context.Context, taskID int64) (<-chan []TaskCompletionLog, error)
}

var (
	_ TaskRepository          = (*TaskDAO)(nil)
	_ DailyProgressRepository = (*DailyProgressDAO)(nil)
	_ CompletionLogRepository = (*CompletionLogDAO)(nil)
)
