package store

import "time"

const (
	dayLayout  = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	maxTitleLen = 255
)

type Task struct {
	ID              int64
	Title           string
	Description     string
	Completed       bool
	DueAt           *time.Time
	StartedAt       *time.Time
	EstimateMinutes int
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOverdue reports whether the task is open and past its due time.
func (t Task) IsOverdue(asOf time.Time) bool {
	return !t.Completed && t.DueAt != nil && t.DueAt.Before(asOf)
}

// IsInProgress reports whether the task was started and is not done yet.
func (t Task) IsInProgress() bool {
	return !t.Completed && t.StartedAt != nil
}

// DailyProgress is the per-day aggregate. Day is a YYYY-MM-DD key.
type DailyProgress struct {
	Day            string
	TasksCompleted int
	FocusMinutes   int
	UpdatedAt      time.Time
}

// Date parses Day in the given location.
func (p DailyProgress) Date(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, p.Day, loc)
}

// TaskCompletionLog records one completion event. TaskID is a weak
// reference: the log outlives the task it points to.
type TaskCompletionLog struct {
	ID           int64
	TaskID       int64
	CompletedAt  time.Time
	FocusMinutes int
	Note         string
}

// CompletionFilter is used to filter completion logs in queries.
type CompletionFilter struct {
	TaskID *int64
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DayKey returns the calendar day of t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}
