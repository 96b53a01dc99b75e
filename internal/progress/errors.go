package progress

import "github.com/sadopc/willard/internal/store"

// Completion errors
var (
	// ErrAlreadyCompleted is returned when completing a task that is done.
	ErrAlreadyCompleted = store.ErrAlreadyCompleted

	// ErrTaskNotFound is returned when the task id is unknown.
	ErrTaskNotFound = store.ErrNotFound
)
