package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageInit marks failures to open, create or migrate the database.
	// It is fatal at startup and never retried silently.
	ErrStorageInit = errors.New("storage init failed")

	// ErrNotFound is returned when an update or delete names an absent row.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned before any write when input is rejected.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyCompleted is returned when completing a task that is done.
	ErrAlreadyCompleted = errors.New("task already completed")

	errIncompatibleSchema = errors.New("incompatible schema version")
	errStoreClosed        = errors.New("store closed")
)

// InitError describes which step of opening the store failed.
type InitError struct {
	Path string
	Op   string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("storage init: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrStorageInit and the underlying cause.
func (e *InitError) Unwrap() []error {
	return []error{ErrStorageInit, e.Err}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}
