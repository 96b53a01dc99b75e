// Package progress implements completing tasks and reading the daily
// aggregates they feed.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/willard/internal/settings"
	"github.com/sadopc/willard/internal/store"
)

// Recorder performs the transactional completion writes.
type Recorder interface {
	CompleteTask(ctx context.Context, taskID int64, l store.TaskCompletionLog) (store.TaskCompletionLog, error)
	ReopenTask(ctx context.Context, taskID int64) error
}

// DayReader reads daily aggregates.
type DayReader interface {
	GetByDate(ctx context.Context, day time.Time) (*store.DailyProgress, error)
	ListRange(ctx context.Context, start, end time.Time) ([]store.DailyProgress, error)
}

// Service completes tasks and summarises progress.
type Service struct {
	rec   Recorder
	days  DayReader
	prefs settings.Repository
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService wires a Service. prefs supplies the default focus length.
func NewService(rec Recorder, days DayReader, prefs settings.Repository, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		rec:   rec,
		days:  days,
		prefs: prefs,
		log:   logger.WithField("component", "progress"),
		now:   time.Now,
	}
}

// Complete marks the task done, appends its completion log and adds it to
// today's progress. A focusMinutes of zero means one default timer session.
func (s *Service) Complete(ctx context.Context, taskID int64, focusMinutes int, note string) (store.TaskCompletionLog, error) {
	if focusMinutes < 0 {
		return store.TaskCompletionLog{}, fmt.Errorf("focus minutes must not be negative, got %d: %w", focusMinutes, store.ErrInvalidArgument)
	}
	if focusMinutes == 0 {
		focusMinutes = s.prefs.Snapshot().DefaultTimerMinutes
	}

	entry, err := s.rec.CompleteTask(ctx, taskID, store.TaskCompletionLog{
		CompletedAt:  s.now(),
		FocusMinutes: focusMinutes,
		Note:         note,
	})
	if err != nil {
		return store.TaskCompletionLog{}, fmt.Errorf("failed to complete task: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"task_id": taskID,
		"minutes": focusMinutes,
	}).Info("task completed")
	return entry, nil
}

// Reopen clears the completion of a task. History stays.
func (s *Service) Reopen(ctx context.Context, taskID int64) error {
	if err := s.rec.ReopenTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to reopen task: %w", err)
	}
	s.log.WithField("task_id", taskID).Info("task reopened")
	return nil
}

// Today returns today's record, or an empty one keyed by today.
func (s *Service) Today(ctx context.Context) (store.DailyProgress, error) {
	now := s.now()
	p, err := s.days.GetByDate(ctx, now)
	if err != nil {
		return store.DailyProgress{}, err
	}
	if p == nil {
		return store.DailyProgress{Day: store.DayKey(now)}, nil
	}
	return *p, nil
}

// LastDays returns one record per day for the n days ending today,
// oldest first, with empty days filled in.
func (s *Service) LastDays(ctx context.Context, n int) ([]store.DailyProgress, error) {
	if n <= 0 {
		return nil, fmt.Errorf("day count must be positive, got %d: %w", n, store.ErrInvalidArgument)
	}
	start, end := Window(s.now(), n)
	days, err := s.days.ListRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return Dense(days, start, n), nil
}

// Window returns the first and last day of the n-day window ending at t.
func Window(t time.Time, n int) (time.Time, time.Time) {
	return t.AddDate(0, 0, -(n - 1)), t
}

// Dense expands sparse records into exactly n consecutive days starting at
// start. Days without a record get zero counters.
func Dense(days []store.DailyProgress, start time.Time, n int) []store.DailyProgress {
	byDay := make(map[string]store.DailyProgress, len(days))
	for _, d := range days {
		byDay[d.Day] = d
	}
	out := make([]store.DailyProgress, n)
	for i := 0; i < n; i++ {
		key := store.DayKey(start.AddDate(0, 0, i))
		if d, ok := byDay[key]; ok {
			out[i] = d
		} else {
			out[i] = store.DailyProgress{Day: key}
		}
	}
	return out
}

// Streak counts consecutive days with at least one completion, ending
// today. Today without completions does not break a streak that ended
// yesterday.
func Streak(days []store.DailyProgress) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].TasksCompleted > 0 {
			streak++
			continue
		}
		if i == len(days)-1 {
			continue
		}
		break
	}
	return streak
}

// Totals sums the counters of days.
func Totals(days []store.DailyProgress) (tasks, minutes int) {
	for _, d := range days {
		tasks += d.TasksCompleted
		minutes += d.FocusMinutes
	}
	return tasks, minutes
}
