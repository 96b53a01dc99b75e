package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Task tests
// ============================================================

func TestInsertAndGetTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	due := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	id, err := s.Tasks().Insert(ctx, Task{
		Title:           "  Write report  ",
		Description:     "quarterly numbers",
		DueAt:           &due,
		EstimateMinutes: 45,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "  Write report  ", got.Title, "titles are stored as given")
	assert.Equal(t, "quarterly numbers", got.Description)
	assert.False(t, got.Completed)
	require.NotNil(t, got.DueAt)
	assert.True(t, due.Equal(*got.DueAt))
	assert.Equal(t, 45, got.EstimateMinutes)
	assert.Nil(t, got.CompletedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetTaskMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Tasks().GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, r := range []string{"é", "日"} {
		title := strings.Repeat(r, maxTitleLen)
		id, err := s.Tasks().Insert(ctx, Task{Title: title})
		require.NoError(t, err, "%d x %q", maxTitleLen, r)
		got, err := s.Tasks().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)

		_, err = s.Tasks().Insert(ctx, Task{Title: title + r})
		assert.ErrorIs(t, err, ErrInvalidArgument, "%d x %q", maxTitleLen+1, r)
	}
}

func TestInsertTaskValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name string
		task Task
	}{
		{"empty title", Task{Title: ""}},
		{"blank title", Task{Title: "   "}},
		{"long title", Task{Title: strings.Repeat("x", maxTitleLen+1)}},
		{"negative estimate", Task{Title: "ok", EstimateMinutes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Tasks().Insert(ctx, tt.task)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "rejected tasks must not be written")
}

func TestInsertCompletedTaskStampsCompletion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Tasks().Insert(ctx, Task{Title: "done already", Completed: true})
	require.NoError(t, err)

	got, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Tasks().Insert(ctx, Task{Title: "draft"})
	require.NoError(t, err)

	task, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	task.Title = "final"
	task.Completed = true
	require.NoError(t, s.Tasks().Update(ctx, *task))

	got, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)

	// Reopening through Update clears the completion time.
	got.Completed = false
	require.NoError(t, s.Tasks().Update(ctx, *got))
	got, err = s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
}

func TestUpdateMissingTask(t *testing.T) {
	s := newTestStore(t)
	err := s.Tasks().Update(context.Background(), Task{ID: 999, Title: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Tasks().Insert(ctx, Task{Title: "to delete"})
	require.NoError(t, err)

	require.NoError(t, s.Tasks().Delete(ctx, id))

	got, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, s.Tasks().Delete(ctx, id), ErrNotFound)
}

func TestMarkStarted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Tasks().Insert(ctx, Task{Title: "focus"})
	require.NoError(t, err)

	at := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.Tasks().MarkStarted(ctx, id, at))

	got, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.True(t, at.Equal(*got.StartedAt))
	assert.True(t, got.IsInProgress())

	assert.ErrorIs(t, s.Tasks().MarkStarted(ctx, 404, at), ErrNotFound)
}

func TestListTasksInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, title := range []string{"one", "two", "three"} {
		_, err := s.Tasks().Insert(ctx, Task{Title: title})
		require.NoError(t, err)
	}

	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "one", tasks[0].Title)
	assert.Equal(t, "three", tasks[2].Title)
}

func TestGetOverdue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	asOf := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	early := asOf.Add(-48 * time.Hour)
	late := asOf.Add(-time.Hour)
	future := asOf.Add(time.Hour)

	lateID, err := s.Tasks().Insert(ctx, Task{Title: "late", DueAt: &late})
	require.NoError(t, err)
	earlyID, err := s.Tasks().Insert(ctx, Task{Title: "early", DueAt: &early})
	require.NoError(t, err)
	_, err = s.Tasks().Insert(ctx, Task{Title: "future", DueAt: &future})
	require.NoError(t, err)
	_, err = s.Tasks().Insert(ctx, Task{Title: "no due date"})
	require.NoError(t, err)
	_, err = s.Tasks().Insert(ctx, Task{Title: "done", DueAt: &early, Completed: true})
	require.NoError(t, err)
	_, err = s.Tasks().Insert(ctx, Task{Title: "exactly now", DueAt: &asOf})
	require.NoError(t, err)

	overdue, err := s.Tasks().GetOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, earlyID, overdue[0].ID)
	assert.Equal(t, lateID, overdue[1].ID)
	for _, task := range overdue {
		assert.True(t, task.IsOverdue(asOf))
	}
}

func TestGetOverdueAcrossZones(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	zone := time.FixedZone("UTC+9", 9*60*60)
	due := time.Date(2026, 1, 1, 8, 0, 0, 0, zone) // 2025-12-31T23:00Z
	_, err := s.Tasks().Insert(ctx, Task{Title: "zoned", DueAt: &due})
	require.NoError(t, err)

	overdue, err := s.Tasks().GetOverdue(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}

// ============================================================
// Task streams
// ============================================================

func TestObserveAllEmitsOnChange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stream, err := s.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, next(t, stream), "initial snapshot")

	id, err := s.Tasks().Insert(ctx, Task{Title: "observed"})
	require.NoError(t, err)

	got := until(t, stream, func(ts []Task) bool { return len(ts) == 1 })
	assert.Equal(t, id, got[0].ID)

	require.NoError(t, s.Tasks().Delete(ctx, id))
	until(t, stream, func(ts []Task) bool { return len(ts) == 0 })
}

func TestObserveAllIndependentSubscribers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Tasks().ObserveAll(ctx)
	require.NoError(t, err)
	cctx, cancel := context.WithCancel(ctx)
	b, err := s.Tasks().ObserveAll(cctx)
	require.NoError(t, err)
	next(t, a)
	next(t, b)

	cancel()
	requireClosed(t, b)

	_, err = s.Tasks().Insert(ctx, Task{Title: "still flowing"})
	require.NoError(t, err)
	until(t, a, func(ts []Task) bool { return len(ts) == 1 })
}
