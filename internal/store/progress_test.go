package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ============================================================
// Daily progress tests
// ============================================================

func TestUpsertOnePerDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	dao := s.DailyProgress()

	morning := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 4, 2, 22, 30, 0, 0, time.UTC)

	require.NoError(t, dao.Upsert(ctx, morning, DailyProgress{TasksCompleted: 1, FocusMinutes: 25}))
	require.NoError(t, dao.Upsert(ctx, evening, DailyProgress{TasksCompleted: 4, FocusMinutes: 100}))

	days, err := dao.ListRange(ctx, morning, evening)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-04-02", days[0].Day)
	assert.Equal(t, 4, days[0].TasksCompleted)
	assert.Equal(t, 100, days[0].FocusMinutes)
}

func TestUpsertIgnoresDayField(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.DailyProgress().Upsert(ctx, day(2026, 4, 3), DailyProgress{Day: "1999-01-01", TasksCompleted: 2}))

	got, err := s.DailyProgress().GetByDate(ctx, day(2026, 4, 3))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-04-03", got.Day)

	old, err := s.DailyProgress().GetByDate(ctx, day(1999, 1, 1))
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestUpsertRejectsNegative(t *testing.T) {
	s := newTestStore(t)
	err := s.DailyProgress().Upsert(context.Background(), day(2026, 1, 1), DailyProgress{FocusMinutes: -5})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConcurrentUpsertsSameDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	d := day(2026, 7, 7)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, s.DailyProgress().Upsert(ctx, d, DailyProgress{TasksCompleted: n}))
		}(i)
	}
	wg.Wait()

	days, err := s.DailyProgress().ListRange(ctx, d, d)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.GreaterOrEqual(t, days[0].TasksCompleted, 1)
	assert.LessOrEqual(t, days[0].TasksCompleted, 10)
}

func TestIncrement(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	d := day(2026, 8, 1)

	require.NoError(t, s.DailyProgress().Increment(ctx, d, 1, 25))
	require.NoError(t, s.DailyProgress().Increment(ctx, d.Add(5*time.Hour), 2, 10))

	got, err := s.DailyProgress().GetByDate(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TasksCompleted)
	assert.Equal(t, 35, got.FocusMinutes)

	assert.ErrorIs(t, s.DailyProgress().Increment(ctx, d, -1, 0), ErrInvalidArgument)
}

func TestListRangeInclusiveAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	dao := s.DailyProgress()

	// Insert out of order.
	for _, d := range []time.Time{day(2026, 2, 5), day(2026, 2, 1), day(2026, 2, 3), day(2026, 2, 9)} {
		require.NoError(t, dao.Upsert(ctx, d, DailyProgress{TasksCompleted: d.Day()}))
	}

	days, err := dao.ListRange(ctx, day(2026, 2, 1), day(2026, 2, 5))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-02-01", days[0].Day)
	assert.Equal(t, "2026-02-03", days[1].Day)
	assert.Equal(t, "2026-02-05", days[2].Day)

	date, err := days[2].Date(time.UTC)
	require.NoError(t, err)
	assert.True(t, day(2026, 2, 5).Equal(date))
}

func TestListRangeSingleDayAndEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	days, err := s.DailyProgress().ListRange(ctx, day(2026, 1, 1), day(2026, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestListRangeInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.DailyProgress().ListRange(ctx, day(2026, 3, 2), day(2026, 3, 1))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.DailyProgress().ObserveRange(ctx, day(2026, 3, 2), day(2026, 3, 1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDayKeyUsesLocation(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	// 2026-03-02T02:00Z is still March 1st in UTC-5.
	ts := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC).In(zone)
	assert.Equal(t, "2026-03-01", DayKey(ts))
}

func TestObserveRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	dao := s.DailyProgress()

	stream, err := dao.ObserveRange(ctx, day(2026, 9, 1), day(2026, 9, 7))
	require.NoError(t, err)
	assert.Empty(t, next(t, stream))

	require.NoError(t, dao.Upsert(ctx, day(2026, 9, 3), DailyProgress{TasksCompleted: 1}))
	got := until(t, stream, func(ps []DailyProgress) bool { return len(ps) == 1 })
	assert.Equal(t, "2026-09-03", got[0].Day)

	require.NoError(t, dao.Upsert(ctx, day(2026, 9, 3), DailyProgress{TasksCompleted: 6}))
	got = until(t, stream, func(ps []DailyProgress) bool { return len(ps) == 1 && ps[0].TasksCompleted == 6 })
	assert.Equal(t, 6, got[0].TasksCompleted)
}
