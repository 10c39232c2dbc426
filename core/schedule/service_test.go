package schedule_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
	"github.com/strikeric11/grellic/core/schedule"
	cachesvc "github.com/strikeric11/grellic/services/cache"
	logsvc "github.com/strikeric11/grellic/services/logger"
	inmemdb "github.com/strikeric11/grellic/storage/database/inmem"
	testutil "github.com/strikeric11/grellic/tests"
)

var now = time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)

type env struct {
	repo   *inmemdb.ScheduleRepository
	cache  *cachesvc.ViewCache
	svc    *schedule.Service
	logger core.Logger
}

func newEnv(t *testing.T) *env {
	cache, err := cachesvc.NewViewCache(context.Background(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	e := &env{
		repo:   inmemdb.NewScheduleRepository(inmemdb.Open()),
		cache:  cache,
		logger: logsvc.NewStdLogger(log.New(io.Discard, "", 0), false),
	}
	e.svc = schedule.NewService(e.repo, cache, clock.NewDisplay(8*time.Hour), core.ScheduleConfig{Lookahead: 24 * time.Hour}, e.logger)
	return e
}

func (e *env) create(t *testing.T, kind schedule.Kind, title string, start time.Time, end ...time.Time) schedule.Schedule {
	return testutil.CreateSchedule(t, e.repo, kind, title, start, end...)
}

func titles(views []schedule.View) []string {
	res := make([]string, 0, len(views))
	for _, v := range views {
		res = append(res, v.Title)
	}
	return res
}

func TestService_Upcoming(t *testing.T) {
	e := newEnv(t)
	e.create(t, schedule.KindLesson, "Biology", now.Add(-time.Hour), now.Add(time.Hour))
	exam := e.create(t, schedule.KindExam, "Algebra", now.Add(2*time.Hour), now.Add(3*time.Hour))
	e.create(t, schedule.KindExam, "Next week", now.Add(7*24*time.Hour))

	views, err := e.svc.Upcoming(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology", "Algebra"}, titles(views))
	assert.True(t, views[0].Available)
	assert.Equal(t, "1 hour", views[0].Countdown)
	assert.Equal(t, exam.ID, views[1].ID)
	assert.Equal(t, "2 hours", views[1].Countdown)

	t.Run("served from cache", func(t *testing.T) {
		e.create(t, schedule.KindLesson, "Added later", now.Add(time.Hour))

		views, err := e.svc.Upcoming(context.Background(), now.Add(90*time.Minute))
		require.NoError(t, err)
		// the cached list is filtered, not refetched
		assert.Equal(t, []string{"Algebra"}, titles(views))
		assert.Equal(t, "30 minutes", views[0].Countdown)
	})

	t.Run("refetched after invalidation", func(t *testing.T) {
		e.svc.Invalidate(exam.ID)

		views, err := e.svc.Upcoming(context.Background(), now.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, []string{"Added later", "Algebra"}, titles(views))
	})
}

func TestService_Get(t *testing.T) {
	e := newEnv(t)
	exam := e.create(t, schedule.KindExam, "Algebra", now.Add(time.Hour), now.Add(2*time.Hour))

	v, err := e.svc.Get(context.Background(), exam.ID, now)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusUpcoming, v.Status)
	assert.Equal(t, int64(3600), v.SecondsLeft)
	_, cached := e.cache.Get("schedules:" + exam.ID.String())
	assert.True(t, cached)

	v, err = e.svc.Get(context.Background(), exam.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusOngoing, v.Status)

	_, err = e.svc.Get(context.Background(), uuid.New(), now)
	assert.Equal(t, schedule.ErrNotFound, err)
}

func TestService_corruptCacheEntry(t *testing.T) {
	e := newEnv(t)
	e.create(t, schedule.KindLesson, "Biology", now.Add(time.Hour))
	require.NoError(t, e.cache.Set("schedules:upcoming", []byte("{not json")))

	views, err := e.svc.Upcoming(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology"}, titles(views))
}
