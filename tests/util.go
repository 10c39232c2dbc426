package testutil

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/strikeric11/grellic/core/schedule"
)

type ScheduleCreator interface {
	Create(s schedule.Schedule) (schedule.Schedule, error)
}

func CreateSchedule(
	t *testing.T,
	repo ScheduleCreator,
	kind schedule.Kind,
	title string,
	startAt time.Time,
	endAt ...time.Time,
) schedule.Schedule {
	t.Helper()
	s := schedule.Schedule{Kind: kind, Title: title, StartAt: startAt}
	if len(endAt) > 0 {
		s.EndAt = null.TimeFrom(endAt[0])
	}
	s, err := repo.Create(s)
	if err != nil {
		t.Fatalf("createSchedule() failed: %v", err)
	}
	return s
}
