package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/strikeric11/grellic/core/clock"
)

type Kind string

const (
	KindLesson Kind = "lesson"
	KindExam   Kind = "exam"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusEnded    Status = "ended"
)

// Boundary is the edge of a schedule a clock target points to.
type Boundary string

const (
	BoundaryStart Boundary = "start"
	BoundaryEnd   Boundary = "end"
)

// Schedule is a lesson or exam slot. A schedule without an end stays open once started.
type Schedule struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Kind    Kind      `db:"kind" json:"kind"`
	Title   string    `db:"title" json:"title"`
	StartAt time.Time `db:"start_at" json:"start_at"`
	EndAt   null.Time `db:"end_at" json:"end_at"`
}

func (s Schedule) Status(now time.Time) Status {
	switch {
	case now.Before(s.StartAt):
		return StatusUpcoming
	case s.EndAt.Valid && !now.Before(s.EndAt.Time):
		return StatusEnded
	default:
		return StatusOngoing
	}
}

// Available tells whether the lesson/exam can be accessed at now.
func (s Schedule) Available(now time.Time) bool {
	return s.Status(now) == StatusOngoing
}

// Next is the boundary a countdown currently runs to; ok is false once there is none left.
func (s Schedule) Next(now time.Time) (at time.Time, b Boundary, ok bool) {
	switch s.Status(now) {
	case StatusUpcoming:
		return s.StartAt, BoundaryStart, true
	case StatusOngoing:
		if s.EndAt.Valid {
			return s.EndAt.Time, BoundaryEnd, true
		}
	}
	return time.Time{}, "", false
}

// Targets are the clock targets of the schedule boundaries.
func (s Schedule) Targets() []clock.Target {
	targets := []clock.Target{{ID: TargetID(s.ID, BoundaryStart), At: s.StartAt, Direction: clock.UntilTarget}}
	if s.EndAt.Valid {
		targets = append(targets, clock.Target{ID: TargetID(s.ID, BoundaryEnd), At: s.EndAt.Time, Direction: clock.UntilTarget})
	}
	return targets
}

func TargetID(id uuid.UUID, b Boundary) string {
	return fmt.Sprintf("%s:%s", id, b)
}

func ParseTargetID(targetID string) (uuid.UUID, Boundary, error) {
	parts := strings.SplitN(targetID, ":", 2)
	if len(parts) != 2 {
		return uuid.Nil, "", errors.Errorf("invalid target id: %q", targetID)
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", errors.Wrapf(err, "invalid target id: %q", targetID)
	}
	switch b := Boundary(parts[1]); b {
	case BoundaryStart, BoundaryEnd:
		return id, b, nil
	default:
		return uuid.Nil, "", errors.Errorf("invalid target boundary: %q", parts[1])
	}
}

// View is a schedule rendered against the server clock.
type View struct {
	Schedule
	Status      Status `json:"status"`
	Available   bool   `json:"available"`
	Countdown   string `json:"countdown"`
	SecondsLeft int64  `json:"seconds_left"`
	Date        string `json:"date"`
	Weekday     string `json:"weekday"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
}

func NewView(s Schedule, now time.Time, display clock.Display) View {
	v := View{
		Schedule:  s,
		Status:    s.Status(now),
		Available: s.Available(now),
		Countdown: clock.CountdownNow,
		Date:      display.Date(s.StartAt),
		Weekday:   display.Weekday(s.StartAt),
		StartTime: display.ClockTime(s.StartAt),
	}
	if s.EndAt.Valid {
		v.EndTime = display.ClockTime(s.EndAt.Time)
	}
	if at, _, ok := s.Next(now); ok {
		left := clock.ComputeDuration(at, now, clock.UntilTarget)
		v.Countdown = clock.FormatCountdown(left)
		v.SecondsLeft = int64(left / time.Second)
	}
	return v
}
