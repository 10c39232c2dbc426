package schedule

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
)

// Tracker keeps the clock's targets in line with the upcoming schedules
// and reacts when one of their boundaries is reached.
type Tracker struct {
	svc      *Service
	clock    *clock.DurationClock
	mailer   core.EmailService
	announce []mail.Address
	logger   core.Logger
}

func NewTracker(svc *Service, c *clock.DurationClock, mailer core.EmailService, announce []mail.Address, logger core.Logger) *Tracker {
	return &Tracker{
		svc:      svc,
		clock:    c,
		mailer:   mailer,
		announce: announce,
		logger:   logger,
	}
}

// Refresh registers the boundaries still ahead of now. Boundaries already passed are never registered.
func (t *Tracker) Refresh(ctx context.Context, now time.Time) error {
	scheds, err := t.svc.Schedules(ctx, now)
	if err != nil {
		return errors.Wrap(err, "refreshing tracked schedules")
	}
	for _, s := range scheds {
		for _, target := range s.Targets() {
			if target.At.After(now) {
				t.clock.Watch(target)
			}
		}
	}
	return nil
}

// Crossed handles a boundary reached by the clock.
func (t *Tracker) Crossed(ctx context.Context, target clock.Target) {
	id, boundary, err := ParseTargetID(target.ID)
	if err != nil {
		t.logger.Warn("handling crossed target", err)
		t.clock.Unwatch(target.ID)
		return
	}
	t.svc.Invalidate(id)

	view, err := t.svc.Get(ctx, id, target.At)
	if err != nil {
		if err != ErrNotFound {
			t.logger.Error(fmt.Sprintf("getting crossed schedule %s", id), err)
		}
		t.clock.Unwatch(target.ID)
		return
	}

	if boundary == BoundaryEnd || !view.EndAt.Valid {
		// nothing left to wait for
		t.clock.Unwatch(TargetID(id, BoundaryStart))
		t.clock.Unwatch(TargetID(id, BoundaryEnd))
	}
	if boundary == BoundaryStart && view.Kind == KindExam {
		t.announceExam(view)
	}
}

func (t *Tracker) announceExam(view View) {
	if t.mailer == nil || len(t.announce) == 0 {
		return
	}
	details := []string{fmt.Sprintf("Date: %s (%s)", view.Date, view.Weekday), "Starts: " + view.StartTime}
	if view.EndTime != "" {
		details = append(details, "Ends: "+view.EndTime)
	}
	t.mailer.SendMessages(&core.EmailMessage{
		To:      t.announce,
		Subject: "Exam open: " + view.Title,
		BodyStr: fmt.Sprintf("The exam %q is now open.", view.Title),
		Details: details,
	})
}
