package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
)

var ErrNotFound = errors.New("schedule not found")

const upcomingKey = "schedules:upcoming"

type (
	Repository interface {
		// ListUpcoming returns the schedules not ended at from and starting before until, ordered by start.
		ListUpcoming(ctx context.Context, from, until time.Time) ([]Schedule, error)
		GetByID(ctx context.Context, id uuid.UUID) (Schedule, error)
	}

	Cache interface {
		Get(key string) ([]byte, bool)
		Set(key string, entry []byte) error
		Delete(key string)
	}

	Service struct {
		repo      Repository
		cache     Cache
		display   clock.Display
		lookahead time.Duration
		logger    core.Logger
	}
)

func NewService(repo Repository, cache Cache, display clock.Display, conf core.ScheduleConfig, logger core.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		display:   display,
		lookahead: conf.Lookahead,
		logger:    logger,
	}
}

func scheduleKey(id uuid.UUID) string { return "schedules:" + id.String() }

// Schedules lists the schedules not ended at now within the lookahead window.
// Lists are cached until a boundary is crossed (see Invalidate) or the cache entry expires.
func (svc *Service) Schedules(ctx context.Context, now time.Time) ([]Schedule, error) {
	var scheds []Schedule
	if svc.load(upcomingKey, &scheds) {
		return svc.notEnded(scheds, now), nil
	}

	scheds, err := svc.repo.ListUpcoming(ctx, now, now.Add(svc.lookahead))
	if err != nil {
		return nil, errors.Wrap(err, "listing schedules")
	}
	svc.store(upcomingKey, scheds)
	return scheds, nil
}

func (svc *Service) notEnded(scheds []Schedule, now time.Time) []Schedule {
	res := make([]Schedule, 0, len(scheds))
	for _, s := range scheds {
		if s.Status(now) != StatusEnded {
			res = append(res, s)
		}
	}
	return res
}

// Upcoming renders the current schedules against now.
func (svc *Service) Upcoming(ctx context.Context, now time.Time) ([]View, error) {
	scheds, err := svc.Schedules(ctx, now)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(scheds))
	for _, s := range scheds {
		views = append(views, NewView(s, now, svc.display))
	}
	return views, nil
}

func (svc *Service) Get(ctx context.Context, id uuid.UUID, now time.Time) (View, error) {
	var s Schedule
	if !svc.load(scheduleKey(id), &s) {
		var err error
		if s, err = svc.repo.GetByID(ctx, id); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return View{}, ErrNotFound
			}
			return View{}, errors.Wrapf(err, "getting schedule %s", id)
		}
		svc.store(scheduleKey(id), s)
	}
	return NewView(s, now, svc.display), nil
}

// Invalidate drops the cached entries a crossed boundary of schedule id made stale.
func (svc *Service) Invalidate(id uuid.UUID) {
	svc.cache.Delete(upcomingKey)
	svc.cache.Delete(scheduleKey(id))
}

func (svc *Service) load(key string, dst interface{}) bool {
	entry, ok := svc.cache.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(entry, dst); err != nil {
		svc.logger.Warn(fmt.Sprintf("decoding cached %s", key), err)
		svc.cache.Delete(key)
		return false
	}
	return true
}

func (svc *Service) store(key string, v interface{}) {
	entry, err := json.Marshal(v)
	if err == nil {
		err = svc.cache.Set(key, entry)
	}
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("caching %s", key), err)
	}
}
