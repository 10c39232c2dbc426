package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core/schedule"
)

type ScheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*ScheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db.schedule}
}

// Create stores s, assigning an ID when it has none.
func (repo *ScheduleRepository) Create(s schedule.Schedule) (schedule.Schedule, error) {
	if s.EndAt.Valid && !s.EndAt.Time.After(s.StartAt) {
		return schedule.Schedule{}, errors.Errorf("schedule %q ends before it starts", s.Title)
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.StartAt = s.StartAt.UTC()
	if s.EndAt.Valid {
		s.EndAt.Time = s.EndAt.Time.UTC()
	}
	repo.db.table[s.ID] = s
	return s, nil
}

func (repo *ScheduleRepository) ListUpcoming(ctx context.Context, from, until time.Time) ([]schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	scheds := make([]schedule.Schedule, 0)
	for _, s := range repo.db.table {
		if s.Status(from) != schedule.StatusEnded && s.StartAt.Before(until) {
			scheds = append(scheds, s)
		}
	}
	sort.Slice(scheds, func(i, j int) bool {
		if scheds[i].StartAt.Equal(scheds[j].StartAt) {
			return scheds[i].Title < scheds[j].Title
		}
		return scheds[i].StartAt.Before(scheds[j].StartAt)
	})
	return scheds, nil
}

func (repo *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return schedule.Schedule{}, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}
