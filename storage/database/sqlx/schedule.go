package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/schedule"
)

const scheduleColumns = `id, kind, title, start_at, end_at`

var upcomingOrdering = []core.DBOrdering{{Field: "start_at", Ascending: true}, {Field: "title", Ascending: true}}

type ScheduleRepository struct {
	db sqlx.ExtContext
}

var _ schedule.Repository = (*ScheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db sqlx.ExtContext) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts s, assigning an ID when it has none.
func (repo ScheduleRepository) Create(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.StartAt = s.StartAt.UTC()
	if s.EndAt.Valid {
		s.EndAt.Time = s.EndAt.Time.UTC()
	}

	q := `INSERT INTO schedule (` + scheduleColumns + `) VALUES (:id, :kind, :title, :start_at, :end_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, s); err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return s, nil
}

func (repo ScheduleRepository) ListUpcoming(ctx context.Context, from, until time.Time) ([]schedule.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedule
		WHERE (end_at IS NULL OR end_at > $1) AND start_at < $2
		ORDER BY ` + core.OrderBy(upcomingOrdering...)

	scheds := make([]schedule.Schedule, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &scheds, q, from.UTC(), until.UTC()); err != nil {
		return nil, errors.Wrap(err, "selecting upcoming schedules")
	}
	return scheds, nil
}

func (repo ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (schedule.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedule WHERE id = $1`

	var s schedule.Schedule
	if err := sqlx.GetContext(ctx, repo.db, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedule.Schedule{}, schedule.ErrNotFound
		}
		return schedule.Schedule{}, errors.Wrapf(err, "selecting schedule %s", id)
	}
	return s, nil
}
