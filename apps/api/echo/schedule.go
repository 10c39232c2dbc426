package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/strikeric11/grellic/core/clock"
	"github.com/strikeric11/grellic/core/schedule"
)

type scheduleApi struct {
	clock *clock.DurationClock
	svc   *schedule.Service
}

func registerScheduleAPI(g *echo.Group, c *clock.DurationClock, svc *schedule.Service) {
	api := scheduleApi{clock: c, svc: svc}

	sg := g.Group("/schedules")
	sg.GET("", api.list)
	sg.GET("/:id", api.retrieve)
}

func (api *scheduleApi) list(ctx echo.Context) error {
	now, ok := api.clock.Tick()
	if !ok {
		return errClockNotSynced
	}
	views, err := api.svc.Upcoming(ctx.Request().Context(), now)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	now, ok := api.clock.Tick()
	if !ok {
		return errClockNotSynced
	}
	view, err := api.svc.Get(ctx.Request().Context(), id, now)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}
