package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/strikeric11/grellic/core/clock"
	"github.com/strikeric11/grellic/services/timesrc"
)

type clockApi struct {
	clock    *clock.DurationClock
	display  clock.Display
	validate *validator.Validate
}

type countdownResponse struct {
	Now       time.Time `json:"now"`
	Target    time.Time `json:"target"`
	Direction string    `json:"direction"`
	Seconds   int64     `json:"seconds"`
	Countdown string    `json:"countdown"`
	Available bool      `json:"available"`
}

func registerClockAPI(g *echo.Group, c *clock.DurationClock, display clock.Display, validate *validator.Validate) {
	api := clockApi{clock: c, display: display, validate: validate}

	g.GET("/clock", api.now)
	g.GET("/countdown", api.countdown)
}

// now serves the server time; the clients' time source.
func (api *clockApi) now(ctx echo.Context) error {
	now, ok := api.clock.Tick()
	if !ok {
		return errClockNotSynced
	}
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.JSON(http.StatusOK, timesrc.ClockResponse{
		Now:       now,
		Zone:      api.display.ZoneName(),
		ClockTime: api.display.ClockTime(now),
		Date:      api.display.Date(now),
		Weekday:   api.display.Weekday(now),
	})
}

func (api *clockApi) countdown(ctx echo.Context) error {
	var q countdownQuery
	if err := bind(ctx, api.validate, &q); err != nil {
		return err
	}
	now, ok := api.clock.Tick()
	if !ok {
		return errClockNotSynced
	}

	target, direction := q.target()
	d := clock.ComputeDuration(target, now, direction)
	return ctx.JSON(http.StatusOK, countdownResponse{
		Now:       now,
		Target:    target,
		Direction: direction.String(),
		Seconds:   int64(d / time.Second),
		Countdown: clock.FormatCountdown(d),
		Available: !now.Before(target),
	})
}
