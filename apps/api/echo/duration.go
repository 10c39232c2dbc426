package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
)

type durationApi struct {
	validate *validator.Validate
}

func registerDurationAPI(g *echo.Group, validate *validator.Validate) {
	api := durationApi{validate: validate}

	dg := g.Group("/durations")
	dg.GET("/seconds", api.toSeconds)
	dg.GET("/clock", api.toClock)
}

func (api *durationApi) toSeconds(ctx echo.Context) error {
	var q secondsQuery
	if err := bind(ctx, api.validate, &q); err != nil {
		return err
	}
	secs, err := clock.DurationToSeconds(q.Clock)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "clock", Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"seconds": secs})
}

func (api *durationApi) toClock(ctx echo.Context) error {
	var q clockQuery
	if err := bind(ctx, api.validate, &q); err != nil {
		return err
	}
	secs, err := strconv.Atoi(q.Seconds)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "seconds", Error: "out of range"})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"clock": clock.SecondsToDuration(secs, q.Compact)})
}
