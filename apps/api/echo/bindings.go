package echoapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core/clock"
)

type (
	countdownQuery struct {
		Target    string `query:"target" validate:"required,instant"`
		Direction string `query:"direction" validate:"omitempty,oneof=until since"`
	}

	secondsQuery struct {
		Clock string `query:"clock" validate:"required,clockstr"`
	}

	clockQuery struct {
		Seconds string `query:"seconds" validate:"required,number"`
		Compact bool   `query:"compact"`
	}
)

// bind binds the query params of ctx to data & validates it.
func bind(ctx echo.Context, validate *validator.Validate, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding query")
	}
	return validate.Struct(data)
}

// target is only valid once bound.
func (q countdownQuery) target() (time.Time, clock.Direction) {
	at, _ := time.Parse(time.RFC3339Nano, q.Target)
	dir, _ := clock.ParseDirection(q.Direction)
	return at, dir
}
