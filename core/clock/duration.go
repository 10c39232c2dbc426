package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CountdownNow is displayed by FormatCountdown once a countdown has run out.
const CountdownNow = "Now"

// Direction tells whether a Target is counted down to or counted up from.
type Direction int

const (
	UntilTarget Direction = iota
	SinceTarget
)

func (d Direction) String() string {
	if d == SinceTarget {
		return "since"
	}
	return "until"
}

// ParseDirection parses "until" (default when empty) or "since".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "until":
		return UntilTarget, nil
	case "since":
		return SinceTarget, nil
	}
	return UntilTarget, errors.Errorf("unknown direction %q", s)
}

// ComputeDuration returns the span between target and reference in the requested direction.
// Negative spans are clamped to zero: counting down to a passed target yields zero ("available now").
func ComputeDuration(target, reference time.Time, direction Direction) time.Duration {
	d := target.Sub(reference)
	if direction == SinceTarget {
		d = reference.Sub(target)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Components is a Duration split into display units.
type Components struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// Split decomposes d into whole days, hours, minutes & seconds. Sub-second precision is dropped.
func Split(d time.Duration) Components {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return Components{
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}

// FormatCountdown renders the non-zero components of d down to minutes, eg. "10 days : 16 hours : 30 minutes".
// d is rounded up to the next whole minute so a running countdown never shows "0 minutes".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return CountdownNow
	}
	if rem := d % time.Minute; rem != 0 {
		d += time.Minute - rem
	}

	c := Split(d)
	parts := make([]string, 0, 3)
	if c.Days > 0 {
		parts = append(parts, pluralize(c.Days, "day"))
	}
	if c.Hours > 0 {
		parts = append(parts, pluralize(c.Hours, "hour"))
	}
	if c.Minutes > 0 {
		parts = append(parts, pluralize(c.Minutes, "minute"))
	}
	return strings.Join(parts, " : ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// ErrInvalidClock is returned when a clock string is not HH:MM:SS or MM:SS.
var ErrInvalidClock = errors.New("invalid clock string")

// DurationToSeconds converts "HH:MM:SS" (or the compact "MM:SS") into a number of seconds.
// The leading component is unbounded; the others must be within 0-59.
func DurationToSeconds(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.Wrapf(ErrInvalidClock, "%q", s)
	}

	var total int
	for i, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return 0, errors.Wrapf(ErrInvalidClock, "%q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidClock, "%q: %v", s, err)
		}
		if i > 0 && n > 59 {
			return 0, errors.Wrapf(ErrInvalidClock, "%q: component out of range", s)
		}
		total = total*60 + n
	}
	return total, nil
}

// SecondsToDuration renders seconds as "HH:MM:SS". In compact mode a zero hour is omitted ("MM:SS").
// Negative values render as zero.
func SecondsToDuration(seconds int, compact bool) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if compact && h == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
