package clock

import (
	"fmt"
	"time"
)

const (
	ClockTimeLayout = "3:04 PM"
	DateLayout      = "Jan 02, 2006"
	WeekdayLayout   = "Monday"
)

// DefaultZone is the zone instants are displayed in unless configured otherwise.
var DefaultZone = Zone(8 * time.Hour)

// Zone returns a fixed zone named after its offset, eg. "UTC+8" or "UTC-3:30".
func Zone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	if secs == 0 {
		return time.UTC
	}
	sign, abs := '+', secs
	if secs < 0 {
		sign, abs = '-', -secs
	}
	name := fmt.Sprintf("UTC%c%d", sign, abs/3600)
	if m := abs % 3600 / 60; m != 0 {
		name += fmt.Sprintf(":%02d", m)
	}
	return time.FixedZone(name, secs)
}

// Display formats instants in a single fixed zone.
type Display struct {
	Zone *time.Location
}

func NewDisplay(offset time.Duration) Display {
	return Display{Zone: Zone(offset)}
}

func (d Display) in(t time.Time) time.Time {
	if d.Zone == nil {
		return t.In(DefaultZone)
	}
	return t.In(d.Zone)
}

func (d Display) ZoneName() string {
	if d.Zone == nil {
		return DefaultZone.String()
	}
	return d.Zone.String()
}

// ClockTime renders t on a 12-hour clock, eg. "4:30 PM".
func (d Display) ClockTime(t time.Time) string { return d.in(t).Format(ClockTimeLayout) }

// Date renders t as "Jan 02, 2006".
func (d Display) Date(t time.Time) string { return d.in(t).Format(DateLayout) }

// Weekday renders the full weekday name of t.
func (d Display) Weekday(t time.Time) string { return d.in(t).Format(WeekdayLayout) }

func FormatClockTime(t time.Time) string { return Display{}.ClockTime(t) }
func FormatDate(t time.Time) string      { return Display{}.Date(t) }
func FormatWeekday(t time.Time) string   { return Display{}.Weekday(t) }
