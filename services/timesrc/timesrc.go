// Package timesrc provides the authoritative time sources a clock.DurationClock syncs against.
package timesrc

import (
	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
)

const (
	SourceHTTP   = "http"
	SourceNTP    = "ntp"
	SourceSystem = "system"
)

// New returns the Source configured by conf.Source.
func New(conf core.ClockConfig) (clock.Source, error) {
	switch conf.Source {
	case SourceHTTP:
		return NewHTTPSource(conf.ServerURL, conf.SyncTimeout)
	case SourceNTP:
		return NewNTPSource(conf.NTPServer, conf.SyncTimeout), nil
	case SourceSystem:
		return SystemSource{}, nil
	}
	return nil, errors.Errorf("unknown clock source %q", conf.Source)
}
