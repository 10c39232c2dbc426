package timesrc

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/pkg/errors"
)

var (
	queryFunc = ntp.QueryWithOptions // mockable
	nowFunc   = time.Now             // mockable
)

// NTPSource reads the time from an NTP server: the local clock corrected by the measured offset.
type NTPSource struct {
	server  string
	timeout time.Duration
}

func NewNTPSource(server string, timeout time.Duration) *NTPSource {
	return &NTPSource{server: server, timeout: timeout}
}

func (src *NTPSource) Now(ctx context.Context) (time.Time, error) {
	timeout := src.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout == 0 || left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if timeout < 0 {
		return time.Time{}, context.DeadlineExceeded
	}

	resp, err := queryFunc(src.server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "querying ntp server %s", src.server)
	}
	if err = resp.Validate(); err != nil {
		return time.Time{}, errors.Wrapf(err, "validating ntp response from %s", src.server)
	}
	return nowFunc().Add(resp.ClockOffset), nil
}
