package clock

import (
	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by Sync once the clock is closed; the fetched time, if any, is discarded.
	ErrClosed = errors.New("clock closed")

	ErrAlreadyStarted = errors.New("watcher already started")
)

// SyncError is a soft failure to fetch the server time. The clock keeps its last known time.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return "clock sync failed"
	}
	return "clock sync failed: " + e.Err.Error()
}

func (e *SyncError) Cause() error  { return e.Err }
func (e *SyncError) Unwrap() error { return e.Err }

func IsSyncError(err error) bool {
	var sErr *SyncError
	return errors.As(err, &sErr)
}
