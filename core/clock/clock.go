package clock

import (
	"context"
	"sync"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
)

const (
	DefaultTickInterval = 10 * time.Second
	DefaultStaleAfter   = 10 * time.Minute
)

// Source provides the authoritative current time (eg. the API's time endpoint or an NTP server).
type Source interface {
	Now(ctx context.Context) (time.Time, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) (time.Time, error)

func (f SourceFunc) Now(ctx context.Context) (time.Time, error) { return f(ctx) }

// Target is a schedule boundary a countdown runs to (or an elapsed counter runs from).
type Target struct {
	ID        string
	At        time.Time
	Direction Direction
}

// State is the last applied sync.
// LastSyncedAt is the local clock reading taken when ServerNow was applied; it is the baseline of Tick.
type State struct {
	ServerNow    time.Time
	LastSyncedAt time.Time
}

type Options struct {
	StaleAfter        time.Duration // default: DefaultStaleAfter
	CompensateLatency bool          // add half the round trip of the sync request to the fetched time
	Local             bclock.Clock  // default: the host's monotonic clock
}

type watchedTarget struct {
	Target
	fired bool
}

// DurationClock maintains a drift-corrected notion of "now": the last server time plus the local time elapsed since.
// The host's wall clock is never used as an absolute time.
type DurationClock struct {
	src        Source
	local      bclock.Clock
	staleAfter time.Duration
	compensate bool

	mu      sync.Mutex
	state   State
	synced  bool
	closed  bool
	targets map[string]*watchedTarget
	order   []string
}

func New(src Source, opts Options) (*DurationClock, error) {
	// Source implementations may be plain values, which vala.IsNotNil cannot check.
	if src == nil {
		return nil, errors.New("creating clock: src must not be nil")
	}
	err := vala.BeginValidation().Validate(
		vala.GreaterThan(int(opts.StaleAfter), -1, "opts.StaleAfter"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "creating clock")
	}

	if opts.StaleAfter == 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Local == nil {
		opts.Local = bclock.New()
	}
	return &DurationClock{
		src:        src,
		local:      opts.Local,
		staleAfter: opts.StaleAfter,
		compensate: opts.CompensateLatency,
		targets:    make(map[string]*watchedTarget),
	}, nil
}

// Sync fetches the server time and applies it atomically.
// On failure the previous state is kept and a *SyncError is returned.
// A result arriving after Close is discarded and ErrClosed is returned.
func (c *DurationClock) Sync(ctx context.Context) (time.Time, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return time.Time{}, ErrClosed
	}

	sent := c.local.Now()
	fetched, err := c.fetch(ctx)
	received := c.local.Now()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return time.Time{}, ErrClosed
	}
	if err != nil {
		return time.Time{}, &SyncError{Err: err}
	}

	if c.compensate {
		fetched = fetched.Add(received.Sub(sent) / 2)
	}
	c.state = State{ServerNow: fetched, LastSyncedAt: received}
	c.synced = true
	return fetched, nil
}

func (c *DurationClock) fetch(ctx context.Context) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("time source panicked: %v", r)
		}
	}()
	if t, err = c.src.Now(ctx); err != nil {
		return time.Time{}, errors.Wrap(err, "fetching server time")
	}
	if t.IsZero() {
		return time.Time{}, errors.New("time source returned a zero time")
	}
	return t, nil
}

// Tick returns the current server time, extrapolated from the last sync with the local monotonic clock.
// ok is false until the first successful Sync (loading), and after Close.
func (c *DurationClock) Tick() (now time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.synced || c.closed {
		return time.Time{}, false
	}
	return c.state.ServerNow.Add(c.local.Since(c.state.LastSyncedAt)), true
}

// ShouldResync tells whether the last sync is too old to keep extrapolating from.
func (c *DurationClock) ShouldResync(current time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.synced {
		return true
	}
	return current.Sub(c.state.ServerNow) >= c.staleAfter
}

// State returns a snapshot of the last applied sync.
func (c *DurationClock) State() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.synced
}

// Offset is how far the server time was ahead of the local clock at the last sync.
func (c *DurationClock) Offset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.synced {
		return 0
	}
	return c.state.ServerNow.Sub(c.state.LastSyncedAt)
}

// Remaining computes the live duration to (or since) target.
func (c *DurationClock) Remaining(target Target) (time.Duration, bool) {
	now, ok := c.Tick()
	if !ok {
		return 0, false
	}
	return ComputeDuration(target.At, now, target.Direction), true
}

// Watch registers target for threshold crossing detection.
// Re-registering an unchanged target keeps its crossing state; a moved target is re-armed.
func (c *DurationClock) Watch(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wt, ok := c.targets[target.ID]; ok {
		if !wt.At.Equal(target.At) || wt.Direction != target.Direction {
			wt.Target = target
			wt.fired = false
		}
		return
	}
	c.targets[target.ID] = &watchedTarget{Target: target}
	c.order = append(c.order, target.ID)
}

func (c *DurationClock) Unwatch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.targets[id]; !ok {
		return
	}
	delete(c.targets, id)
	for i, tid := range c.order {
		if tid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Targets lists the registered targets in registration order.
func (c *DurationClock) Targets() []Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	targets := make([]Target, 0, len(c.order))
	for _, id := range c.order {
		targets = append(targets, c.targets[id].Target)
	}
	return targets
}

// Crossed returns the registered targets whose boundary now has reached, each only the first time.
func (c *DurationClock) Crossed(now time.Time) []Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	var crossed []Target
	for _, id := range c.order {
		wt := c.targets[id]
		if wt.fired || now.Before(wt.At) {
			continue
		}
		wt.fired = true
		crossed = append(crossed, wt.Target)
	}
	return crossed
}

// Close terminates the clock: Tick reports loading and in-flight syncs are discarded.
func (c *DurationClock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
