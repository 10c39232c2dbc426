package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/strikeric11/grellic/core"
)

type WatcherOptions struct {
	Interval    time.Duration // default: DefaultTickInterval
	SyncTimeout time.Duration // 0: bounded by the Start context only
	Logger      core.Logger   // optional

	// hooks; all run on the watcher goroutine and must not call Stop
	OnTick             func(now time.Time)
	OnSync             func(serverNow time.Time)
	OnSyncError        func(err error)
	OnThresholdCrossed func(target Target)
}

// Watcher drives one DurationClock on a fixed interval: it extrapolates between syncs,
// resyncs once the last sync is stale, and reports each target crossing once.
type Watcher struct {
	clock *DurationClock
	opts  WatcherOptions

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	resync chan struct{}
}

func NewWatcher(c *DurationClock, opts WatcherOptions) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	return &Watcher{
		clock:  c,
		opts:   opts,
		resync: make(chan struct{}, 1),
	}
}

func (w *Watcher) Clock() *DurationClock { return w.clock }

// Start syncs the clock and starts ticking in the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := w.clock.local.Ticker(w.opts.Interval)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx, ticker)
	return nil
}

// Stop cancels the ticker & any in-flight sync and waits for the watcher to exit. The clock is closed.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	w.clock.Close()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed once the watcher has exited.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Resync asks the watcher to sync on its next turn (eg. on reconnect or focus events).
func (w *Watcher) Resync() {
	select {
	case w.resync <- struct{}{}:
	default: // one pending request is enough
	}
}

func (w *Watcher) run(ctx context.Context, ticker *bclock.Ticker) {
	defer close(w.done)
	defer ticker.Stop()

	w.step(ctx, false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.step(ctx, false)
		case <-w.resync:
			w.step(ctx, true)
		}
	}
}

func (w *Watcher) step(ctx context.Context, force bool) {
	now, ok := w.clock.Tick()
	if force || !ok || w.clock.ShouldResync(now) {
		w.sync(ctx)
		if now, ok = w.clock.Tick(); !ok {
			return // still loading
		}
	}
	if ctx.Err() != nil {
		return
	}

	if w.opts.OnTick != nil {
		w.opts.OnTick(now)
	}
	for _, target := range w.clock.Crossed(now) {
		if ctx.Err() != nil {
			return
		}
		if w.opts.Logger != nil {
			w.opts.Logger.Debug(fmt.Sprintf("threshold crossed: %s", target.ID))
		}
		if w.opts.OnThresholdCrossed != nil {
			w.opts.OnThresholdCrossed(target)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	syncCtx := ctx
	if w.opts.SyncTimeout > 0 {
		var cancel context.CancelFunc
		syncCtx, cancel = context.WithTimeout(ctx, w.opts.SyncTimeout)
		defer cancel()
	}

	serverNow, err := w.clock.Sync(syncCtx)
	if ctx.Err() != nil || errors.Cause(err) == ErrClosed {
		return // stopped: the result is discarded
	}
	if err != nil {
		if w.opts.Logger != nil {
			w.opts.Logger.Warn("syncing clock", err)
		}
		if w.opts.OnSyncError != nil {
			w.opts.OnSyncError(err)
		}
		return
	}
	if w.opts.OnSync != nil {
		w.opts.OnSync(serverNow)
	}
}
