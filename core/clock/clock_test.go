package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	serverEpoch   = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	errSimTimeout = errors.New("i/o timeout")
)

// fakeSource serves a settable server time.
type fakeSource struct {
	mu    sync.Mutex
	now   time.Time
	err   error
	calls int
}

func (src *fakeSource) Now(context.Context) (time.Time, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.calls++
	if src.err != nil {
		return time.Time{}, src.err
	}
	return src.now, nil
}

func (src *fakeSource) set(now time.Time, err error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.now, src.err = now, err
}

func (src *fakeSource) callCount() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.calls
}

func newTestClock(t *testing.T, src Source, opts ...Options) (*DurationClock, *bclock.Mock) {
	mock := bclock.NewMock()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o.Local = mock
	c, err := New(src, o)
	require.NoError(t, err)
	return c, mock
}

type valueSource struct{}

func (valueSource) Now(context.Context) (time.Time, error) { return serverEpoch, nil }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		opts    Options
		wantErr bool
	}{
		{name: "nil source", src: nil, wantErr: true},
		{name: "negative stale after", src: &fakeSource{}, opts: Options{StaleAfter: -time.Second}, wantErr: true},
		{name: "pointer source", src: &fakeSource{}},
		{name: "value source", src: valueSource{}},
		{name: "func source", src: SourceFunc(func(context.Context) (time.Time, error) { return serverEpoch, nil })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.src, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultStaleAfter, c.staleAfter)
		})
	}
}

func TestDurationClock_tickBeforeSync(t *testing.T) {
	c, _ := newTestClock(t, &fakeSource{now: serverEpoch})

	now, ok := c.Tick()
	assert.False(t, ok, "Tick() must report loading before the first sync")
	assert.True(t, now.IsZero())

	_, ok = c.Remaining(Target{At: serverEpoch.Add(time.Hour)})
	assert.False(t, ok)
}

func TestDurationClock_syncAndTick(t *testing.T) {
	src := &fakeSource{now: serverEpoch}
	c, mock := newTestClock(t, src)
	mock.Add(42 * time.Hour) // the local clock is unrelated to the server time

	got, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, serverEpoch, got)

	now, ok := c.Tick()
	require.True(t, ok)
	assert.Equal(t, serverEpoch, now)

	// idempotent without elapsed time
	again, _ := c.Tick()
	assert.Equal(t, now, again)

	mock.Add(10 * time.Second)
	now, _ = c.Tick()
	assert.Equal(t, serverEpoch.Add(10*time.Second), now)
	assert.Equal(t, serverEpoch.Sub(mock.Now().Add(-10*time.Second)), c.Offset())
}

func TestDurationClock_tickIsMonotonic(t *testing.T) {
	c, mock := newTestClock(t, &fakeSource{now: serverEpoch})
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	prev, _ := c.Tick()
	for i := 0; i < 50; i++ {
		mock.Add(time.Duration(i) * 123 * time.Millisecond)
		now, ok := c.Tick()
		require.True(t, ok)
		assert.False(t, now.Before(prev), "tick %d went backwards: %v < %v", i, now, prev)
		prev = now
	}
}

func TestDurationClock_ticksTenSecondsApart(t *testing.T) {
	c, mock := newTestClock(t, &fakeSource{now: serverEpoch})
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	target := Target{ID: "exam", At: serverEpoch.Add(3 * time.Hour)}
	first, ok := c.Remaining(target)
	require.True(t, ok)

	mock.Add(10 * time.Second)
	second, ok := c.Remaining(target)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, first-second)
}

func TestDurationClock_syncFailureKeepsState(t *testing.T) {
	src := &fakeSource{now: serverEpoch}
	c, mock := newTestClock(t, src)
	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	mock.Add(time.Minute)
	before, _ := c.Tick()

	src.set(time.Time{}, errSimTimeout)
	_, err = c.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, IsSyncError(err))
	assert.Equal(t, errSimTimeout, errors.Cause(err))

	after, ok := c.Tick()
	assert.True(t, ok)
	assert.Equal(t, before, after)
}

func TestDurationClock_syncFailureBeforeFirstSync(t *testing.T) {
	c, _ := newTestClock(t, &fakeSource{err: errSimTimeout})

	_, err := c.Sync(context.Background())
	assert.True(t, IsSyncError(err))
	_, ok := c.Tick()
	assert.False(t, ok)
}

func TestDurationClock_syncRecoversPanics(t *testing.T) {
	src := SourceFunc(func(context.Context) (time.Time, error) { panic("boom") })
	c, _ := newTestClock(t, src)

	var err error
	assert.NotPanics(t, func() { _, err = c.Sync(context.Background()) })
	assert.True(t, IsSyncError(err))
}

func TestDurationClock_syncRejectsZeroTime(t *testing.T) {
	c, _ := newTestClock(t, &fakeSource{})
	_, err := c.Sync(context.Background())
	assert.True(t, IsSyncError(err))
}

func TestDurationClock_syncCancelled(t *testing.T) {
	c, _ := newTestClock(t, &fakeSource{now: serverEpoch})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Sync(ctx)
	assert.True(t, IsSyncError(err))
	assert.Equal(t, context.Canceled, errors.Cause(err))
	_, ok := c.Tick()
	assert.False(t, ok)
}

func TestDurationClock_compensateLatency(t *testing.T) {
	var mock *bclock.Mock
	src := SourceFunc(func(context.Context) (time.Time, error) {
		mock.Add(2 * time.Second) // round trip
		return serverEpoch, nil
	})
	c, m := newTestClock(t, src, Options{CompensateLatency: true})
	mock = m

	got, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, serverEpoch.Add(time.Second), got)
}

func TestDurationClock_shouldResync(t *testing.T) {
	c, mock := newTestClock(t, &fakeSource{now: serverEpoch}, Options{StaleAfter: 10 * time.Minute})
	assert.True(t, c.ShouldResync(serverEpoch), "uninitialized clock must resync")

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	now, _ := c.Tick()
	assert.False(t, c.ShouldResync(now), "fresh sync must not be stale")

	mock.Add(10*time.Minute - time.Second)
	now, _ = c.Tick()
	assert.False(t, c.ShouldResync(now))

	mock.Add(time.Second)
	now, _ = c.Tick()
	assert.True(t, c.ShouldResync(now))

	_, err = c.Sync(context.Background())
	require.NoError(t, err)
	now, _ = c.Tick()
	assert.False(t, c.ShouldResync(now))
}

func TestDurationClock_crossed(t *testing.T) {
	c, _ := newTestClock(t, &fakeSource{now: serverEpoch})
	start := Target{ID: "exam:start", At: serverEpoch.Add(time.Minute)}
	end := Target{ID: "exam:end", At: serverEpoch.Add(time.Hour)}
	c.Watch(start)
	c.Watch(end)

	assert.Empty(t, c.Crossed(serverEpoch))
	assert.Equal(t, []Target{start}, c.Crossed(serverEpoch.Add(time.Minute)))
	assert.Empty(t, c.Crossed(serverEpoch.Add(2*time.Minute)), "a crossing must fire once")

	// unchanged registration keeps the crossing state
	c.Watch(start)
	assert.Empty(t, c.Crossed(serverEpoch.Add(3*time.Minute)))

	// a moved target is re-armed
	moved := Target{ID: "exam:start", At: serverEpoch.Add(5 * time.Minute)}
	c.Watch(moved)
	assert.Empty(t, c.Crossed(serverEpoch.Add(4*time.Minute)))
	assert.Equal(t, []Target{moved}, c.Crossed(serverEpoch.Add(5*time.Minute)))

	assert.Equal(t, []Target{moved, end}, c.Targets())
	c.Unwatch(end.ID)
	c.Unwatch("unknown")
	assert.Equal(t, []Target{moved}, c.Targets())
	assert.Empty(t, c.Crossed(serverEpoch.Add(2*time.Hour)))
}

func TestDurationClock_close(t *testing.T) {
	c, _ := newTestClock(t, &fakeSource{now: serverEpoch})
	_, err := c.Sync(context.Background())
	require.NoError(t, err)

	c.Close()
	_, ok := c.Tick()
	assert.False(t, ok)
	_, err = c.Sync(context.Background())
	assert.Equal(t, ErrClosed, err)
}

func TestDurationClock_lateSyncDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	src := SourceFunc(func(context.Context) (time.Time, error) {
		close(started)
		<-release
		return serverEpoch, nil
	})
	c, _ := newTestClock(t, src)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Sync(context.Background())
		errCh <- err
	}()

	<-started
	c.Close()
	close(release)

	assert.Equal(t, ErrClosed, <-errCh)
	_, synced := c.State()
	assert.False(t, synced, "a late result must not mutate the clock")
}
