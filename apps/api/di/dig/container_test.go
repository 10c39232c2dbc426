package dig_container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/strikeric11/grellic/apps/api/echo"
	"github.com/strikeric11/grellic/core/clock"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DATABASE_ENGINE", "memory")
	t.Setenv("TEST_CLOCK_SOURCE", "system")

	c := New()
	err := c.Invoke(func(server *echoapi.Server, watcher *clock.Watcher) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clock", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		synced := make(chan struct{})
		go func() {
			for {
				if _, ok := watcher.Clock().Tick(); ok {
					close(synced)
					return
				}
				time.Sleep(5 * time.Millisecond)
			}
		}()
		require.NoError(t, watcher.Start(context.Background()))
		defer watcher.Stop()

		select {
		case <-synced:
		case <-time.After(5 * time.Second):
			t.Fatal("clock never synced")
		}

		rec = httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/schedules", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
	require.NoError(t, err)
}
