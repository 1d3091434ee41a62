package reload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnishant95/forge/configstore"
)

// fakeReloader records reload calls and returns a configurable error
type fakeReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeReloader) Reload(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeReloader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestCoordinator(t *testing.T, rel Reloader) (*Coordinator, string) {
	t.Helper()
	artifact := filepath.Join(t.TempDir(), "routes.conf")

	c := NewCoordinator(2 * time.Second)
	c.Register(KindRoutes, Target{
		Render: func() ([]byte, error) {
			return RenderNginx([]configstore.Route{
				{Name: "r1", Path: "/t/", Upstream: "http://x"},
			}), nil
		},
		ArtifactPath: artifact,
		Reloader:     rel,
	})
	return c, artifact
}

func TestApply_WritesArtifactAndSignals(t *testing.T) {
	rel := &fakeReloader{}
	c, artifact := newTestCoordinator(t, rel)

	outcome := c.Apply(context.Background(), KindRoutes)

	assert.True(t, outcome.StoreOK)
	assert.True(t, outcome.ReloadOK)
	assert.Equal(t, 1, rel.callCount())

	data, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Contains(t, string(data), "location /t/ {")
	assert.Contains(t, string(data), "proxy_pass http://x;")
}

func TestApply_SignalFailureIsWarningNotError(t *testing.T) {
	rel := &fakeReloader{err: errors.New("nginx unreachable")}
	c, artifact := newTestCoordinator(t, rel)

	outcome := c.Apply(context.Background(), KindRoutes)

	// Store write already committed: reload failure downgrades to warning
	assert.True(t, outcome.StoreOK)
	assert.False(t, outcome.ReloadOK)
	assert.Contains(t, outcome.Message, "nginx unreachable")

	// Artifact is still written so a later manual reload picks it up
	_, err := os.Stat(artifact)
	assert.NoError(t, err)
}

func TestApply_RecoveryViaManualReload(t *testing.T) {
	rel := &fakeReloader{err: errors.New("down")}
	c, _ := newTestCoordinator(t, rel)

	outcome := c.Apply(context.Background(), KindRoutes)
	assert.False(t, outcome.ReloadOK)

	// Target recovers
	rel.mu.Lock()
	rel.err = nil
	rel.mu.Unlock()

	outcome = c.Reload(context.Background(), KindRoutes)
	assert.True(t, outcome.ReloadOK)
	assert.Equal(t, 2, rel.callCount())
}

func TestApply_UnregisteredKind(t *testing.T) {
	c := NewCoordinator(time.Second)
	outcome := c.Apply(context.Background(), KindLogSources)

	assert.True(t, outcome.StoreOK)
	assert.False(t, outcome.ReloadOK)
	assert.Contains(t, outcome.Message, "no reload target")
}

func TestApply_SurvivesCancelledRequestContext(t *testing.T) {
	rel := &fakeReloader{}
	c, _ := newTestCoordinator(t, rel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // client already disconnected

	outcome := c.Apply(ctx, KindRoutes)
	assert.True(t, outcome.ReloadOK, "reload must run on a detached context")
}

func TestHTTPReloader(t *testing.T) {
	t.Run("accepts 2xx", func(t *testing.T) {
		var method string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		rel := &HTTPReloader{URL: srv.URL + "/reload"}
		require.NoError(t, rel.Reload(context.Background()))
		assert.Equal(t, http.MethodPost, method)
	})

	t.Run("rejects 5xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		rel := &HTTPReloader{URL: srv.URL + "/reload"}
		err := rel.Reload(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("unreachable target", func(t *testing.T) {
		rel := &HTTPReloader{
			URL:    "http://127.0.0.1:1/reload",
			Client: &http.Client{Timeout: 200 * time.Millisecond},
		}
		assert.Error(t, rel.Reload(context.Background()))
	})
}
