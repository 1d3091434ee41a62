package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gnishant95/forge/configstore"
	"github.com/gnishant95/forge/errors"
	"github.com/gnishant95/forge/health"
	"github.com/gnishant95/forge/metric"
	"github.com/gnishant95/forge/reload"
	"github.com/gnishant95/forge/system"
)

// fakeReloader stands in for the external process signal.
type fakeReloader struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeReloader) Reload(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeReloader) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeReloader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHealth struct {
	mu    sync.Mutex
	snap  health.Snapshot
	calls int
}

func (f *fakeHealth) Snapshot(_ context.Context) health.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap
}

func (f *fakeHealth) snapshotCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	data map[string]string
	err  error
}

func (f *fakeCache) Ping(context.Context) error { return f.err }

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.data[key]
	delete(f.data, key)
	return ok, nil
}

type fakeDB struct {
	rows    []map[string]string
	columns []string
	err     error
}

func (f *fakeDB) Ping(context.Context) error { return f.err }

func (f *fakeDB) Query(_ context.Context, _, _ string) ([]map[string]string, []string, error) {
	return f.rows, f.columns, f.err
}

func (f *fakeDB) Execute(_ context.Context, _, _ string) (int64, int64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	return 3, 7, nil
}

type pushedLog struct {
	level   string
	message string
	labels  map[string]string
}

type fakeLogs struct {
	entries []pushedLog
	err     error
}

func (f *fakeLogs) Push(_ context.Context, level, message string, labels map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, pushedLog{level, message, labels})
	return nil
}

type fakeInventory struct {
	info *system.Info
	err  error
}

func (f *fakeInventory) Snapshot(context.Context) (*system.Info, error) {
	return f.info, f.err
}

// env is the full test harness around a Server.
type env struct {
	server       *Server
	handler      http.Handler
	nginxSignal  *fakeReloader
	shipSignal   *fakeReloader
	health       *fakeHealth
	cache        *fakeCache
	db           *fakeDB
	logs         *fakeLogs
	inventory    *fakeInventory
	routesStore  *configstore.Store[configstore.Route]
	sourcesStore *configstore.Store[configstore.LogSource]
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	routesStore, err := configstore.NewStore[configstore.Route](filepath.Join(dir, "routes.yaml"), "routes")
	require.NoError(t, err)
	sourcesStore, err := configstore.NewStore[configstore.LogSource](filepath.Join(dir, "sources.yaml"), "sources")
	require.NoError(t, err)

	nginxSignal := &fakeReloader{}
	shipSignal := &fakeReloader{}

	coordinator := reload.NewCoordinator(time.Second)
	coordinator.Register(reload.KindRoutes, reload.Target{
		Render:       func() ([]byte, error) { return reload.RenderNginx(routesStore.List()), nil },
		ArtifactPath: filepath.Join(dir, "routes.conf"),
		Reloader:     nginxSignal,
	})
	coordinator.Register(reload.KindLogSources, reload.Target{
		Render:       func() ([]byte, error) { return reload.RenderPromtail(sourcesStore.List()) },
		ArtifactPath: filepath.Join(dir, "promtail.yml"),
		Reloader:     shipSignal,
	})

	healthSrc := &fakeHealth{snap: health.Snapshot{
		OK:     true,
		Uptime: "1m0s",
		Services: map[string]health.ServiceStatus{
			"api":   health.Healthy(),
			"mysql": health.Healthy(),
			"redis": health.Healthy(),
			"nginx": health.Healthy(),
		},
	}}

	cacheBackend := &fakeCache{data: map[string]string{}}
	dbBackend := &fakeDB{
		rows:    []map[string]string{{"id": "1", "name": "a"}},
		columns: []string{"id", "name"},
	}
	logBackend := &fakeLogs{}
	inv := &fakeInventory{info: &system.Info{
		Timestamp:       "2026-01-01T00:00:00Z",
		Containers:      map[string]*system.ContainerStats{"forge-nginx": {Name: "forge-nginx", State: "running"}},
		TotalContainers: 1,
		RunningCount:    1,
	}}

	server := NewServer(Options{
		Version:     "0.1.0",
		Routes:      routesStore,
		Sources:     sourcesStore,
		Coordinator: coordinator,
		Health:      healthSrc,
		Cache:       cacheBackend,
		DB:          dbBackend,
		Logs:        logBackend,
		Inventory:   inv,
		Backends: BackendInfo{
			ExternalHost:  "localhost",
			RedisPort:     6379,
			MySQLPort:     3306,
			MySQLUser:     "root",
			MySQLPassword: "forgeroot",
		},
		Metrics: metric.NewRegistry(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &env{
		server:       server,
		handler:      server.Handler(),
		nginxSignal:  nginxSignal,
		shipSignal:   shipSignal,
		health:       healthSrc,
		cache:        cacheBackend,
		db:           dbBackend,
		logs:         logBackend,
		inventory:    inv,
		routesStore:  routesStore,
		sourcesStore: sourcesStore,
	}
}

// do runs one request through the full handler stack and decodes the
// JSON response into out (when out is non-nil).
func (e *env) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case []byte:
			reader = bytes.NewReader(b)
		default:
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

var errSignalDown = errors.WrapTransient(nil, "test", "Reload", "process unreachable")
