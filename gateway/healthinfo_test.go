package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnishant95/forge/health"
)

func TestHealthEndpoint(t *testing.T) {
	e := newEnv(t)

	var snap health.Snapshot
	rec := e.do(t, "GET", "/api/v1/health", nil, &snap)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, snap.OK)
	assert.Equal(t, "1m0s", snap.Uptime)
	assert.Equal(t, health.StatusHealthy, snap.Services["api"].Status)
}

func TestHealthEndpoint_RequiredFailureReflected(t *testing.T) {
	e := newEnv(t)
	e.health.snap.OK = false
	e.health.snap.Services["mysql"] = health.Unhealthy("connection refused")

	var snap health.Snapshot
	e.do(t, "GET", "/api/v1/health", nil, &snap)
	assert.False(t, snap.OK)
	assert.Equal(t, "connection refused", snap.Services["mysql"].Message)
}

func TestInfoEndpoint_CachedComposite(t *testing.T) {
	e := newEnv(t)

	var first infoResponse
	rec := e.do(t, "GET", "/api/v1/info", nil, &first)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.1.0", first.Version)
	assert.True(t, first.OK)
	require.Equal(t, 1, e.health.snapshotCalls())

	// Within the TTL the cached composite is served without re-probing.
	var second infoResponse
	e.do(t, "GET", "/api/v1/info", nil, &second)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.health.snapshotCalls())

	// refresh=true bypasses the cache.
	e.do(t, "GET", "/api/v1/info?refresh=true", nil, nil)
	assert.Equal(t, 2, e.health.snapshotCalls())
}

func TestSystemEndpoint(t *testing.T) {
	e := newEnv(t)

	var got struct {
		TotalContainers int `json:"total_containers"`
		RunningCount    int `json:"running_count"`
		Containers      map[string]struct {
			State string `json:"state"`
		} `json:"containers"`
	}
	rec := e.do(t, "GET", "/api/v1/system", nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, got.TotalContainers)
	assert.Equal(t, 1, got.RunningCount)
	assert.Equal(t, "running", got.Containers["forge-nginx"].State)
}

func TestSystemEndpoint_InventoryFailure(t *testing.T) {
	e := newEnv(t)
	e.inventory.info = nil
	e.inventory.err = errSignalDown

	rec := e.do(t, "GET", "/api/v1/system", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
