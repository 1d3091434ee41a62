package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyProbe(_ context.Context) error   { return nil }
func unhealthyProbe(_ context.Context) error { return errors.New("connection refused") }

func TestSnapshot_AllRequiredHealthy(t *testing.T) {
	agg := NewAggregator(time.Now(), []ServiceProbe{
		{Name: "mysql", Required: true, Probe: healthyProbe},
		{Name: "redis", Required: true, Probe: healthyProbe},
		{Name: "nginx", Required: true, Probe: healthyProbe},
	}, time.Second)

	snap := agg.Snapshot(context.Background())

	assert.True(t, snap.OK)
	assert.Equal(t, StatusHealthy, snap.Services["mysql"].Status)
	assert.Equal(t, StatusHealthy, snap.Services["redis"].Status)
	assert.Equal(t, StatusHealthy, snap.Services["nginx"].Status)
}

func TestSnapshot_APIAlwaysPresentAndHealthy(t *testing.T) {
	agg := NewAggregator(time.Now(), nil, time.Second)
	snap := agg.Snapshot(context.Background())

	require.Contains(t, snap.Services, "api")
	assert.Equal(t, StatusHealthy, snap.Services["api"].Status)
	assert.True(t, snap.OK)
}

func TestSnapshot_RequiredFailureFlipsOK(t *testing.T) {
	agg := NewAggregator(time.Now(), []ServiceProbe{
		{Name: "mysql", Required: true, Probe: unhealthyProbe},
		{Name: "redis", Required: true, Probe: healthyProbe},
	}, time.Second)

	snap := agg.Snapshot(context.Background())

	assert.False(t, snap.OK)
	assert.Equal(t, StatusUnhealthy, snap.Services["mysql"].Status)
	assert.Equal(t, "connection refused", snap.Services["mysql"].Message)
	assert.Equal(t, StatusHealthy, snap.Services["redis"].Status)
}

func TestSnapshot_OptionalFailureDoesNotGate(t *testing.T) {
	agg := NewAggregator(time.Now(), []ServiceProbe{
		{Name: "mysql", Required: true, Probe: healthyProbe},
		{Name: "grafana", Required: false, Probe: unhealthyProbe},
		{Name: "tempo", Required: false, Probe: unhealthyProbe},
	}, time.Second)

	snap := agg.Snapshot(context.Background())

	assert.True(t, snap.OK, "optional services never participate in the OK reduction")
	assert.Equal(t, StatusUnknown, snap.Services["grafana"].Status)
	assert.Equal(t, StatusUnknown, snap.Services["tempo"].Status)
	assert.NotEmpty(t, snap.Services["grafana"].Message)
}

func TestSnapshot_ProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}

	agg := NewAggregator(time.Now(), []ServiceProbe{
		{Name: "mysql", Required: true, Probe: slow},
	}, 50*time.Millisecond)

	start := time.Now()
	snap := agg.Snapshot(context.Background())

	assert.False(t, snap.OK)
	assert.Equal(t, StatusUnhealthy, snap.Services["mysql"].Status)
	assert.Less(t, time.Since(start), 2*time.Second, "timeout bounds the probe")
}

func TestSnapshot_UptimeFormat(t *testing.T) {
	agg := NewAggregator(time.Now().Add(-90*time.Second), nil, time.Second)
	snap := agg.Snapshot(context.Background())

	assert.Equal(t, "1m30s", snap.Uptime)
}

func TestPingProbe_NilClient(t *testing.T) {
	probe := PingProbe(nil)
	err := probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestHTTPProbe(t *testing.T) {
	t.Run("healthy on 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.NoError(t, HTTPProbe(srv.URL)(context.Background()))
	})

	t.Run("unhealthy on 503", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := HTTPProbe(srv.URL)(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("unhealthy when unreachable", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		assert.Error(t, HTTPProbe("http://127.0.0.1:1/ready")(ctx))
	})
}
