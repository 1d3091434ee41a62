package system

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testInventory points an Inventory at an httptest server standing in
// for the Docker Engine API.
func testInventory(srv *httptest.Server, prefix string) *Inventory {
	return &Inventory{
		client:  srv.Client(),
		baseURL: srv.URL,
		prefix:  prefix,
	}
}

func fakeEngine(t *testing.T, containersJSON string, statsJSON map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/containers/json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, containersJSON)
	})
	mux.HandleFunc("/containers/", func(w http.ResponseWriter, r *http.Request) {
		for id, body := range statsJSON {
			if r.URL.Path == "/containers/"+id+"/stats" {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
				return
			}
		}
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func TestSnapshot_FiltersByPrefix(t *testing.T) {
	created := time.Now().Add(-90 * time.Minute).Unix()
	containers := fmt.Sprintf(`[
		{"Id":"aaa","Names":["/forge-nginx"],"Image":"nginx:1.25","State":"exited","Status":"Exited (0)","Created":%d},
		{"Id":"bbb","Names":["/other-app"],"Image":"redis:7","State":"running","Status":"Up","Created":%d}
	]`, created, created)

	srv := fakeEngine(t, containers, nil)
	defer srv.Close()

	info, err := testInventory(srv, "forge-").Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, info.TotalContainers)
	assert.Equal(t, 0, info.RunningCount)
	require.Contains(t, info.Containers, "forge-nginx")
	assert.NotContains(t, info.Containers, "other-app")

	c := info.Containers["forge-nginx"]
	assert.Equal(t, "exited", c.State)
	assert.Equal(t, "nginx:1.25", c.Image)
	assert.Equal(t, "1h 30m", c.Uptime)
}

func TestSnapshot_LiveStatsAndEndpoints(t *testing.T) {
	created := time.Now().Add(-5 * time.Minute).Unix()
	containers := fmt.Sprintf(`[
		{"Id":"ccc","Names":["/forge-api"],"Image":"forge/api","State":"running","Status":"Up 5 minutes",
		 "Created":%d,"Ports":[{"PrivatePort":8080,"PublicPort":18080,"Type":"tcp"},{"PrivatePort":9090,"Type":"tcp"}]}
	]`, created)

	stats := map[string]string{
		"ccc": `{
			"cpu_stats":{"cpu_usage":{"total_usage":400},"system_cpu_usage":2000,"online_cpus":2},
			"precpu_stats":{"cpu_usage":{"total_usage":200},"system_cpu_usage":1000},
			"memory_stats":{"usage":209715200,"limit":1073741824},
			"networks":{"eth0":{"rx_bytes":1048576,"tx_bytes":2097152}}
		}`,
	}

	srv := fakeEngine(t, containers, stats)
	defer srv.Close()

	info, err := testInventory(srv, "forge-").Snapshot(context.Background())
	require.NoError(t, err)
	require.Contains(t, info.Containers, "forge-api")

	c := info.Containers["forge-api"]
	assert.Equal(t, 1, info.RunningCount)
	// (200/1000) * 2 cpus * 100
	assert.InDelta(t, 40.0, c.CPUPercent, 0.01)
	assert.InDelta(t, 200.0, c.MemoryMB, 0.01)
	assert.InDelta(t, 1024.0, c.MemoryLimitMB, 0.01)
	assert.InDelta(t, 19.53, c.MemoryPercent, 0.01)
	assert.InDelta(t, 1.0, c.NetworkRxMB, 0.01)
	assert.InDelta(t, 2.0, c.NetworkTxMB, 0.01)
	assert.Equal(t, []string{"localhost:18080"}, c.Endpoints)
}

func TestSnapshot_StatsFailureDegrades(t *testing.T) {
	created := time.Now().Unix()
	containers := fmt.Sprintf(`[
		{"Id":"ddd","Names":["/forge-db"],"Image":"mysql:8","State":"running","Status":"Up","Created":%d}
	]`, created)

	srv := fakeEngine(t, containers, nil) // stats endpoint returns 404
	defer srv.Close()

	info, err := testInventory(srv, "forge-").Snapshot(context.Background())
	require.NoError(t, err)

	c := info.Containers["forge-db"]
	assert.Equal(t, 1, info.RunningCount)
	assert.Zero(t, c.CPUPercent)
	assert.Zero(t, c.MemoryMB)
}

func TestSnapshot_ListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testInventory(srv, "forge-").Snapshot(context.Background())
	assert.Error(t, err)
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name       string
		containers map[string]*ContainerStats
		want       []string
	}{
		{
			name: "all healthy",
			containers: map[string]*ContainerStats{
				"forge-api": {State: "running", MemoryPercent: 20, CPUPercent: 5},
			},
			want: []string{"all services are healthy"},
		},
		{
			name: "stopped container",
			containers: map[string]*ContainerStats{
				"forge-nginx": {State: "exited"},
			},
			want: []string{"forge-nginx is not running (state: exited)"},
		},
		{
			name: "critical memory and high cpu",
			containers: map[string]*ContainerStats{
				"forge-db": {State: "running", MemoryPercent: 91, CPUPercent: 85.5},
			},
			want: []string{
				"forge-db memory usage is critical (91%), consider raising its limit",
				"forge-db CPU usage is high (85.5%), consider scaling",
			},
		},
		{
			name: "elevated memory",
			containers: map[string]*ContainerStats{
				"forge-cache": {State: "running", MemoryPercent: 65},
			},
			want: []string{"forge-cache memory usage is elevated (65%), monitor closely"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommendations(tt.containers))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5m", formatDuration(5*time.Minute))
	assert.Equal(t, "2h 10m", formatDuration(2*time.Hour+10*time.Minute))
	assert.Equal(t, "3d 4h 0m", formatDuration(76*time.Hour))
}
