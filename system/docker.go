// Package system reports container inventory for the platform by talking
// to the Docker Engine API over its unix socket. It surfaces per-container
// resource usage plus simple operational recommendations derived from it.
package system

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gnishant95/forge/errors"
)

// DefaultSocketPath is the standard Docker Engine unix socket.
const DefaultSocketPath = "/var/run/docker.sock"

// ContainerStats describes one container's state and resource usage.
type ContainerStats struct {
	Name          string   `json:"name"`
	Status        string   `json:"status"`
	State         string   `json:"state"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryMB      float64  `json:"memory_mb"`
	MemoryLimitMB float64  `json:"memory_limit_mb"`
	MemoryPercent float64  `json:"memory_percent"`
	NetworkRxMB   float64  `json:"network_rx_mb"`
	NetworkTxMB   float64  `json:"network_tx_mb"`
	Uptime        string   `json:"uptime"`
	Endpoints     []string `json:"endpoints"`
	Image         string   `json:"image"`
}

// Info is the full inventory snapshot returned to API clients.
type Info struct {
	Timestamp       string                     `json:"timestamp"`
	Containers      map[string]*ContainerStats `json:"containers"`
	TotalContainers int                        `json:"total_containers"`
	RunningCount    int                        `json:"running_count"`
	Recommendations []string                   `json:"recommendations,omitempty"`
}

// Inventory queries the Docker Engine API for containers belonging to
// the platform, identified by a shared name prefix.
type Inventory struct {
	client  *http.Client
	baseURL string
	prefix  string
}

// NewInventory creates an Inventory that dials the Docker unix socket at
// socketPath and reports only containers whose name starts with prefix.
func NewInventory(socketPath, prefix string) *Inventory {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &Inventory{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
					return net.Dial("unix", socketPath)
				},
			},
			Timeout: 10 * time.Second,
		},
		baseURL: "http://docker",
		prefix:  prefix,
	}
}

// engineContainer mirrors the Docker API /containers/json entry shape.
type engineContainer struct {
	ID      string       `json:"Id"`
	Names   []string     `json:"Names"`
	Image   string       `json:"Image"`
	State   string       `json:"State"`
	Status  string       `json:"Status"`
	Created int64        `json:"Created"`
	Ports   []enginePort `json:"Ports"`
}

type enginePort struct {
	PrivatePort int    `json:"PrivatePort"`
	PublicPort  int    `json:"PublicPort"`
	Type        string `json:"Type"`
}

// engineStats mirrors the Docker API /containers/{id}/stats shape.
type engineStats struct {
	CPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemCPUUsage uint64 `json:"system_cpu_usage"`
		OnlineCPUs     int    `json:"online_cpus"`
	} `json:"cpu_stats"`
	PreCPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemCPUUsage uint64 `json:"system_cpu_usage"`
	} `json:"precpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Limit uint64 `json:"limit"`
	} `json:"memory_stats"`
	Networks map[string]struct {
		RxBytes uint64 `json:"rx_bytes"`
		TxBytes uint64 `json:"tx_bytes"`
	} `json:"networks"`
}

// Snapshot collects the current container inventory. Containers outside
// the configured prefix are ignored. Per-container stats failures degrade
// to zeroed usage rather than failing the whole snapshot.
func (inv *Inventory) Snapshot(ctx context.Context) (*Info, error) {
	info := &Info{
		Timestamp:  time.Now().Format(time.RFC3339),
		Containers: make(map[string]*ContainerStats),
	}

	containers, err := inv.listContainers(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "system", "Snapshot", "list containers")
	}

	for _, c := range containers {
		if len(c.Names) == 0 {
			continue
		}
		name := strings.TrimPrefix(c.Names[0], "/")
		if inv.prefix != "" && !strings.HasPrefix(name, inv.prefix) {
			continue
		}

		info.TotalContainers++

		stats := &ContainerStats{
			Name:   name,
			Status: c.Status,
			State:  c.State,
			Image:  c.Image,
			Uptime: formatDuration(time.Since(time.Unix(c.Created, 0))),
		}

		for _, port := range c.Ports {
			if port.PublicPort > 0 {
				stats.Endpoints = append(stats.Endpoints, fmt.Sprintf("localhost:%d", port.PublicPort))
			}
		}

		if c.State == "running" {
			info.RunningCount++
			if live, err := inv.containerStats(ctx, c.ID); err == nil {
				applyLiveStats(stats, live)
			}
		}

		info.Containers[name] = stats
	}

	info.Recommendations = recommendations(info.Containers)
	return info, nil
}

func applyLiveStats(stats *ContainerStats, live *engineStats) {
	cpuDelta := float64(live.CPUStats.CPUUsage.TotalUsage - live.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(live.CPUStats.SystemCPUUsage - live.PreCPUStats.SystemCPUUsage)
	if systemDelta > 0 && live.CPUStats.OnlineCPUs > 0 {
		stats.CPUPercent = (cpuDelta / systemDelta) * float64(live.CPUStats.OnlineCPUs) * 100
	}

	stats.MemoryMB = float64(live.MemoryStats.Usage) / 1024 / 1024
	stats.MemoryLimitMB = float64(live.MemoryStats.Limit) / 1024 / 1024
	if stats.MemoryLimitMB > 0 {
		stats.MemoryPercent = (stats.MemoryMB / stats.MemoryLimitMB) * 100
	}

	for _, n := range live.Networks {
		stats.NetworkRxMB += float64(n.RxBytes) / 1024 / 1024
		stats.NetworkTxMB += float64(n.TxBytes) / 1024 / 1024
	}
}

func (inv *Inventory) listContainers(ctx context.Context) ([]engineContainer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		inv.baseURL+"/containers/json?all=true", nil)
	if err != nil {
		return nil, err
	}

	resp, err := inv.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docker api returned %d", resp.StatusCode)
	}

	var containers []engineContainer
	if err := json.NewDecoder(resp.Body).Decode(&containers); err != nil {
		return nil, err
	}
	return containers, nil
}

func (inv *Inventory) containerStats(ctx context.Context, id string) (*engineStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/containers/%s/stats?stream=false", inv.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := inv.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docker api returned %d", resp.StatusCode)
	}

	var stats engineStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// recommendations derives operator hints from current container state.
// Output order is deterministic (sorted by container name).
func recommendations(containers map[string]*ContainerStats) []string {
	names := make([]string, 0, len(containers))
	for name := range containers {
		names = append(names, name)
	}
	sort.Strings(names)

	var recs []string
	for _, name := range names {
		stats := containers[name]
		if stats.State != "running" {
			recs = append(recs, fmt.Sprintf("%s is not running (state: %s)", name, stats.State))
			continue
		}

		if stats.MemoryPercent > 80 {
			recs = append(recs, fmt.Sprintf("%s memory usage is critical (%.0f%%), consider raising its limit", name, stats.MemoryPercent))
		} else if stats.MemoryPercent > 60 {
			recs = append(recs, fmt.Sprintf("%s memory usage is elevated (%.0f%%), monitor closely", name, stats.MemoryPercent))
		}

		if stats.CPUPercent > 80 {
			recs = append(recs, fmt.Sprintf("%s CPU usage is high (%.1f%%), consider scaling", name, stats.CPUPercent))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "all services are healthy")
	}
	return recs
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
