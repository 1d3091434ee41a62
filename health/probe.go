package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Probe checks liveness of a single dependency. A nil error means healthy.
type Probe func(ctx context.Context) error

// ServiceProbe is one entry in the fixed dependency table. Required
// services gate the aggregate OK; optional (observability) services are
// reported but non-gating.
type ServiceProbe struct {
	Name     string
	Required bool
	Probe    Probe
}

// Pinger is anything exposing a connection liveness check. The cache and
// db clients satisfy this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingProbe probes a backing-store client. A nil client reports
// "not configured" as the failure.
func PingProbe(p Pinger) Probe {
	return func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("not configured")
		}
		return p.Ping(ctx)
	}
}

// HTTPProbe probes a service by GET; any 2xx counts as healthy
func HTTPProbe(url string) Probe {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		return nil
	}
}

// DefaultProbeTimeout bounds each individual probe
const DefaultProbeTimeout = 2 * time.Second
