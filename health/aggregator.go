package health

import (
	"context"
	"sync"
	"time"
)

// Aggregator produces health snapshots on demand by probing the fixed
// dependency table. It holds no mutable state beyond the process start
// timestamp, captured once at construction.
type Aggregator struct {
	startTime time.Time
	probes    []ServiceProbe
	timeout   time.Duration
}

// NewAggregator creates an aggregator over the given probe table.
// startTime is the process start timestamp used for uptime reporting.
func NewAggregator(startTime time.Time, probes []ServiceProbe, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Aggregator{
		startTime: startTime,
		probes:    probes,
		timeout:   timeout,
	}
}

// Snapshot probes every dependency and aggregates the results. The "api"
// entry is always present and always healthy: a snapshot only exists
// because the process answering is alive. OK is the AND over required
// services only.
func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	services := make(map[string]ServiceStatus, len(a.probes)+1)
	services["api"] = Healthy()

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, sp := range a.probes {
		wg.Add(1)
		go func(sp ServiceProbe) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			var status ServiceStatus
			switch err := sp.Probe(probeCtx); {
			case err == nil:
				status = Healthy()
			case sp.Required:
				status = Unhealthy(err.Error())
			default:
				// Optional services degrade to unknown rather than
				// flipping overall health
				status = Unknown(err.Error())
			}

			mu.Lock()
			services[sp.Name] = status
			mu.Unlock()
		}(sp)
	}
	wg.Wait()

	ok := true
	for _, sp := range a.probes {
		if sp.Required && !services[sp.Name].IsHealthy() {
			ok = false
			break
		}
	}

	return Snapshot{
		OK:       ok,
		Uptime:   time.Since(a.startTime).Round(time.Second).String(),
		Services: services,
	}
}

// Uptime returns the elapsed time since process start
func (a *Aggregator) Uptime() time.Duration {
	return time.Since(a.startTime)
}
