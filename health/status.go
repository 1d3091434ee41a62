// Package health aggregates liveness of the gateway's dependent services
// into a single snapshot.
package health

// Service status values reported in a snapshot
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// ServiceStatus is the health of a single dependent service
type ServiceStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// IsHealthy returns true if the service status is healthy
func (s ServiceStatus) IsHealthy() bool {
	return s.Status == StatusHealthy
}

// Healthy creates a healthy service status
func Healthy() ServiceStatus {
	return ServiceStatus{Status: StatusHealthy}
}

// Unhealthy creates an unhealthy service status with a reason
func Unhealthy(message string) ServiceStatus {
	return ServiceStatus{Status: StatusUnhealthy, Message: message}
}

// Unknown creates an unknown service status, used for optional services
// that are absent or not probeable
func Unknown(message string) ServiceStatus {
	return ServiceStatus{Status: StatusUnknown, Message: message}
}

// Snapshot is the aggregated health of the platform at one point in time.
// OK is true iff every required service is healthy; optional services are
// reported but never gate OK. Snapshots are recomputed per query and not
// persisted.
type Snapshot struct {
	OK       bool                     `json:"ok"`
	Uptime   string                   `json:"uptime"`
	Services map[string]ServiceStatus `json:"services"`
}
