package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gnishant95/forge/health"
)

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.health.Snapshot(r.Context())
	s.recordServiceGauges(snapshot)
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) recordServiceGauges(snapshot health.Snapshot) {
	if s.registry == nil {
		return
	}
	for name, svc := range snapshot.Services {
		s.registry.CoreMetrics().RecordServiceUp(name, svc.IsHealthy())
	}
}

// infoResponse is the composite the info endpoint serves: version plus
// the most recent health snapshot fields.
type infoResponse struct {
	Version  string                          `json:"version"`
	OK       bool                            `json:"ok"`
	Uptime   string                          `json:"uptime"`
	Services map[string]health.ServiceStatus `json:"services"`
}

// infoCache holds the last computed info composite so frequent pollers
// don't re-probe every backend on each request.
type infoCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	fetchedAt time.Time
	cached    *infoResponse
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	s.infoCache.mu.Lock()
	if !refresh && s.infoCache.cached != nil && time.Since(s.infoCache.fetchedAt) < s.infoCache.ttl {
		resp := *s.infoCache.cached
		s.infoCache.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	s.infoCache.mu.Unlock()

	snapshot := s.health.Snapshot(r.Context())
	s.recordServiceGauges(snapshot)

	resp := infoResponse{
		Version:  s.version,
		OK:       snapshot.OK,
		Uptime:   snapshot.Uptime,
		Services: snapshot.Services,
	}

	s.infoCache.mu.Lock()
	s.infoCache.cached = &resp
	s.infoCache.fetchedAt = time.Now()
	s.infoCache.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSystem(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		writeError(w, http.StatusServiceUnavailable, "container inventory not configured")
		return
	}

	info, err := s.inventory.Snapshot(r.Context())
	if err != nil {
		s.log.Error("container inventory failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get system info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
