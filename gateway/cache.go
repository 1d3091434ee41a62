package gateway

import (
	"fmt"
	"net/http"
	"time"
)

type cacheGetResponse struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

func (s *Server) cacheGet(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not configured")
		return
	}

	start := time.Now()
	value, found, err := s.cache.Get(r.Context(), r.PathValue("key"))
	s.recordCacheOp("get", start)
	if err != nil {
		writeError(w, statusFor(err), "cache get failed")
		return
	}
	writeJSON(w, http.StatusOK, cacheGetResponse{Value: value, Found: found})
}

func (s *Server) cacheSet(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not configured")
		return
	}

	var body struct {
		Value string `json:"value"`
		TTL   int64  `json:"ttl"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	start := time.Now()
	err := s.cache.Set(r.Context(), r.PathValue("key"), body.Value, time.Duration(body.TTL)*time.Second)
	s.recordCacheOp("set", start)
	if err != nil {
		writeError(w, statusFor(err), "cache set failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) cacheDelete(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not configured")
		return
	}

	start := time.Now()
	deleted, err := s.cache.Delete(r.Context(), r.PathValue("key"))
	s.recordCacheOp("delete", start)
	if err != nil {
		writeError(w, statusFor(err), "cache delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

type cacheInfoResponse struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	URL  string `json:"url"`
}

// cacheInfo reports the coordinates SDK clients outside the container
// network use to reach the cache directly.
func (s *Server) cacheInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, cacheInfoResponse{
		Host: s.backends.ExternalHost,
		Port: s.backends.RedisPort,
		URL:  fmt.Sprintf("redis://%s:%d", s.backends.ExternalHost, s.backends.RedisPort),
	})
}

func (s *Server) recordCacheOp(op string, start time.Time) {
	if s.registry != nil {
		s.registry.CoreMetrics().RecordCacheOp(op, time.Since(start))
	}
}
