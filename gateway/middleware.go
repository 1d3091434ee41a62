package gateway

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// statusWriter captures the response status code for metrics and logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// requestID ensures every request carries an X-Request-ID, honoring one
// supplied by the caller so IDs propagate across services.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// instrument records request metrics and logs each request. Health and
// metrics polling is excluded from logs to keep them readable.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if s.registry != nil {
			s.registry.CoreMetrics().HTTPInFlight.Inc()
			defer s.registry.CoreMetrics().HTTPInFlight.Dec()
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)

		if s.registry != nil {
			s.registry.CoreMetrics().RecordHTTPRequest(
				r.Method, normalizeEndpoint(r.URL.Path), strconv.Itoa(sw.status), duration)
		}

		if !isNoisyPath(r.URL.Path) {
			s.log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", duration.Milliseconds(),
				"request_id", r.Header.Get("X-Request-ID"),
			)
		}
	})
}

// normalizeEndpoint collapses dynamic path segments so metric label
// cardinality stays bounded.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			parts[i] = ":id"
			continue
		}
		if _, err := strconv.Atoi(part); err == nil && part != "" {
			parts[i] = ":id"
		}
	}
	path = strings.Join(parts, "/")

	// Record names and cache keys are unbounded too.
	for _, prefix := range []string{"/api/v1/routes/", "/api/v1/logs/sources/", "/api/v1/cache/"} {
		if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" && rest != "reload" && rest != "info" {
			return prefix + ":name"
		}
	}
	return path
}

func isNoisyPath(path string) bool {
	return path == "/metrics" || path == "/api/v1/health" || path == "/api/v1/info"
}
