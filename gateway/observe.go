package gateway

import "net/http"

type logIngestRequest struct {
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Labels  map[string]string `json:"labels"`
}

func (s *Server) ingestLog(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeError(w, http.StatusServiceUnavailable, "log backend not configured")
		return
	}

	var req logIngestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := s.logs.Push(r.Context(), req.Level, req.Message, req.Labels); err != nil {
		s.log.Error("log push failed", "error", err)
		writeError(w, statusFor(err), "log push failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Metrics are collected by scraping, so push ingestion just acknowledges.
func (s *Server) ingestMetric(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string            `json:"name"`
		Value float64           `json:"value"`
		Type  string            `json:"type"`
		Tags  map[string]string `json:"tags"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type traceIngestRequest struct {
	TraceID string            `json:"trace_id"`
	SpanID  string            `json:"span_id"`
	Name    string            `json:"name"`
	Tags    map[string]string `json:"tags"`
}

type traceIngestResponse struct {
	OK      bool   `json:"ok"`
	TraceID string `json:"trace_id"`
	SpanID  string `json:"span_id"`
}

func (s *Server) ingestTrace(w http.ResponseWriter, r *http.Request) {
	var req traceIngestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, traceIngestResponse{OK: true, TraceID: req.TraceID, SpanID: req.SpanID})
}
