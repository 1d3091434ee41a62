package gateway

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/gnishant95/forge/configstore"
	"github.com/gnishant95/forge/reload"
)

type routeListResponse struct {
	Routes []configstore.Route `json:"routes"`
	Count  int                 `json:"count"`
}

type routeMutationResponse struct {
	OK      bool               `json:"ok"`
	Route   *configstore.Route `json:"route,omitempty"`
	Deleted string             `json:"deleted,omitempty"`
	Message string             `json:"message,omitempty"`
	Warning string             `json:"warning,omitempty"`
}

func (s *Server) listRoutes(w http.ResponseWriter, _ *http.Request) {
	routes := s.routes.List()
	writeJSON(w, http.StatusOK, routeListResponse{Routes: routes, Count: len(routes)})
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	route, ok := s.routes.Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "route not found")
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// decodeBody decodes a JSON request body into dst, distinguishing
// oversized payloads (413) from malformed ones (400). It returns false
// after writing the error response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) upsertRoute(w http.ResponseWriter, r *http.Request) {
	var route configstore.Route
	if !decodeBody(w, r, &route) {
		return
	}

	if err := route.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	route = route.Normalize()

	if _, _, err := s.routes.Upsert(route); err != nil {
		s.log.Error("route upsert failed", "name", route.Name, "error", err)
		writeError(w, statusFor(err), "failed to save route")
		return
	}

	outcome := s.applyReload(r, reload.KindRoutes)

	resp := routeMutationResponse{
		OK:      true,
		Route:   &route,
		Message: "route saved and proxy reloaded",
	}
	if !outcome.ReloadOK {
		resp.Message = "route saved"
		resp.Warning = outcome.Message
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteRoute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.routes.Delete(name); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	outcome := s.applyReload(r, reload.KindRoutes)

	resp := routeMutationResponse{OK: true, Deleted: name}
	if !outcome.ReloadOK {
		resp.Warning = outcome.Message
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reloadRoutes(w http.ResponseWriter, r *http.Request) {
	outcome := s.manualReload(r, reload.KindRoutes)
	if !outcome.ReloadOK {
		writeError(w, http.StatusInternalServerError, "reload failed: "+outcome.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// applyReload triggers regeneration after a durable store mutation. The
// outcome never fails the request; a reload failure becomes a warning.
func (s *Server) applyReload(r *http.Request, kind reload.Kind) reload.Outcome {
	outcome := s.coordinator.Apply(r.Context(), kind)
	s.recordReload(kind, outcome)
	if !outcome.ReloadOK {
		s.log.Warn("reload failed after durable write", "kind", kind, "message", outcome.Message)
	}
	return outcome
}

func (s *Server) manualReload(r *http.Request, kind reload.Kind) reload.Outcome {
	outcome := s.coordinator.Reload(r.Context(), kind)
	s.recordReload(kind, outcome)
	return outcome
}

func (s *Server) recordReload(kind reload.Kind, outcome reload.Outcome) {
	if s.registry != nil {
		s.registry.CoreMetrics().RecordReload(string(kind), outcome.ReloadOK)
	}
}
