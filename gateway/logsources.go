package gateway

import (
	"net/http"

	"github.com/gnishant95/forge/configstore"
	"github.com/gnishant95/forge/reload"
)

type sourceListResponse struct {
	Sources []configstore.LogSource `json:"sources"`
	Count   int                     `json:"count"`
}

type sourceMutationResponse struct {
	OK      bool                   `json:"ok"`
	Source  *configstore.LogSource `json:"source,omitempty"`
	Deleted string                 `json:"deleted,omitempty"`
	Warning string                 `json:"warning,omitempty"`
}

func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	sources := s.sources.List()
	writeJSON(w, http.StatusOK, sourceListResponse{Sources: sources, Count: len(sources)})
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	source, ok := s.sources.Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (s *Server) upsertSource(w http.ResponseWriter, r *http.Request) {
	var source configstore.LogSource
	if !decodeBody(w, r, &source) {
		return
	}

	if err := source.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source = source.Normalize()

	if _, _, err := s.sources.Upsert(source); err != nil {
		s.log.Error("log source upsert failed", "name", source.Name, "error", err)
		writeError(w, statusFor(err), "failed to save source")
		return
	}

	outcome := s.applyReload(r, reload.KindLogSources)

	resp := sourceMutationResponse{OK: true, Source: &source}
	if !outcome.ReloadOK {
		resp.Warning = "config saved but shipper reload failed: " + outcome.Message
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteSource(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.sources.Delete(name); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	outcome := s.applyReload(r, reload.KindLogSources)

	resp := sourceMutationResponse{OK: true, Deleted: name}
	if !outcome.ReloadOK {
		resp.Warning = "shipper reload failed: " + outcome.Message
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reloadSources(w http.ResponseWriter, r *http.Request) {
	outcome := s.manualReload(r, reload.KindLogSources)
	if !outcome.ReloadOK {
		writeError(w, http.StatusInternalServerError, "reload failed: "+outcome.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
