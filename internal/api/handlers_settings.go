package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/layername/internal/settings"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	vals, err := s.settings.All(r.Context())
	if err != nil {
		jsonError(w, "failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"settings":    settings.Redacted(vals),
		"has_api_key": vals[settings.KeyAPIKey] != "",
	})
}

// handlePutSettings stores every known key in the body. Unknown keys reject the
// whole request.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		jsonError(w, "invalid settings: "+err.Error(), http.StatusBadRequest)
		return
	}
	for k := range body {
		if !settings.IsKnown(k) {
			jsonError(w, "unknown setting: "+k, http.StatusBadRequest)
			return
		}
	}
	for k, v := range body {
		if err := s.settings.Set(r.Context(), k, strings.TrimSpace(v)); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	s.log.Info("settings updated", "keys", len(body))
	s.handleGetSettings(w, r)
}
