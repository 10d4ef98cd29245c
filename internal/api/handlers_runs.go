package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/layername/internal/names"
	"github.com/dgallion1/layername/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type renameRequest struct {
	Format  string `json:"format"`
	Vision  *bool  `json:"vision"`
	Context string `json:"context"`
	Model   string `json:"model"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	mem, ok := s.document(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid rename request: "+err.Error(), http.StatusBadRequest)
		return
	}
	format := req.Format
	if format == "" {
		format = s.cfg.ResponseFormat
	}
	form, err := names.ParseForm(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	vision := s.cfg.UseVision
	if req.Vision != nil {
		vision = *req.Vision
	}

	run, err := s.orchestrator.Submit(mem.ID(), mem, pipeline.Options{
		Form:      form,
		UseVision: vision,
		Context:   req.Context,
		Model:     req.Model,
	})
	switch {
	case errors.Is(err, pipeline.ErrCoolingDown):
		jsonError(w, err.Error(), http.StatusTooManyRequests)
		return
	case errors.Is(err, pipeline.ErrRunActive):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := run.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":     snap.ID,
		"doc_id":     snap.DocID,
		"state":      snap.State,
		"poll_url":   fmt.Sprintf("/api/runs/%s/status", snap.ID),
		"events_url": fmt.Sprintf("/api/runs/%s/events", snap.ID),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.orchestrator.GetRun(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}
