package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/layername/internal/config"
	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/llm"
	"github.com/dgallion1/layername/internal/pipeline"
	"github.com/dgallion1/layername/internal/settings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for layername.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	docs         *host.Registry
	settings     settings.Store
	stats        *llm.LLMStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, docs *host.Registry, store settings.Store, stats *llm.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		docs:         docs,
		settings:     store,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Put("/api/documents/{docID}/selection", s.handleSelect)
		r.Post("/api/documents/{docID}/rename", s.handleRename)

		r.Get("/api/runs/{runID}/status", s.handleRunStatus)
		r.Get("/api/runs/{runID}/events", s.handleRunEvents)

		r.Get("/api/settings", s.handleGetSettings)
		r.Put("/api/settings", s.handlePutSettings)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
