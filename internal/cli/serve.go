package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/layername/internal/api"
	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/llm"
	"github.com/dgallion1/layername/internal/pipeline"
	"github.com/dgallion1/layername/internal/settings"
	"github.com/dgallion1/layername/internal/uichannel"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger(os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := settings.OpenSQLite(cfg.SettingsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := host.NewRegistry(cfg.DocumentCacheSize)
	if err != nil {
		return err
	}

	// Initialize pipeline.
	hub := uichannel.NewHub()
	stats := llm.NewLLMStats(time.Hour)
	cooldown := pipeline.NewCooldown(pipeline.TransportCooldown)
	worker := pipeline.NewWorker(pipeline.WorkerDeps{
		Defaults: pipeline.DefaultsFromConfig(cfg),
		Settings: store,
		Sink:     hub,
		Stats:    stats,
		Cooldown: cooldown,
		Open:     openCompleter,
		Log:      log,
	})
	orch := pipeline.NewOrchestrator(cfg, worker, hub, cooldown, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, docs, store, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		shutdown(shutdownCtx, httpServer, orch)
	}()

	log.Info("starting layername", "port", cfg.Port, "provider", cfg.Provider, "model", cfg.Model)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		return err
	}
	return nil
}

// shutdown drains HTTP handlers before stopping the pipeline so no handler
// submits to a closed run queue.
func shutdown(ctx context.Context, httpServer *http.Server, orch *pipeline.Orchestrator) error {
	err := httpServer.Shutdown(ctx)
	orch.Stop()
	return err
}
