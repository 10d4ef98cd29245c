package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/layername/internal/config"
	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/uichannel"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("run queue is full")
	ErrRunActive = errors.New("document already has an active run")
)

// Orchestrator queues rename runs and hands them to a pool of workers.
type Orchestrator struct {
	runs     *RunStore
	queue    chan *Run
	worker   *Worker
	hub      *uichannel.Hub
	cooldown *Cooldown
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, worker *Worker, hub *uichannel.Hub, cooldown *Cooldown, log *slog.Logger) *Orchestrator {
	if cooldown == nil {
		cooldown = NewCooldown(TransportCooldown)
	}
	return &Orchestrator{
		runs:     NewRunStore(cfg.RunTTL),
		queue:    make(chan *Run, cfg.MaxQueueSize),
		worker:   worker,
		hub:      hub,
		cooldown: cooldown,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines and the run store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	g, gctx := errgroup.WithContext(workerCtx)
	o.group = g

	for range max(o.cfg.WorkerCount, 1) {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case run, ok := <-o.queue:
					if !ok {
						return nil
					}
					o.worker.Process(gctx, run)
				}
			}
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				o.Cleanup()
			}
		}
	})
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	if o.group != nil {
		_ = o.group.Wait()
	}
}

// Cleanup evicts expired runs and their message history.
func (o *Orchestrator) Cleanup() {
	for _, id := range o.runs.Cleanup() {
		if o.hub != nil {
			o.hub.Forget(id)
		}
	}
}

// Submit queues a rename run for a document.
func (o *Orchestrator) Submit(docID string, provider host.Provider, opts Options) (*Run, error) {
	if left := o.cooldown.Remaining(docID); left > 0 {
		return nil, fmt.Errorf("%w: retry in %s", ErrCoolingDown, left.Round(100*time.Millisecond))
	}
	run := NewRun(docID, provider, opts)
	if active, ok := o.runs.PutIfNoActive(run); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunActive, active.ID)
	}
	if o.hub != nil {
		o.hub.Publish(uichannel.Message{Type: uichannel.TypeInit, RunID: run.ID})
	}
	select {
	case o.queue <- run:
		o.log.Info("run queued", "run_id", run.ID, "doc_id", docID, "format", run.Options.Form, "vision", run.Options.UseVision)
		return run, nil
	default:
		run.Fail("internal", "queue_full")
		if o.hub != nil {
			o.hub.Publish(uichannel.Message{Type: uichannel.TypeError, RunID: run.ID, Code: "internal", Message: "queue full"})
		}
		return nil, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Hub returns the message hub runs publish to.
func (o *Orchestrator) Hub() *uichannel.Hub {
	return o.hub
}
