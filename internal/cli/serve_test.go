package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dgallion1/layername/internal/config"
	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestShutdownDrainsHandlersBeforeStoppingPipeline(t *testing.T) {
	log := newLogger(io.Discard)
	worker := pipeline.NewWorker(pipeline.WorkerDeps{Log: log})
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, RunTTL: time.Hour}
	orch := pipeline.NewOrchestrator(cfg, worker, nil, nil, log)

	entered := make(chan struct{})
	shuttingDown := make(chan struct{})
	submitted := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-shuttingDown
		_, err := orch.Submit("doc-1", host.NewMemory(&layertree.Document{ID: "doc-1"}), pipeline.Options{})
		submitted <- err
	})}
	srv.RegisterOnShutdown(func() { close(shuttingDown) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)
	go func() {
		if resp, err := http.Get("http://" + ln.Addr().String()); err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx, srv, orch))

	select {
	case err := <-submitted:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight submit did not complete")
	}
}
