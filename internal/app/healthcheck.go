package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/circuitgo/internal/bridge"
	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/graph"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// healthHandler reports that the process is up.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// handler routes /health, /metrics and the UI bridge.
func (a *App) handler(b *bridge.Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	if b != nil {
		mux.Handle(bridge.Path, b.Handler())
	}
	return mux
}

// serve runs the HTTP server until ctx is done, then shuts it down.
func (a *App) serve(ctx context.Context, store *graph.Store) error {
	addr := fmt.Sprintf(":%d", a.config.ListenPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return a.serveListener(ctx, store, ln)
}

func (a *App) serveListener(ctx context.Context, store *graph.Store, ln net.Listener) error {
	logger := ctxlog.FromContext(ctx)
	b := bridge.NewServer(ctx, store, a.registry, a.metrics)
	a.httpServer = &http.Server{
		Handler:           a.handler(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🩺 Server starting", "address", ln.Addr().String(), "health", "/health", "metrics", "/metrics", "bridge", bridge.Path)
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed unexpectedly: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🏁 Shutting down server...")
		b.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
			return err
		}
		logger.Debug("Server shut down gracefully.")
		return nil
	})
	return g.Wait()
}
