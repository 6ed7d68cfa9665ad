package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/graph"
	"github.com/vk/circuitgo/internal/snapshot"
)

// loadGraph reads the graph file and builds the store. Elements that cannot
// be restored are logged and skipped. A missing file is an empty graph when
// serving, so a new graph can be drawn and saved.
func (a *App) loadGraph(ctx context.Context) (*graph.Store, error) {
	logger := ctxlog.FromContext(ctx)
	path := a.config.GraphPath
	logger.Debug("Loading graph...", "path", path)

	snap, err := snapshot.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && a.config.ListenPort > 0 {
			logger.Info("Graph file not found, starting with an empty graph.", "path", path)
			snap = &snapshot.Snapshot{}
		} else {
			return nil, fmt.Errorf("failed to read graph: %w", err)
		}
	}

	store, err := graph.Load(ctx, a.registry, snap, flow.WithHooks(a.metrics))
	var loadErr *graph.LoadError
	switch {
	case errors.As(err, &loadErr):
		for _, e := range loadErr.Errs {
			logger.Warn("Graph element not restored.", "error", e)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	logger.Info("Graph loaded successfully.", "path", path, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return store, nil
}

// saveGraph writes the graph to the save path, if one is configured.
func (a *App) saveGraph(ctx context.Context, store *graph.Store) error {
	path := a.config.SavePath
	if path == "" {
		return nil
	}
	if err := snapshot.WriteFile(path, store.Serialize()); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Graph saved.", "path", path)
	return nil
}
