package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/graph"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Run executes the main application logic based on the app's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	store, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if a.config.ListenPort > 0 {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = a.serve(ctx, store)
	} else {
		err = a.evaluate(ctx, store)
	}
	if err != nil {
		return err
	}

	if err := a.saveGraph(ctx, store); err != nil {
		return err
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// evaluate waits for async derivations to settle and prints every output.
func (a *App) evaluate(ctx context.Context, store *graph.Store) error {
	nodes := store.Nodes()
	if len(nodes) == 0 {
		a.logger.Warn("No nodes found in graph, evaluation not required.")
		return nil
	}

	a.logger.Info("🚀 Evaluating graph...", "nodes", len(nodes))
	if err := store.Wait(ctx); err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}

	for _, n := range nodes {
		names := make([]string, 0, len(n.Outputs()))
		for _, out := range n.Outputs() {
			names = append(names, out.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			v, err := store.Value(graph.PortRef{Node: n.ID(), Direction: flow.Out, Port: name})
			fmt.Fprintf(a.outW, "%s.%s = %s\n", n.ID(), name, formatValue(v, err))
		}
	}
	a.logger.Info("🏁 Evaluation finished.")
	return nil
}

func formatValue(v cty.Value, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case v == cty.NilVal:
		return "unset"
	}
	b, jsonErr := json.Marshal(schema.ToNative(v))
	if jsonErr != nil {
		return fmt.Sprintf("%v", schema.ToNative(v))
	}
	return string(b)
}
