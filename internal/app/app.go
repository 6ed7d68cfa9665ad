package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/metrics"
	"github.com/vk/circuitgo/internal/registry"

	// Registers the .hcl snapshot codec.
	_ "github.com/vk/circuitgo/internal/hcl"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// metrics. Without modules the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:    outW,
		logger:  logger,
		ctx:     ctx,
		config:  cfg,
		metrics: metrics.New(),
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = a.coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", len(reg.Kinds()))

	// Validate the integrity of the registry.
	if err := reg.ValidateRegistry(ctx); err != nil {
		// This is a programmer error in a module, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	a.registry = reg
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}
