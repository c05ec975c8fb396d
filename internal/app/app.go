package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/jsonform/form"
	"github.com/vk/jsonform/inmemorystate"
	"github.com/vk/jsonform/internal/ctxlog"
	"github.com/vk/jsonform/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	state    *inmemorystate.Store
	store    *form.Store
}

// NewApp is the constructor for the main application. The resolved tree is
// written to outW, logs go to logW. scopes are merged over the built-in
// validator configuration.
func NewApp(outW, logW io.Writer, cfg *Config, scopes ...registry.Config) (*App, error) {
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg, err := registry.New(scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	reg.Check(ctx)
	logger.Debug("Registry built.", "validators", reg.ValidatorNames())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
	}, nil
}

// Store returns the form store after Run. This is primarily for testing.
func (a *App) Store() *form.Store {
	return a.store
}

// State returns the value provider after Run. This is primarily for testing.
func (a *App) State() *inmemorystate.Store {
	return a.state
}
