package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/specialistvlad/plugasm/internal/publish"
)

// PublisherFactory creates the publisher for a configured publish block.
type PublisherFactory func(cfg config.Publish, project model.Coordinate) (publish.Publisher, error)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	model  *config.Model

	newPublisher PublisherFactory
}

// NewApp loads the configuration through loader, applies command line
// overrides and defaults, and validates the result.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	m, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.WorkDir != "" {
		workDir, err := filepath.Abs(cfg.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("invalid work dir %s: %w", cfg.WorkDir, err)
		}
		m.Project.WorkDir = workDir
	}
	if cfg.NoIDE {
		m.IDE.Disabled = true
	}
	if cfg.SkipPublish {
		m.Publish = nil
	}
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "project", m.Project.Coordinate.String())

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		model:  m,
		newPublisher: func(c config.Publish, project model.Coordinate) (publish.Publisher, error) {
			return publish.NewS3Publisher(c, project)
		},
	}, nil
}

// Model returns the effective configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// SetPublisherFactory replaces the S3 publisher. This is primarily for
// testing.
func (a *App) SetPublisherFactory(f PublisherFactory) {
	a.newPublisher = f
}
