package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // hcl files or directories
	GraphPath   string   // resolved dependency graph, yaml

	// WorkDir overrides project.work_dir when set.
	WorkDir string
	// Tokens selects the tree drawing style: standard, whitespace or extended.
	Tokens      string
	PrintTree   bool
	NoIDE       bool
	SkipPublish bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if strings.TrimSpace(cfg.GraphPath) == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if _, ok := logLevels[cfg.LogLevel]; cfg.LogLevel != "" && !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	switch strings.ToLower(cfg.Tokens) {
	case "", "standard", "whitespace", "extended":
	default:
		return nil, fmt.Errorf("unknown tree tokens %q", cfg.Tokens)
	}
	return &cfg, nil
}
