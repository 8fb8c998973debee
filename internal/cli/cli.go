package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/plugasm/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const long = `plugasm - assembles TeamCity server and agent plugin packages.

It selects dependencies from a resolved dependency graph, lays out the
plugin directories, generates missing plugin descriptors, packs the zip
archives and writes IDE artifact descriptors for them.

CONFIG_PATH is a single .hcl file or a directory containing .hcl files.`

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		config      *app.Config
		configPaths []string
		graphPath   string
		workDir     string
		tokens      string
		printTree   bool
		noIDE       bool
		skipPublish bool
		logFormat   string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "plugasm [options] [CONFIG_PATH...]",
		Short:         "Assemble TeamCity plugin packages",
		Long:          long,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			paths := joinPaths(configPaths, positional)
			if len(paths) == 0 {
				slog.Debug("No configuration path provided, printing usage and exiting.")
				return cmd.Help()
			}

			logFormat = strings.ToLower(logFormat)
			logLevel = strings.ToLower(logLevel)
			cfg, err := app.NewConfig(app.Config{
				ConfigPaths: paths,
				GraphPath:   graphPath,
				WorkDir:     workDir,
				Tokens:      tokens,
				PrintTree:   printTree,
				NoIDE:       noIDE,
				SkipPublish: skipPublish,
				LogFormat:   logFormat,
				LogLevel:    logLevel,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			config = cfg
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringSliceVarP(&configPaths, "config", "c", nil, "Path to a configuration file or directory. Repeatable.")
	flags.StringVarP(&graphPath, "graph", "g", "", "Path to the resolved dependency graph (yaml).")
	flags.StringVar(&workDir, "work-dir", "", "Overrides project.work_dir.")
	flags.StringVar(&tokens, "tokens", "standard", "Tree drawing style. Options: 'standard', 'whitespace', 'extended'.")
	flags.BoolVar(&printTree, "print-tree", false, "Print the dependency tree before assembling.")
	flags.BoolVar(&noIDE, "no-ide", false, "Do not write IDE artifact descriptors.")
	flags.BoolVar(&skipPublish, "skip-publish", false, "Do not upload archives even when publishing is configured.")
	flags.StringVar(&logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := cmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config_paths", config.ConfigPaths, "graph", config.GraphPath)
	return config, false, nil
}

// joinPaths returns the flag paths followed by the positional ones in a
// new slice.
func joinPaths(flagged, positional []string) []string {
	paths := make([]string, 0, len(flagged)+len(positional))
	paths = append(paths, flagged...)
	return append(paths, positional...)
}
