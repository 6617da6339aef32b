// Package cli defines the command-line interface for meshstack.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/logging"
)

const (
	// defaultDir is the default project root.
	defaultDir = "."
)

// Options stores global CLI options shared between commands.
type Options struct {
	Dir      string
	LogLevel logging.Level
	Settings config.Settings

	// exec overrides the process executor; tests inject a recorder here.
	exec executor.Executor
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	return ExecuteWith(args, os.Stdout, os.Stderr, nil, logger)
}

// ExecuteWith runs the CLI with explicit output streams and executor. A nil
// executor spawns real processes.
func ExecuteWith(args []string, out, errOut io.Writer, exec executor.Executor, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(errOut, logging.LevelInfo)
	}

	rootOpts := &Options{
		Dir:      defaultDir,
		LogLevel: logging.LevelInfo,
		exec:     exec,
	}

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	return rootCmd.ExecuteContext(context.WithValue(context.Background(), loggerKey{}, logger))
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "meshstack",
		Short:         "meshstack drives helm, docker and kubectl for service-mesh projects",
		Long:          "meshstack scaffolds service-mesh application projects and installs, deploys, updates and tears down their infrastructure by driving helm, docker, kubectl and a local cluster provisioner.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings(opts.Dir)
			if err != nil {
				return err
			}
			opts.Settings = settings

			raw := settings.LogLevel
			if f := cmd.Flag("log-level"); f != nil && f.Changed {
				raw = f.Value.String()
			}
			level := logging.ParseLevel(raw)
			opts.LogLevel = level
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level, "dir", opts.Dir)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Dir, "dir", "C", defaultDir, "Project root directory")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newInitCommand(opts),
		newNewCommand(opts),
		newInstallCommand(opts, false),
		newValidateCommand(opts),
		newDeployCommand(opts, false),
		newDestroyCommand(opts, false),
		newUpdateCommand(opts, false),
		newStatusCommand(opts, false),
		newBootstrapCommand(opts, false),
		newGenerateCommand(opts),
		newPlanCommand(opts),
		newDoctorCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
