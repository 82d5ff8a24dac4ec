// Package cmd provides the CLI commands for codescope.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codescope-dev/codescope/internal/logging"
	"github.com/codescope-dev/codescope/internal/profiling"
	"github.com/codescope-dev/codescope/pkg/version"
)

var (
	rootFlag  string
	debugMode bool

	profileCPU string
	profileMem string

	loggingCleanup func()
	cpuCleanup     func()
)

// NewRootCmd creates the root command for the codescope CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codescope",
		Short: "Queryable snapshot index of a source tree",
		Long: `codescope keeps a periodically refreshed snapshot of a source tree:
per-file fingerprints, aggregate statistics, persisted scan history,
and live content search, served over a local HTTP API.

Run 'codescope serve' in a project directory to get started.`,
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			// Bare invocation serves the current directory.
			return runServe(cmd.Context(), 0)
		},
	}

	cmd.SetVersionTemplate("codescope version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Project root to index")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.codescope/logs/")
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopLoggingAndProfiling

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLoggingAndProfiling installs the default logger when --debug is
// set and starts CPU profiling when requested. Without --debug,
// commands configure logging from their own config.
func startLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	if debugMode {
		cleanup, err := logging.SetupDefault("debug")
		if err != nil {
			return fmt.Errorf("failed to set up debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if profileCPU != "" {
		stop, err := profiling.StartCPU(profileCPU)
		if err != nil {
			return err
		}
		cpuCleanup = stop
	}

	return nil
}

func stopLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if profileMem != "" {
		if err := profiling.WriteHeap(profileMem); err != nil {
			return err
		}
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
