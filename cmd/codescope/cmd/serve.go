package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codescope-dev/codescope/internal/config"
	"github.com/codescope-dev/codescope/internal/gitinfo"
	"github.com/codescope-dev/codescope/internal/history"
	"github.com/codescope-dev/codescope/internal/index"
	"github.com/codescope-dev/codescope/internal/lockfile"
	"github.com/codescope-dev/codescope/internal/logging"
	"github.com/codescope-dev/codescope/internal/scanner"
	"github.com/codescope-dev/codescope/internal/search"
	"github.com/codescope-dev/codescope/internal/server"
	"github.com/codescope-dev/codescope/internal/snapshot"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the snapshot engine and HTTP API",
		Long: `Scan the project tree, then serve the snapshot API while rescanning
periodically in the background.

Examples:
  codescope serve
  codescope serve --root ~/src/myproject --port 8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Logging.Level
		if cfg.Logging.File != "" {
			logCfg.FilePath = cfg.Logging.File
		}
		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer cleanup()
		slog.SetDefault(logger)
	}

	// One engine per project tree.
	lock := lockfile.New(cfg.StateDir())
	acquired, err := lock.TryAcquire()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("another codescope instance is already serving %s", cfg.Root)
	}
	defer func() { _ = lock.Release() }()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sc, err := scanner.New(scanner.Options{
		Root:        cfg.Root,
		IgnoreDirs:  cfg.Scan.IgnoreDirs,
		MaxFileSize: cfg.MaxFileSize(),
		Workers:     cfg.Scan.Workers,
	})
	if err != nil {
		return err
	}

	git := gitinfo.New(cfg.Root)
	coord := index.NewCoordinator(sc, snapshot.NewCache(), store, git)
	sched := index.NewScheduler(coord, cfg.ScanInterval())
	srv := server.New(cfg, coord, search.NewEngine(cfg.Root), store, git)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Populate the cache before accepting traffic; a failed first scan
	// is not fatal, readers will retry via bootstrap.
	if _, err := coord.Rescan(ctx); err != nil {
		slog.Error("initial_scan_failed", slog.String("error", err.Error()))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("serve_started",
		slog.Int("port", cfg.Server.Port),
		slog.String("root", cfg.Root),
		slog.Duration("scan_interval", cfg.ScanInterval()))

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("serve_stopped")
	return nil
}
