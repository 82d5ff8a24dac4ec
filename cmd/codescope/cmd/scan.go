package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/codescope-dev/codescope/internal/config"
	"github.com/codescope-dev/codescope/internal/output"
	"github.com/codescope-dev/codescope/internal/scanner"
	"github.com/codescope-dev/codescope/internal/stats"
)

func newScanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the snapshot summary",
		Long: `Scan the project tree once and print file counts, line totals, and
the category and size breakdowns. Nothing is persisted.

Examples:
  codescope scan
  codescope scan --root ~/src/myproject --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full snapshot as JSON")

	return cmd
}

func runScan(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return err
	}

	sc, err := scanner.New(scanner.Options{
		Root:        cfg.Root,
		IgnoreDirs:  cfg.Scan.IgnoreDirs,
		MaxFileSize: cfg.MaxFileSize(),
		Workers:     cfg.Scan.Workers,
	})
	if err != nil {
		return err
	}

	snap, err := sc.Scan(cmd.Context())
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		return out.JSON(snap)
	}

	out.Linef("Scanned %s", cfg.Root)
	out.Field("files", snap.FileCount)
	out.Field("lines", snap.TotalLines)
	out.Newline()

	out.Line("Categories:")
	categories := make([]string, 0, len(snap.Categories))
	for c := range snap.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		out.Field(c, snap.Categories[c])
	}
	out.Newline()

	dist := stats.Distribution(snap)
	out.Line("Size distribution:")
	out.Field("tiny", dist.Tiny)
	out.Field("small", dist.Small)
	out.Field("medium", dist.Medium)
	out.Field("large", dist.Large)
	out.Field("huge", dist.Huge)

	return nil
}
