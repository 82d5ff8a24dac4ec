package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescope-dev/codescope/internal/config"
	"github.com/codescope-dev/codescope/internal/output"
	"github.com/codescope-dev/codescope/internal/scanner"
	"github.com/codescope-dev/codescope/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	category      string
	caseSensitive bool
	format        string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search file contents in the project tree",
		Long: `Scan the project tree and search file contents for a substring,
printing each match with its surrounding lines.

Examples:
  codescope search "handleRequest"
  codescope search "todo" --type python
  codescope search "Error" --case-sensitive --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearchCmd(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.category, "type", "t", "", "Restrict to one file category (e.g. python, go)")
	cmd.Flags().BoolVar(&opts.caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearchCmd(cmd *cobra.Command, query string, opts searchOptions) error {
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

	engine := search.NewEngine(cfg.Root)
	results, err := engine.Search(cmd.Context(), snap, search.Options{
		Query:         query,
		Category:      opts.category,
		CaseSensitive: opts.caseSensitive,
	})
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.JSON(results)
	}

	if results.FilesMatched == 0 {
		out.Linef("No matches for %q in %d files", query, results.FilesSearched)
		return nil
	}

	out.Linef("Found matches in %d of %d files for %q:", results.FilesMatched, results.FilesSearched, query)
	out.Newline()
	for _, file := range results.Files {
		out.Linef("%s (%s)", file.Path, file.Category)
		for _, m := range file.Matches {
			out.Indent(fmt.Sprintf("%d: %s", m.LineNumber, m.Content))
		}
		out.Newline()
	}

	return nil
}
