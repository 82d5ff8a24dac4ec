package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/codescope-dev/codescope/internal/output"
	"github.com/codescope-dev/codescope/pkg/version"
)

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				return output.New(cmd.OutOrStdout()).JSON(map[string]string{
					"version":    version.Version,
					"commit":     version.Commit,
					"go_version": runtime.Version(),
					"platform":   runtime.GOOS + "/" + runtime.GOARCH,
				})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "codescope %s (%s)\n", version.Version, version.Commit)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}
