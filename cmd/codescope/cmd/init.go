package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codescope-dev/codescope/configs"
	"github.com/codescope-dev/codescope/internal/config"
	"github.com/codescope-dev/codescope/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a commented ` + config.ConfigFileName + ` template into the project
root. Existing files are left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	path := filepath.Join(root, config.ConfigFileName)

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out.Linef("Wrote %s", path)
	out.Indent("Edit it, then run 'codescope serve'.")
	return nil
}
