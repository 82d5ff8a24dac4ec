// Package main provides the entry point for the codescope CLI.
package main

import (
	"os"

	"github.com/codescope-dev/codescope/cmd/codescope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
