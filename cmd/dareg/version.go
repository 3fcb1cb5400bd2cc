package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/dareg/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "dareg version: %s\n", version.Version)
		fmt.Fprintf(out, "Git commit: %s\n", version.Commit)
		fmt.Fprintf(out, "Build date: %s\n", version.Date)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	},
}
