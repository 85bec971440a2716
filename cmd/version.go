package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-analyzer/config"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", config.App, version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
