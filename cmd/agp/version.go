package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agp version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("agp %s\n", Version)
	},
}
