package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "limitscan %s\n", version.String())
	},
}
