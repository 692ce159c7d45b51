package main

import (
	"fmt"

	"github.com/aretw0/narrator"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of narrator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "narrator version %s\n", narrator.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
