package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "narrator",
	Short: "narrator reads accessible documents aloud and navigates them with a virtual caret",
	Long: `narrator turns an accessible document (a YAML tree of roles, states and text) into a
stream of speakable units, with a caret that moves by character, word, line and sentence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("doc", "", "YAML document to read (default: the built-in demo)")
	rootCmd.PersistentFlags().String("settings", "", "Settings file (YAML or JSON); toggle commands write it back")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-json", "", "Also write JSON logs to this file")
}
