package main

import (
	"fmt"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/internal/validator"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report parts of the document a screen reader cannot present",
	Long: `Walks the document and reports empty headings, unnamed controls, labels pointing
at missing nodes and malformed embedded objects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadDocument(cmd)
		if err != nil {
			return err
		}
		if err := validator.ValidateDocument(access.New(tree), tree.Root()); err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("doc")
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is readable.\n", displayName(path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
