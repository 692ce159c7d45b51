package main

import (
	"fmt"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/internal/presentation/graph"
	"github.com/aretw0/narrator/internal/presentation/tui"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/runner"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the outline of the document",
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadDocument(cmd)
		if err != nil {
			return err
		}

		var root domain.Node = tree.Root()
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			if root, err = tree.Resolve(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
		}
		f := access.New(tree)
		out := cmd.OutOrStdout()

		switch format, _ := cmd.Flags().GetString("format"); format {
		case "mermaid":
			var overlay *graph.Overlay
			if current, _ := cmd.Flags().GetString("highlight"); current != "" {
				overlay = &graph.Overlay{CurrentNode: current}
			}
			fmt.Fprint(out, graph.GenerateMermaid(f, root, overlay))
			return nil
		case "", "markdown":
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		md := tui.Outline(f, root)
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprint(out, md)
			return nil
		}
		style, _ := cmd.Flags().GetString("style")
		if style == "" && !runner.IsTerminal(out) {
			style = "notty"
		}
		width, _ := cmd.Flags().GetInt("width")
		render, err := tui.NewRenderer(style, width)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		rendered, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().String("from", "", "Node ID whose subtree is printed")
	treeCmd.Flags().String("format", "markdown", "Output format: markdown or mermaid")
	treeCmd.Flags().String("highlight", "", "Node ID marked as current in the mermaid graph")
	treeCmd.Flags().Bool("raw", false, "Print the Markdown source")
	treeCmd.Flags().String("style", "", "Glamour style: dark, light, notty (default: detected)")
	treeCmd.Flags().Int("width", 100, "Word wrap width")
}
