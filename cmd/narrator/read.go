package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/narrator"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the document aloud to stdout",
	Long: `Starts a say-all narration at the beginning of the document (or at --from) and prints
each spoken unit on its own line. Ctrl+C stops the narration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadDocument(cmd)
		if err != nil {
			return err
		}
		s, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if g, _ := cmd.Flags().GetString("granularity"); g != "" {
			s.SayAllGranularity = domain.Granularity(g)
			if err := s.Validate(); err != nil {
				return err
			}
		}
		logger, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		pace, _ := cmd.Flags().GetDuration("pace")
		noColor, _ := cmd.Flags().GetBool("no-color")
		out := cmd.OutOrStdout()
		style := runner.NewStyle(out, runner.IsTerminal(out) && !noColor)
		console := runner.NewConsole(out, runner.WithPace(pace), runner.WithStyle(style))
		n := narrator.New(tree, console,
			narrator.WithLogger(logger),
			narrator.WithSettings(s),
			narrator.WithPresenter(runner.NewTextPresenter(out, style)),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		id := uuid.NewString()
		if _, err := n.Open(ctx, id, tree.Root()); err != nil {
			return err
		}
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			node, err := tree.Resolve(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if _, err := n.Execute(ctx, id, narrator.CmdFocusChanged, &narrator.Event{Focus: node}, false); err != nil {
				return err
			}
		}

		handled, err := n.Execute(ctx, id, narrator.CmdSayAll, nil, true)
		if err != nil {
			return err
		}
		if !handled {
			return errors.New("the document could not be narrated")
		}

		done := make(chan struct{})
		go func() {
			console.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			n.Stop()
			<-done
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().String("from", "", "Node ID to start reading at")
	readCmd.Flags().String("granularity", "", "Narration unit: line or sentence (default from settings)")
	readCmd.Flags().Duration("pace", 0, "Pause after each unit, e.g. 300ms")
	readCmd.Flags().Bool("no-color", false, "Disable styled output")
}
