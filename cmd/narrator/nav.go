package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/narrator"
	"github.com/aretw0/narrator/internal/presentation/tui"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/aretw0/narrator/pkg/runner"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Navigate the document interactively",
	Long: `Opens the document in an interactive session. Each input line is a command name or a
key bound to one (type help for the list). Narrations run in the background so that caret
commands can rewind or fast-forward them; Ctrl+C silences a narration, a second one exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadDocument(cmd)
		if err != nil {
			return err
		}
		s, settingsPath, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		store, locker, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		noColor, _ := cmd.Flags().GetBool("no-color")
		pace, _ := cmd.Flags().GetDuration("pace")

		out := cmd.OutOrStdout()
		color := runner.IsTerminal(out) && !noColor && !headless && !jsonMode
		style := runner.NewStyle(out, color)
		var presenter ports.Presenter = runner.NewTextPresenter(out, style)
		if jsonMode {
			presenter = runner.NewJSONPresenter(out)
		}
		console := runner.NewConsole(out, runner.WithPace(pace), runner.WithStyle(style))

		opts := []narrator.Option{
			narrator.WithLogger(logger),
			narrator.WithSettings(s),
			narrator.WithPresenter(presenter),
			narrator.WithSessionStore(store),
		}
		if locker != nil {
			opts = append(opts, narrator.WithLocker(locker))
		}
		if settingsPath != "" {
			opts = append(opts, narrator.WithSettingsFile(settingsPath))
		}
		n := narrator.New(tree, console, opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
		defer stop()
		n.Start(ctx)

		id := sessionID(cmd)
		if _, err := n.Open(ctx, id, tree.Root()); err != nil {
			return err
		}
		if !headless && !jsonMode {
			profile := termenv.Ascii
			if color {
				profile = termenv.EnvColorProfile()
			}
			tui.PrintBanner(out, profile)
			fmt.Fprintf(out, "Session %s. Type help for the commands, quit to leave.\n", id)
		}

		r := runner.NewRunner(n, id,
			runner.WithInput(cmd.InOrStdin()),
			runner.WithOutput(out),
			runner.WithRunnerStyle(style),
			runner.WithHeadless(headless || jsonMode),
			runner.WithLogger(logger),
		)
		err = r.Run(ctx)
		n.Stop()
		console.Wait()
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(navCmd)
	navCmd.Flags().String("session", "", "Session ID to open or resume (default: a new one)")
	navCmd.Flags().Duration("pace", 400*time.Millisecond, "Pause after each narrated unit")
	navCmd.Flags().Bool("headless", false, "No prompt or banner, for scripted input")
	navCmd.Flags().Bool("json", false, "Present command results as JSON lines")
	navCmd.Flags().Bool("no-color", false, "Disable styled output")
	addStoreFlags(navCmd.Flags(), "memory")
}
