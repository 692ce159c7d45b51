package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/narrator"
	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/pkg/domain"
)

// DefaultKeyMap binds short keys to commands, vi style.
var DefaultKeyMap = map[string]string{
	"h":  "previous_character",
	"l":  "next_character",
	"b":  "previous_word",
	"w":  "next_word",
	"k":  "previous_line",
	"j":  "next_line",
	"(":  "previous_sentence",
	")":  "next_sentence",
	"0":  "start_of_line",
	"$":  "end_of_line",
	"gg": "start_of_file",
	"G":  "end_of_file",
	".":  "current_line",
	"r":  narrator.CmdSayAll,
	"s":  narrator.CmdStopNarration,
	"m":  narrator.CmdToggleMode,
}

// Runner drives a Narrator from lines of input: each line is a command name or a key bound
// to one. "quit" ends the loop, "help" lists the commands.
type Runner struct {
	narrator  *narrator.Narrator
	sessionID string
	input     io.Reader
	output    io.Writer
	style     *Style
	keys      map[string]string
	logger    *slog.Logger
	headless  bool
}

// NewRunner creates a Runner for an open session of n.
func NewRunner(n *narrator.Narrator, sessionID string, opts ...Option) *Runner {
	r := &Runner{
		narrator:  n,
		sessionID: sessionID,
		input:     os.Stdin,
		output:    os.Stdout,
		keys:      DefaultKeyMap,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.style == nil {
		r.style = NewStyle(r.output, false)
	}
	return r
}

type line struct {
	text string
	err  error
}

func pump(r io.Reader) <-chan line {
	ch := make(chan line)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- line{text: sc.Text()}
		}
		if err := sc.Err(); err != nil {
			ch <- line{err: err}
		}
	}()
	return ch
}

// Run reads commands until the input ends, "quit" is read or ctx is done. An interrupt
// signal stops a running narration; a second one (or one while silent) ends the loop.
func (r *Runner) Run(ctx context.Context) error {
	signals := NewSignalManager()
	defer signals.Stop()

	lines := pump(r.input)
	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-signals.Context().Done():
			if r.narrator.Interrupt(r.sessionID, domain.CauseOther) {
				signals.Reset()
				continue
			}
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			if l.err != nil {
				signals.CheckRace()
				return fmt.Errorf("input error: %w", l.err)
			}
			quit, err := r.handle(ctx, l.text)
			if err != nil || quit {
				return err
			}
		}
	}
}

func (r *Runner) prompt() {
	if !r.headless {
		fmt.Fprint(r.output, "> ")
	}
}

func (r *Runner) handle(ctx context.Context, raw string) (bool, error) {
	text, err := SanitizeInput(raw)
	if err != nil {
		r.message(err.Error())
		return false, nil
	}
	text = strings.TrimSpace(text)

	switch text {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		r.help()
		return false, nil
	}

	cmd := text
	if bound, ok := r.keys[text]; ok {
		cmd = bound
	}
	handled, err := r.narrator.Execute(ctx, r.sessionID, cmd, &narrator.Event{Key: text}, true)
	switch {
	case errors.Is(err, domain.ErrUnknownCommand):
		r.message(fmt.Sprintf("unknown command %q", text))
	case err != nil:
		return true, err
	case !handled:
		r.logger.Debug("command not handled", "command", cmd)
		r.message(cmd + " not available here")
	}
	return false, nil
}

func (r *Runner) message(text string) {
	fmt.Fprintln(r.output, r.style.Message(text))
}

func (r *Runner) help() {
	byCommand := map[string][]string{}
	for key, cmd := range r.keys {
		byCommand[cmd] = append(byCommand[cmd], key)
	}
	for _, cmd := range narrator.Commands() {
		keys := byCommand[cmd]
		slices.Sort(keys)
		if len(keys) == 0 {
			fmt.Fprintf(r.output, "  %s\n", cmd)
			continue
		}
		fmt.Fprintf(r.output, "  %-30s %s\n", cmd, strings.Join(keys, " "))
	}
}
