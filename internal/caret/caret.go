// Package caret implements the caret movement commands on top of the context navigator.
//
// Each command computes a destination from the current caret, checks that the destination
// is navigable, moves the application caret there and returns the units to present.
// Nothing is stored here: the caller owns the caret position.
package caret

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/internal/navigation"
	"github.com/aretw0/narrator/pkg/domain"
)

// maxRuns bounds how many runs a single command may cross.
const maxRuns = 1 << 14

// Command names a caret command.
type Command string

const (
	NextCharacter     Command = "next_character"
	PreviousCharacter Command = "previous_character"
	NextWord          Command = "next_word"
	PreviousWord      Command = "previous_word"
	NextLine          Command = "next_line"
	PreviousLine      Command = "previous_line"
	NextSentence      Command = "next_sentence"
	PreviousSentence  Command = "previous_sentence"
	StartOfLine       Command = "start_of_line"
	EndOfLine         Command = "end_of_line"
	StartOfFile       Command = "start_of_file"
	EndOfFile         Command = "end_of_file"

	CurrentCharacter Command = "current_character"
	CurrentWord      Command = "current_word"
	CurrentLine      Command = "current_line"
	CurrentSentence  Command = "current_sentence"
)

var commands = []Command{
	NextCharacter, PreviousCharacter,
	NextWord, PreviousWord,
	NextLine, PreviousLine,
	NextSentence, PreviousSentence,
	StartOfLine, EndOfLine,
	StartOfFile, EndOfFile,
	CurrentCharacter, CurrentWord, CurrentLine, CurrentSentence,
}

// Commands lists every caret command.
func Commands() []Command {
	return slices.Clone(commands)
}

// ParseCommand resolves a command name.
func ParseCommand(name string) (Command, error) {
	c := Command(name)
	if slices.Contains(commands, c) {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownCommand, name)
}

// Moves reports whether the command moves the caret (as opposed to re-reading it).
func (c Command) Moves() bool {
	switch c {
	case CurrentCharacter, CurrentWord, CurrentLine, CurrentSentence:
		return false
	}
	return true
}

// InterruptCause maps the command onto the cause it gives a running narration.
func (c Command) InterruptCause() domain.InterruptCause {
	switch c {
	case PreviousLine:
		return domain.CauseMoveUp
	case NextLine:
		return domain.CauseMoveDown
	}
	return domain.CauseOther
}

// Options are the settings read by the commands.
type Options struct {
	// Wrap lets boundary commands continue from the other end of the document.
	Wrap bool
	// SkipBlankLines makes line commands step over lines with nothing to present.
	SkipBlankLines bool
}

// Result is the outcome of a command.
type Result struct {
	Command Command
	// Position is the destination, or the unchanged caret when nothing was found.
	Position domain.Position
	Units    []domain.ContentUnit
	Found    bool
	Wrapped  bool
}

// Navigator executes caret commands.
type Navigator struct {
	nv        *navigation.Navigator
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	sessionID string
}

// Option configures the Navigator.
type Option func(*Navigator)

// WithLogger configures a logger for the Navigator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Navigator) {
		c.logger = logger
	}
}

// WithHooks sets the lifecycle hooks fired after every command.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Navigator) {
		c.hooks = hooks
	}
}

// WithSessionID tags caret events with a navigation session.
func WithSessionID(id string) Option {
	return func(c *Navigator) {
		c.sessionID = id
	}
}

// New creates a caret Navigator.
func New(nv *navigation.Navigator, opts ...Option) *Navigator {
	c := &Navigator{nv: nv, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs cmd from the caret at from inside the document root.
//
// A command that finds no destination (document boundary, empty document) returns a
// Result with Found unset and a nil error. Errors are reserved for a missing document and
// unknown commands.
func (c *Navigator) Do(ctx context.Context, cmd Command, from domain.Position, root domain.Node, opts Options) (Result, error) {
	if root == nil {
		return Result{Command: cmd}, domain.ErrNoDocument
	}
	if !slices.Contains(commands, cmd) {
		return Result{Command: cmd}, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd)
	}

	f := c.nv.Facade()
	p := from
	if p.IsNull() || f.IsDead(p.Node) || !f.IsInside(p.Node, root) {
		p = c.nv.First(root)
	} else {
		p = c.nv.Normalize(p)
	}

	res := Result{Command: cmd, Position: from}
	if !p.IsNull() {
		res = c.do(cmd, p, root, opts)
		res.Command = cmd
	}

	if res.Found && !c.navigable(res.Position, root) {
		c.logger.Debug("destination is not navigable", "command", string(cmd), "to", res.Position.String())
		res = Result{Command: cmd, Position: from}
	}
	if !res.Found {
		res.Position = from
	} else if cmd.Moves() {
		f.SetCaret(res.Position.Node, res.Position.Offset)
	}

	if c.hooks.OnCaretMoved != nil {
		ev := &domain.CaretEvent{
			EventBase: domain.NewEventBase(domain.EventCaretMoved, c.sessionID),
			Command:   string(cmd),
			NodeID:    domain.NodeID(res.Position.Node),
			Offset:    res.Position.Offset,
			Found:     res.Found,
		}
		c.hooks.OnCaretMoved(ctx, ev)
	}
	return res, nil
}

func (c *Navigator) navigable(p domain.Position, root domain.Node) bool {
	if p.IsNull() {
		return false
	}
	f := c.nv.Facade()
	return f.IsInside(p.Node, root) || f.SupportsText(p.Node)
}

func (c *Navigator) do(cmd Command, p domain.Position, root domain.Node, opts Options) Result {
	switch cmd {
	case NextCharacter:
		return c.character(p, root, opts, c.nv.Next, c.nv.First)
	case PreviousCharacter:
		return c.character(p, root, opts, c.nv.Previous, c.nv.Last)

	case NextWord:
		return c.nextWord(p, root, opts)
	case PreviousWord:
		return c.previousWord(p, root, opts)

	case NextLine:
		return c.nextLine(p, root, opts)
	case PreviousLine:
		return c.previousLine(p, root, opts)

	case NextSentence:
		return c.nextSentence(p, root, opts)
	case PreviousSentence:
		return c.previousSentence(p, root, opts)

	case StartOfLine, EndOfLine:
		line, _, ok := c.nv.LineAt(p, root)
		if !ok {
			return Result{}
		}
		dest := line.Start
		if cmd == EndOfLine {
			dest = line.End
		}
		return c.characterResult(dest)

	case StartOfFile:
		return c.lineResult(c.nv.First(root), root)
	case EndOfFile:
		return c.lineResult(c.nv.Last(root), root)

	case CurrentCharacter:
		return c.characterResult(p)
	case CurrentWord:
		units := c.nv.WordContentsAt(p, root)
		return Result{Position: p, Units: units, Found: len(units) > 0}
	case CurrentLine:
		return Result{Position: p, Units: c.nv.LineContentsAt(p, root), Found: true}
	case CurrentSentence:
		return Result{Position: p, Units: c.nv.SentenceContentsAt(p, root), Found: true}
	}
	return Result{}
}

type stepFunc func(domain.Position, bool, domain.Node) domain.Position

// character steps once, passing over end-of-node stops that are not the document's last.
func (c *Navigator) character(p domain.Position, root domain.Node, opts Options, step stepFunc, boundary func(domain.Node) domain.Position) Result {
	cur := p
	for range maxRuns {
		cur = step(cur, false, root)
		if cur.IsNull() {
			break
		}
		if u, _ := c.nv.CharacterAt(cur); u.Len() > 0 || step(cur, false, root).IsNull() {
			return c.characterResult(cur)
		}
	}
	if opts.Wrap {
		if b := boundary(root); !b.IsNull() && !b.Equal(p) {
			res := c.characterResult(b)
			res.Wrapped = true
			return res
		}
	}
	return Result{}
}

func (c *Navigator) characterResult(p domain.Position) Result {
	u, ok := c.nv.CharacterAt(p)
	if !ok {
		return Result{}
	}
	var units []domain.ContentUnit
	if u.Len() > 0 {
		units = []domain.ContentUnit{u}
	}
	return Result{Position: p, Units: units, Found: true}
}

func (c *Navigator) lineResult(p domain.Position, root domain.Node) Result {
	if p.IsNull() {
		return Result{}
	}
	return Result{Position: p, Units: c.nv.LineContentsAt(p, root), Found: true}
}

func segmentResult(seg navigation.Segment, dest domain.Position, wrapped bool) Result {
	return Result{Position: dest, Units: seg.Units, Found: true, Wrapped: wrapped}
}

func acceptAll(navigation.Segment) bool { return true }

// forward returns the first accepted segment at or after segs[i], continuing through the
// runs after r.
func (c *Navigator) forward(r *navigation.Run, segs []navigation.Segment, i int, split func(*navigation.Run) []navigation.Segment, accept func(navigation.Segment) bool) (navigation.Segment, bool) {
	for range maxRuns {
		for ; i < len(segs); i++ {
			if accept(segs[i]) {
				return segs[i], true
			}
		}
		if r = c.nv.NextRun(r); r == nil {
			break
		}
		segs, i = split(r), 0
	}
	return navigation.Segment{}, false
}

// backward is the mirror of forward.
func (c *Navigator) backward(r *navigation.Run, segs []navigation.Segment, i int, split func(*navigation.Run) []navigation.Segment, accept func(navigation.Segment) bool) (navigation.Segment, bool) {
	for range maxRuns {
		for ; i >= 0; i-- {
			if accept(segs[i]) {
				return segs[i], true
			}
		}
		if r = c.nv.PreviousRun(r); r == nil {
			break
		}
		segs = split(r)
		i = len(segs) - 1
	}
	return navigation.Segment{}, false
}

// fromStart searches forward from the first run of the document.
func (c *Navigator) fromStart(root domain.Node, split func(*navigation.Run) []navigation.Segment, accept func(navigation.Segment) bool) (navigation.Segment, bool) {
	r := c.nv.RunAt(c.nv.First(root), root)
	if r == nil {
		return navigation.Segment{}, false
	}
	return c.forward(r, split(r), 0, split, accept)
}

// fromEnd searches backward from the last run of the document.
func (c *Navigator) fromEnd(root domain.Node, split func(*navigation.Run) []navigation.Segment, accept func(navigation.Segment) bool) (navigation.Segment, bool) {
	r := c.nv.RunAt(c.nv.Last(root), root)
	if r == nil {
		return navigation.Segment{}, false
	}
	segs := split(r)
	return c.backward(r, segs, len(segs)-1, split, accept)
}

func words(r *navigation.Run) []navigation.Segment     { return r.Words() }
func lines(r *navigation.Run) []navigation.Segment     { return r.Lines() }
func sentences(r *navigation.Run) []navigation.Segment { return r.Sentences() }

// nextWord moves to the end of the next word: the first word ending after the caret.
func (c *Navigator) nextWord(p domain.Position, root domain.Node, opts Options) Result {
	if r := c.nv.RunAt(p, root); r != nil {
		ci := r.IndexOf(p)
		segs := r.Words()
		i := len(segs)
		for k, w := range segs {
			if w.To > ci && !w.End.Equal(p) {
				i = k
				break
			}
		}
		if w, ok := c.forward(r, segs, i, words, acceptAll); ok {
			return segmentResult(w, w.End, false)
		}
	}
	if opts.Wrap {
		if w, ok := c.fromStart(root, words, acceptAll); ok {
			return segmentResult(w, w.End, true)
		}
	}
	return Result{}
}

// previousWord moves to the start of the last word starting before the caret.
func (c *Navigator) previousWord(p domain.Position, root domain.Node, opts Options) Result {
	if r := c.nv.RunAt(p, root); r != nil {
		ci := r.IndexOf(p)
		segs := r.Words()
		i := -1
		for k := len(segs) - 1; k >= 0; k-- {
			if w := segs[k]; w.From < ci && !w.Start.Equal(p) {
				i = k
				break
			}
		}
		if w, ok := c.backward(r, segs, i, words, acceptAll); ok {
			return segmentResult(w, w.Start, false)
		}
	}
	if opts.Wrap {
		if w, ok := c.fromEnd(root, words, acceptAll); ok {
			return segmentResult(w, w.Start, true)
		}
	}
	return Result{}
}

func lineFilter(opts Options) func(navigation.Segment) bool {
	if !opts.SkipBlankLines {
		return acceptAll
	}
	return func(s navigation.Segment) bool { return !s.IsBlank() }
}

func (c *Navigator) nextLine(p domain.Position, root domain.Node, opts Options) Result {
	accept := lineFilter(opts)
	if r := c.nv.RunAt(p, root); r != nil {
		segs := r.Lines()
		if l, ok := c.forward(r, segs, r.LineIndex(segs, p)+1, lines, accept); ok {
			return segmentResult(l, l.Start, false)
		}
	}
	if opts.Wrap {
		if l, ok := c.fromStart(root, lines, accept); ok {
			return segmentResult(l, l.Start, true)
		}
	}
	return Result{}
}

func (c *Navigator) previousLine(p domain.Position, root domain.Node, opts Options) Result {
	accept := lineFilter(opts)
	if r := c.nv.RunAt(p, root); r != nil {
		segs := r.Lines()
		if l, ok := c.backward(r, segs, r.LineIndex(segs, p)-1, lines, accept); ok {
			return segmentResult(l, l.Start, false)
		}
	}
	if opts.Wrap {
		if l, ok := c.fromEnd(root, lines, accept); ok {
			return segmentResult(l, l.Start, true)
		}
	}
	return Result{}
}

// nextSentence moves to the start of the first sentence starting after the caret.
func (c *Navigator) nextSentence(p domain.Position, root domain.Node, opts Options) Result {
	if r := c.nv.RunAt(p, root); r != nil {
		ci := r.IndexOf(p)
		segs := r.Sentences()
		i := len(segs)
		for k, s := range segs {
			if s.From > ci {
				i = k
				break
			}
		}
		if s, ok := c.forward(r, segs, i, sentences, acceptAll); ok {
			return segmentResult(s, s.Start, false)
		}
	}
	if opts.Wrap {
		if s, ok := c.fromStart(root, sentences, acceptAll); ok {
			return segmentResult(s, s.Start, true)
		}
	}
	return Result{}
}

// previousSentence moves to the start of the sentence before the one holding the caret.
func (c *Navigator) previousSentence(p domain.Position, root domain.Node, opts Options) Result {
	if r := c.nv.RunAt(p, root); r != nil {
		ci := r.IndexOf(p)
		segs := r.Sentences()
		start := ci
		for _, s := range segs {
			if s.From <= ci && ci < s.To {
				start = s.From
				break
			}
		}
		i := -1
		for k := len(segs) - 1; k >= 0; k-- {
			if segs[k].To <= start {
				i = k
				break
			}
		}
		if s, ok := c.backward(r, segs, i, sentences, acceptAll); ok {
			return segmentResult(s, s.Start, false)
		}
	}
	if opts.Wrap {
		if s, ok := c.fromEnd(root, sentences, acceptAll); ok {
			return segmentResult(s, s.Start, true)
		}
	}
	return Result{}
}
