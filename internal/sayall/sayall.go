// Package sayall reads a document aloud from a position to its end.
//
// A Controller owns at most one narration at a time. The narration is a lazy stream of
// utterances handed to a ports.SpeechEngine; the engine reports back through a progress
// callback, and interruptions caused by caret movement rewind or fast-forward the stream.
package sayall

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/internal/navigation"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/google/uuid"
)

// maxSegments bounds one stream, so a tree that keeps growing cannot narrate forever.
const maxSegments = 1 << 16

// Params are the settings a narration reads when it starts.
type Params struct {
	Granularity domain.Granularity
	// RewindAndFastForward enables restarting on move_up / move_down interruptions.
	RewindAndFastForward bool
}

// State is a snapshot of a narration session.
type State struct {
	ID           string                 `json:"id"`
	Status       domain.NarrationStatus `json:"status"`
	UnitsEmitted int                    `json:"units_emitted"`
	// Position is the last position reported by the speech engine.
	Position domain.Position       `json:"-"`
	Cause    domain.InterruptCause `json:"cause,omitempty"`
	Restarts int                   `json:"restarts"`
}

// session is the mutable narration session. Guarded by Controller.mu.
type session struct {
	State
	ctx    context.Context
	root   domain.Node
	params Params
	run    uint64

	// current is the segment being spoken; zero until something was emitted.
	current navigation.Segment
	hasCur  bool
	// cursor resolves progress reports; the stream has its own.
	cursor *navigation.Cursor
}

// Controller runs narrations against one speech engine.
type Controller struct {
	nv        *navigation.Navigator
	speech    ports.SpeechEngine
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	sessionID string

	mu      sync.Mutex
	runs    uint64
	session *session
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks sets the lifecycle hooks fired for emitted units and state changes.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithSessionID tags emitted events with the navigation session they belong to.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// New creates a Controller.
func New(nv *navigation.Navigator, speech ports.SpeechEngine, opts ...Option) *Controller {
	c := &Controller{
		nv:     nv,
		speech: speech,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins narrating from the unit holding from until the end of root. A running
// narration is stopped first. It returns the new narration's ID.
func (c *Controller) Start(ctx context.Context, from domain.Position, root domain.Node, p Params) (string, error) {
	if p.Granularity == "" {
		p.Granularity = domain.GranularityLine
	}

	c.mu.Lock()
	prev := c.session
	var stopped *domain.NarrationEvent
	if prev != nil && prev.Status == domain.NarrationRunning {
		prev.Status = domain.NarrationInterrupted
		prev.Cause = domain.CauseOther
		stopped = c.event(prev, nil)
	}
	c.runs++
	s := &session{
		State:  State{ID: uuid.NewString(), Status: domain.NarrationRunning},
		ctx:    context.WithoutCancel(ctx),
		root:   root,
		params: p,
		run:    c.runs,
		cursor: c.nv.Cursor(root),
	}
	c.session = s
	run := s.run
	started := c.event(s, nil)
	c.mu.Unlock()

	if stopped != nil {
		c.speech.Stop()
		c.fireState(ctx, stopped)
	}
	c.logger.Debug("narration started", "narration_id", s.ID, "from", from.String(), "granularity", string(p.Granularity))
	c.fireState(ctx, started)

	if err := c.speech.Speak(s.ctx, c.stream(run, root, from, p.Granularity), c.progressFor(run)); err != nil {
		c.mu.Lock()
		if c.session == s && s.run == run {
			s.Status = domain.NarrationInterrupted
			s.Cause = domain.CauseOther
		}
		c.mu.Unlock()
		return s.ID, err
	}
	return s.ID, nil
}

// Interrupt records why the narration is being interrupted and asks the speech engine to
// stop. The engine's INTERRUPTED report then rewinds, fast-forwards or ends the narration.
// It returns false when nothing is running.
func (c *Controller) Interrupt(cause domain.InterruptCause) bool {
	c.mu.Lock()
	s := c.session
	if s == nil || s.Status != domain.NarrationRunning {
		c.mu.Unlock()
		return false
	}
	if cause == domain.CauseNone {
		cause = domain.CauseOther
	}
	s.Cause = cause
	c.mu.Unlock()

	c.speech.Stop()
	return true
}

// Stop ends the running narration.
func (c *Controller) Stop() bool {
	return c.Interrupt(domain.CauseOther)
}

// State returns a snapshot of the current narration, if any.
func (c *Controller) State() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return State{Status: domain.NarrationIdle}, false
	}
	return c.session.State, true
}

// Running reports whether a narration is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.Status == domain.NarrationRunning
}

func (c *Controller) progressFor(run uint64) ports.ProgressFunc {
	return func(pos domain.Position, sig domain.Signal) {
		c.onProgress(run, pos, sig)
	}
}

func (c *Controller) onProgress(run uint64, pos domain.Position, sig domain.Signal) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.run != run || s.Status != domain.NarrationRunning {
		c.mu.Unlock()
		c.logger.Debug("ignoring stale speech callback", "signal", string(sig))
		return
	}
	if !pos.IsNull() {
		s.Position = pos
		if seg, ok := s.cursor.SegmentAt(pos, s.params.Granularity); ok {
			s.current, s.hasCur = seg, true
		}
	}

	switch sig {
	case domain.SignalProgress:
		c.mu.Unlock()
		return

	case domain.SignalCompleted:
		if s.Cause != domain.CauseNone {
			// stopped between its last unit and the end; handled as an interruption
			break
		}
		s.Status = domain.NarrationCompleted
		ev := c.event(s, nil)
		units := s.UnitsEmitted
		c.mu.Unlock()
		c.logger.Debug("narration completed", "narration_id", ev.NarrationID, "units", units)
		c.fireState(s.ctx, ev)
		return
	}

	// interrupted
	restart := domain.NullPosition
	if s.params.RewindAndFastForward && s.hasCur {
		restart = c.restartPosition(s)
	}
	if restart.IsNull() {
		s.Status = domain.NarrationInterrupted
		if s.Cause == domain.CauseNone {
			s.Cause = domain.CauseOther
		}
		spoken := s.Position
		ev := c.event(s, nil)
		c.mu.Unlock()

		if !spoken.IsNull() {
			c.nv.Facade().SetCaret(spoken.Node, spoken.Offset)
		}
		c.logger.Debug("narration interrupted", "narration_id", ev.NarrationID, "cause", string(ev.Cause), "at", spoken.String())
		c.fireState(s.ctx, ev)
		return
	}

	c.runs++
	s.run = c.runs
	s.Restarts++
	cause := s.Cause
	s.Cause = domain.CauseNone
	s.hasCur = false
	next := s.run
	id, ctx, root, g := s.ID, s.ctx, s.root, s.params.Granularity
	c.mu.Unlock()

	c.logger.Debug("narration restarted", "narration_id", id, "cause", string(cause), "from", restart.String())
	if err := c.speech.Speak(ctx, c.stream(next, root, restart, g), c.progressFor(next)); err != nil {
		c.logger.Warn("speech engine refused restart", "err", err)
	}
}

// restartPosition returns where a move_up or move_down interruption resumes, or the null
// position when the narration should simply stop.
func (c *Controller) restartPosition(s *session) domain.Position {
	seg := s.current
	switch s.Cause {
	case domain.CauseMoveDown:
		anchor := seg.End
		if len(seg.Units) > 0 {
			anchor = seg.Units[len(seg.Units)-1].EndPosition()
		}
		return c.nv.Next(anchor, true, s.root)
	case domain.CauseMoveUp:
		anchor := seg.Start
		if len(seg.Units) > 0 {
			anchor = seg.Units[0].StartPosition()
		}
		if p := c.nv.Previous(anchor, true, s.root); !p.IsNull() {
			return p
		}
		// already at the first unit: read it again
		return anchor
	}
	return domain.NullPosition
}

// stream lazily produces the utterances from the unit holding from to the end of root.
func (c *Controller) stream(run uint64, root domain.Node, from domain.Position, g domain.Granularity) iter.Seq[domain.Utterance] {
	return func(yield func(domain.Utterance) bool) {
		cur := c.nv.Cursor(root)
		pos := from
		prev := domain.NullPosition
		for range maxSegments {
			if pos.IsNull() {
				return
			}
			seg, ok := cur.SegmentAt(pos, g)
			if !ok {
				return
			}
			if !prev.IsNull() && seg.Start.Equal(prev) {
				c.logger.Debug("narration did not advance, forcing a step", "at", pos.String())
				pos = cur.Next(pos)
				continue
			}
			prev = seg.Start

			for _, u := range c.filter(seg.Units) {
				utt := domain.Utterance{Unit: u, Voice: c.voice(u), Index: seg.Index}
				if !c.emit(run, seg, utt) || !yield(utt) {
					return
				}
			}

			anchor := seg.End
			if len(seg.Units) > 0 {
				anchor = seg.Units[len(seg.Units)-1].EndPosition()
			}
			pos = cur.Next(anchor)
		}
	}
}

// emit records utt on the session and moves the application caret to it. It returns false
// once the run is stale or an interruption has been requested.
func (c *Controller) emit(run uint64, seg navigation.Segment, utt domain.Utterance) bool {
	c.mu.Lock()
	s := c.session
	if s == nil || s.run != run || s.Status != domain.NarrationRunning || s.Cause != domain.CauseNone {
		c.mu.Unlock()
		return false
	}
	s.UnitsEmitted++
	if !s.hasCur {
		s.current, s.hasCur = seg, true
	}
	u := utt.Unit
	ev := c.event(s, &u)
	ctx := s.ctx
	c.mu.Unlock()

	c.nv.Facade().SetCaret(u.Node, u.Start)
	if c.hooks.OnUnitEmitted != nil {
		c.hooks.OnUnitEmitted(ctx, ev)
	}
	return true
}

// filter drops fragments that would be read twice or not at all: empty ranges, labels
// that only repeat the name of the object they label, and bare punctuation.
func (c *Controller) filter(units []domain.ContentUnit) []domain.ContentUnit {
	f := c.nv.Facade()
	out := make([]domain.ContentUnit, 0, len(units))
	for _, u := range units {
		if u.Len() <= 0 || strings.TrimSpace(u.Text) == "" {
			continue
		}
		if f.Attribute(u.Node, domain.AttrLabelFor) != "" && !f.States(u.Node).Has(domain.StateFocusable) {
			continue
		}
		if punctuationOnly(u.Text) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (c *Controller) voice(u domain.ContentUnit) domain.VoiceHint {
	if c.nv.Facade().Role(u.Node) == domain.RoleLink {
		return domain.VoiceHyperlink
	}
	if isShouting(u.Text) {
		return domain.VoiceUppercase
	}
	return domain.VoiceDefault
}

func (c *Controller) event(s *session, u *domain.ContentUnit) *domain.NarrationEvent {
	t := domain.EventNarrationState
	if u != nil {
		t = domain.EventUnitEmitted
	}
	return &domain.NarrationEvent{
		EventBase:   domain.NewEventBase(t, c.sessionID),
		NarrationID: s.ID,
		Status:      s.Status,
		Cause:       s.Cause,
		Unit:        u,
	}
}

func (c *Controller) fireState(ctx context.Context, ev *domain.NarrationEvent) {
	if c.hooks.OnNarrationState != nil {
		c.hooks.OnNarrationState(ctx, ev)
	}
}

func punctuationOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// isShouting reports text made of at least two letters, all of them upper case.
func isShouting(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 1
}
