package narrator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/narrator/internal/caret"
	"github.com/aretw0/narrator/internal/mode"
	"github.com/aretw0/narrator/internal/sayall"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// Commands handled by Execute besides the caret commands.
const (
	CmdSayAll                     = "say_all"
	CmdStopNarration              = "stop_narration"
	CmdToggleMode                 = "toggle_mode"
	CmdClearStickyMode            = "clear_sticky_mode"
	CmdToggleCaretNavigation      = "toggle_caret_navigation"
	CmdToggleStructuralNavigation = "toggle_structural_navigation"
	CmdToggleLayoutMode           = "toggle_layout_mode"
	CmdFocusChanged               = "focus_changed"
)

// Messages presented by commands.
const (
	MsgNotFound       = "location not found"
	MsgWrapped        = "wrapping to the other end of the document"
	MsgNavigationMode = "navigation mode"
	MsgPassThrough    = "pass through mode"
)

// ErrMissingEvent is returned by commands that need a triggering event and got none.
var ErrMissingEvent = errors.New("command needs a triggering event")

// Event is the host event that triggered a command.
type Event struct {
	// Focus is the node that received focus.
	Focus domain.Node
	// Previous is the node that lost it.
	Previous domain.Node
	// Key is the keystroke that triggered the command, if any.
	Key string
}

var control = []string{
	CmdSayAll,
	CmdStopNarration,
	CmdToggleMode,
	CmdClearStickyMode,
	CmdToggleCaretNavigation,
	CmdToggleStructuralNavigation,
	CmdToggleLayoutMode,
	CmdFocusChanged,
}

// Commands lists every command name Execute accepts.
func Commands() []string {
	out := slices.Clone(control)
	for _, c := range caret.Commands() {
		out = append(out, string(c))
	}
	return out
}

// Execute runs command for sessionID. ev is the host event that triggered it, if any, and
// notify asks for the outcome to be presented.
//
// handled is false when the command does not apply (the document is in pass-through mode,
// caret navigation is off, there is no narration to stop) so the host can let the keystroke
// through. Boundaries and empty documents are handled and present "location not found".
// Errors are reserved for caller mistakes: an unknown session or command, a missing event.
func (n *Narrator) Execute(ctx context.Context, sessionID, command string, ev *Event, notify bool) (bool, error) {
	d, err := n.document(sessionID)
	if err != nil {
		return false, err
	}
	if ev != nil && ev.Key != "" {
		n.logger.Debug("command", "session", sessionID, "command", command, "key", ev.Key)
	}

	switch command {
	case CmdSayAll:
		return n.sayAll(ctx, d)
	case CmdStopNarration:
		return d.narration.Stop(), nil
	case CmdToggleMode:
		return n.toggleMode(ctx, d, notify)
	case CmdClearStickyMode:
		return n.clearStickyMode(ctx, d, notify)
	case CmdToggleCaretNavigation:
		return n.toggleSetting(ctx, d, "caret_navigation", "caret navigation", notify)
	case CmdToggleStructuralNavigation:
		return n.toggleSetting(ctx, d, "structural_navigation", "structural navigation", notify)
	case CmdToggleLayoutMode:
		return n.toggleSetting(ctx, d, "layout_mode", "layout mode", notify)
	case CmdFocusChanged:
		return n.focusChanged(ctx, d, ev, notify)
	}

	cmd, err := caret.ParseCommand(command)
	if err != nil {
		return false, err
	}
	return n.moveCaret(ctx, d, cmd, notify)
}

func (n *Narrator) moveCaret(ctx context.Context, d *document, cmd caret.Command, notify bool) (bool, error) {
	cfg := n.Settings()
	if !d.navigatorsActive() || !cfg.CaretNavigation {
		return false, nil
	}

	cause := cmd.InterruptCause()
	if d.narration.Interrupt(cause) && cause != domain.CauseOther && cfg.RewindAndFastForward {
		// the narration restarts from the rewound or fast-forwarded unit
		return true, nil
	}

	from := d.position()
	root := d.documentRoot()
	res, err := d.carets.Do(ctx, cmd, from, root, caret.Options{Wrap: cfg.Wrap, SkipBlankLines: cfg.SkipBlankLines})
	if err != nil {
		return false, err
	}
	req := ports.PresentationRequest{SessionID: d.sessionID, Command: string(cmd), Position: res.Position}
	if !res.Found {
		req.Message = MsgNotFound
		n.present(ctx, notify, req)
		return true, nil
	}

	if cmd.Moves() {
		d.setCaret(res.Position)
		_, err := n.sessions.Update(ctx, d.sessionID, func(s *domain.NavigationSession) error {
			s.CaretNodeID = domain.NodeID(res.Position.Node)
			s.CaretOffset = res.Position.Offset
			s.LastCommand = string(cmd)
			return nil
		})
		if err != nil {
			n.logger.Warn("failed to persist caret", "session", d.sessionID, "err", err)
		}
		n.decide(ctx, d, res.Position.Node, from.Node, true, notify)
	}

	req.Units = res.Units
	if !cfg.LayoutMode && isLineCommand(cmd) {
		req.Units = objectUnits(res.Units, res.Position.Node)
	}
	if res.Wrapped {
		req.Message = MsgWrapped
	}
	n.present(ctx, notify, req)
	return true, nil
}

func isLineCommand(cmd caret.Command) bool {
	switch cmd {
	case caret.NextLine, caret.PreviousLine, caret.CurrentLine, caret.StartOfFile, caret.EndOfFile:
		return true
	}
	return false
}

// objectUnits keeps the units of one object: outside layout mode a line presents only the
// object under the caret.
func objectUnits(units []domain.ContentUnit, n domain.Node) []domain.ContentUnit {
	out := make([]domain.ContentUnit, 0, len(units))
	for _, u := range units {
		if domain.SameNode(u.Node, n) {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return units
	}
	return out
}

func (n *Narrator) sayAll(ctx context.Context, d *document) (bool, error) {
	if n.speech == nil {
		n.logger.Warn("say_all ignored: no speech engine", "session", d.sessionID)
		return false, nil
	}
	n.stopOthers(d)

	cfg := n.Settings()
	from := d.position()
	p := sayall.Params{Granularity: cfg.SayAllGranularity, RewindAndFastForward: cfg.RewindAndFastForward}
	id, err := d.narration.Start(ctx, from, d.documentRoot(), p)
	if err != nil {
		n.logger.Warn("speech engine refused narration", "session", d.sessionID, "narration_id", id, "err", err)
		return false, nil
	}
	return true, nil
}

// stopOthers keeps a single narration running across sessions: there is one voice.
func (n *Narrator) stopOthers(keep *document) {
	n.mu.RLock()
	others := make([]*document, 0, len(n.docs))
	for _, d := range n.docs {
		if d != keep {
			others = append(others, d)
		}
	}
	n.mu.RUnlock()

	for _, d := range others {
		d.narration.Stop()
	}
}

func (n *Narrator) focusChanged(ctx context.Context, d *document, ev *Event, notify bool) (bool, error) {
	if ev == nil || ev.Focus == nil {
		return false, fmt.Errorf("%w: %s", ErrMissingEvent, CmdFocusChanged)
	}
	if n.facade.IsInside(ev.Focus, d.documentRoot()) {
		if p := n.nav.Normalize(domain.At(ev.Focus, 0)); !p.IsNull() {
			d.setCaret(p)
		}
	}
	n.decide(ctx, d, ev.Focus, ev.Previous, false, notify)
	return true, nil
}

// decide runs the mode decision for a transition to candidate and applies it to the
// session. A changed mode is announced once.
func (n *Narrator) decide(ctx context.Context, d *document, candidate, previous domain.Node, byCommand bool, notify bool) {
	cfg := n.Settings()
	var (
		dec  mode.Decision
		from domain.Mode
	)
	_, err := n.sessions.Update(ctx, d.sessionID, func(s *domain.NavigationSession) error {
		dec = mode.Decide(mode.Input{
			Candidate:           mode.Capture(n.facade, candidate),
			Previous:            mode.Capture(n.facade, previous),
			Session:             mode.Session{Mode: s.Mode, Sticky: s.Sticky, InEmbedded: s.InEmbedded},
			ByNavigationCommand: byCommand,
			NavigationKeepsMode: cfg.NavigationKeepsMode,
		})
		from = s.Mode
		s.Mode = dec.Mode
		s.InEmbedded = dec.InEmbedded
		return nil
	})
	if err != nil {
		n.logger.Warn("failed to apply mode decision", "session", d.sessionID, "err", err)
		return
	}
	d.setNavigators(dec.DocumentNavigators)
	n.logger.Debug("mode decision", "session", d.sessionID, "candidate", domain.NodeID(candidate), "mode", string(dec.Mode), "reason", string(dec.Reason))
	if from != dec.Mode {
		n.modeChanged(ctx, d, from, dec.Mode, string(dec.Reason), notify)
	}
}

func (n *Narrator) modeChanged(ctx context.Context, d *document, from, to domain.Mode, reason string, notify bool) {
	if n.hooks.OnModeChanged != nil {
		n.hooks.OnModeChanged(ctx, &domain.ModeEvent{
			EventBase: domain.NewEventBase(domain.EventModeChanged, d.sessionID),
			From:      from,
			To:        to,
			Reason:    reason,
		})
	}
	msg := MsgNavigationMode
	if to == domain.ModePassThrough {
		msg = MsgPassThrough
	}
	n.present(ctx, notify, ports.PresentationRequest{SessionID: d.sessionID, Command: "mode", Position: d.position(), Message: msg})
}

func (n *Narrator) toggleMode(ctx context.Context, d *document, notify bool) (bool, error) {
	var from, to domain.Mode
	_, err := n.sessions.Update(ctx, d.sessionID, func(s *domain.NavigationSession) error {
		from = s.Mode
		s.Mode = s.Mode.Toggle()
		s.Sticky = true
		s.UserOverridden = true
		to = s.Mode
		return nil
	})
	if err != nil {
		return false, err
	}
	d.setNavigators(mode.NavigatorsActive(to))
	if to == domain.ModePassThrough {
		d.narration.Stop()
	}
	n.modeChanged(ctx, d, from, to, "user_toggle", notify)
	return true, nil
}

// clearStickyMode releases a user override and lets the mode follow the caret again.
func (n *Narrator) clearStickyMode(ctx context.Context, d *document, notify bool) (bool, error) {
	_, err := n.sessions.Update(ctx, d.sessionID, func(s *domain.NavigationSession) error {
		s.Sticky = false
		s.UserOverridden = false
		return nil
	})
	if err != nil {
		return false, err
	}
	n.decide(ctx, d, d.position().Node, nil, false, notify)
	return true, nil
}

func (n *Narrator) toggleSetting(ctx context.Context, d *document, key, label string, notify bool) (bool, error) {
	n.mu.Lock()
	on, err := n.settings.Toggle(key)
	snapshot, path := n.settings, n.settingsPath
	n.mu.Unlock()
	if err != nil {
		return false, err
	}
	if path != "" {
		if err := snapshot.Write(path); err != nil {
			n.logger.Warn("failed to write settings", "path", path, "err", err)
		}
	}

	state := "off"
	if on {
		state = "on"
	}
	n.present(ctx, notify, ports.PresentationRequest{SessionID: d.sessionID, Command: "toggle_" + key, Message: label + " " + state})
	return true, nil
}
