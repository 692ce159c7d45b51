// Package mode decides whether keystrokes drive document navigation or pass through to the
// focused widget.
//
// Decide is a pure function over value snapshots; Capture builds a snapshot from the tree.
// Applying a decision (announcing it, enabling navigators) is the caller's job.
package mode

import (
	"slices"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/pkg/domain"
)

// Reason names the rule that produced a decision.
type Reason string

const (
	ReasonSticky             Reason = "sticky"
	ReasonEditable           Reason = "editable"
	ReasonExpandable         Reason = "expandable"
	ReasonNavigationCommand  Reason = "navigation_command"
	ReasonEmbeddedApp        Reason = "embedded_application"
	ReasonInteractiveRole    Reason = "interactive_role"
	ReasonContainerRole      Reason = "container_role"
	ReasonWidgetGroup        Reason = "widget_group"
	ReasonNonFocusableLabel  Reason = "non_focusable_label"
	ReasonUnchanged          Reason = "unchanged"
	ReasonNoCandidate        Reason = "no_candidate"
	ReasonLeftEmbeddedApp    Reason = "left_embedded_application"
	ReasonEmbeddedAppExcused Reason = "embedded_application_exception"
)

// Snapshot is the part of a node the decision looks at.
type Snapshot struct {
	Role   domain.Role
	States domain.StateSet
	// LabelFor reports that the node labels another object.
	LabelFor bool
	// Ancestors are the roles of the ancestors, nearest first.
	Ancestors []domain.Role
}

// Valid reports whether the snapshot describes a node.
func (s Snapshot) Valid() bool {
	return s.Role != domain.RoleUnknown || s.States != 0
}

// InEmbedded reports whether the node is, or is inside, an embedded application.
func (s Snapshot) InEmbedded() bool {
	return s.Role == domain.RoleEmbedded || slices.Contains(s.Ancestors, domain.RoleEmbedded)
}

// InWidgetGroup reports whether an ancestor is a composite widget (grid, menu, tool bar).
func (s Snapshot) InWidgetGroup() bool {
	return slices.ContainsFunc(s.Ancestors, domain.Role.IsWidgetGroup)
}

// Session is the slice of NavigationSession the decision reads.
type Session struct {
	Mode       domain.Mode
	Sticky     bool
	InEmbedded bool
}

// Input bundles everything Decide looks at.
type Input struct {
	Candidate Snapshot
	// Previous is the node the transition leaves; the zero Snapshot when unknown.
	Previous Snapshot
	Session  Session

	// ByNavigationCommand is set when the transition was caused by a document navigation
	// command (structural or caret navigation).
	ByNavigationCommand bool
	// NavigationKeepsMode is the setting that stops navigation commands from switching mode.
	NavigationKeepsMode bool

	// EmbeddedException, when it matches the candidate, lets the candidate inside an
	// embedded application be judged by the ordinary rules. Nil uses DefaultEmbeddedException.
	EmbeddedException func(Snapshot) bool
}

// Decision is the outcome of Decide.
type Decision struct {
	Mode   domain.Mode
	Reason Reason
	// DocumentNavigators reports whether structural and caret navigation should be active.
	DocumentNavigators bool
	// InEmbedded is the embedded-application flag to store back into the session.
	InEmbedded bool
}

// Changed reports whether applying d changes the session mode.
func (d Decision) Changed(s Session) bool {
	return d.Mode != s.Mode
}

// NavigatorsActive reports whether document navigators run in mode m.
func NavigatorsActive(m domain.Mode) bool {
	return m != domain.ModePassThrough
}

// DefaultEmbeddedException matches a tooltip that is showing without having focus.
func DefaultEmbeddedException(s Snapshot) bool {
	return s.Role == domain.RoleToolTip &&
		s.States.Has(domain.StateShowing) &&
		!s.States.Has(domain.StateFocused)
}

// Decide returns the interaction mode for a transition to in.Candidate. It has no side
// effects; equal inputs give equal decisions.
//
// Rules, first match wins: sticky mode, candidate state, navigation-command context,
// non-focusable labels (ignored, mode kept), embedded applications, candidate role,
// ancestry. Nothing matching keeps the current mode. A container inside a widget group,
// such as a grid cell, is a part of the widget and is judged by its ancestry.
func Decide(in Input) Decision {
	current := in.Session.Mode
	if current == "" {
		current = domain.ModeNavigation
	}
	c := in.Candidate
	embedded := c.InEmbedded()

	decide := func(m domain.Mode, r Reason) Decision {
		return Decision{Mode: m, Reason: r, DocumentNavigators: NavigatorsActive(m), InEmbedded: embedded}
	}

	if in.Session.Sticky {
		return decide(current, ReasonSticky)
	}
	if !c.Valid() {
		return decide(current, ReasonNoCandidate)
	}

	// state
	if c.States.Has(domain.StateEditable) {
		return decide(domain.ModePassThrough, ReasonEditable)
	}
	if c.States.Has(domain.StateExpandable, domain.StateFocusable) && c.Role != domain.RoleLink {
		return decide(domain.ModePassThrough, ReasonExpandable)
	}

	// command context
	if in.ByNavigationCommand && in.NavigationKeepsMode {
		return decide(current, ReasonNavigationCommand)
	}

	if c.LabelFor && !c.States.Has(domain.StateFocusable) {
		return decide(current, ReasonNonFocusableLabel)
	}

	// embedded application
	exception := in.EmbeddedException
	if exception == nil {
		exception = DefaultEmbeddedException
	}
	if embedded && !exception(c) {
		return decide(domain.ModePassThrough, ReasonEmbeddedApp)
	}

	if d, ok := byRole(c, decide); ok {
		return d
	}
	if d, ok := byAncestry(c, decide); ok {
		return d
	}

	switch {
	case embedded:
		return decide(current, ReasonEmbeddedAppExcused)
	case in.Session.InEmbedded || in.Previous.InEmbedded():
		// leaving an embedded application releases its pass-through
		return decide(domain.ModeNavigation, ReasonLeftEmbeddedApp)
	}
	return decide(current, ReasonUnchanged)
}

func byRole(c Snapshot, decide func(domain.Mode, Reason) Decision) (Decision, bool) {
	switch {
	case c.Role.IsInteractive():
		return decide(domain.ModePassThrough, ReasonInteractiveRole), true
	case c.Role.IsContainer() && !c.InWidgetGroup():
		return decide(domain.ModeNavigation, ReasonContainerRole), true
	}
	return Decision{}, false
}

func byAncestry(c Snapshot, decide func(domain.Mode, Reason) Decision) (Decision, bool) {
	if c.InWidgetGroup() {
		return decide(domain.ModePassThrough, ReasonWidgetGroup), true
	}
	return Decision{}, false
}

// Capture reads a Snapshot of n through the facade. A nil or dead node gives an invalid
// snapshot.
func Capture(f *access.Facade, n domain.Node) Snapshot {
	if n == nil || f.IsDead(n) {
		return Snapshot{}
	}
	s := Snapshot{
		Role:     f.Role(n),
		States:   f.States(n),
		LabelFor: f.Attribute(n, domain.AttrLabelFor) != "",
	}
	for _, a := range f.Ancestors(n) {
		s.Ancestors = append(s.Ancestors, f.Role(a))
	}
	return s
}
