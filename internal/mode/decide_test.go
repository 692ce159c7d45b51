package mode

import (
	"testing"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nav  = Session{Mode: domain.ModeNavigation}
	pass = Session{Mode: domain.ModePassThrough}
)

func TestDecide(t *testing.T) {
	editable := Snapshot{Role: domain.RoleEntry, States: domain.NewStateSet(domain.StateEditable, domain.StateFocusable)}
	paragraph := Snapshot{Role: domain.RoleParagraph}

	tests := []struct {
		name   string
		in     Input
		mode   domain.Mode
		reason Reason
	}{
		{
			name:   "sticky wins over everything",
			in:     Input{Candidate: editable, Session: Session{Mode: domain.ModeNavigation, Sticky: true}},
			mode:   domain.ModeNavigation,
			reason: ReasonSticky,
		},
		{
			name: "editable regardless of ancestry and flags",
			in: Input{
				Candidate: Snapshot{
					Role:      domain.RoleParagraph,
					States:    domain.NewStateSet(domain.StateEditable),
					Ancestors: []domain.Role{domain.RoleDocument},
				},
				Session:             nav,
				ByNavigationCommand: true,
				NavigationKeepsMode: true,
			},
			mode:   domain.ModePassThrough,
			reason: ReasonEditable,
		},
		{
			name:   "expandable focusable",
			in:     Input{Candidate: Snapshot{Role: domain.RoleComboBox, States: domain.NewStateSet(domain.StateExpandable, domain.StateFocusable)}, Session: nav},
			mode:   domain.ModePassThrough,
			reason: ReasonExpandable,
		},
		{
			name:   "expandable link is not a widget",
			in:     Input{Candidate: Snapshot{Role: domain.RoleLink, States: domain.NewStateSet(domain.StateExpandable, domain.StateFocusable)}, Session: nav},
			mode:   domain.ModeNavigation,
			reason: ReasonUnchanged,
		},
		{
			name:   "navigation command keeps mode",
			in:     Input{Candidate: Snapshot{Role: domain.RoleSlider}, Session: nav, ByNavigationCommand: true, NavigationKeepsMode: true},
			mode:   domain.ModeNavigation,
			reason: ReasonNavigationCommand,
		},
		{
			name:   "navigation command switches when allowed",
			in:     Input{Candidate: Snapshot{Role: domain.RoleSlider}, Session: nav, ByNavigationCommand: true},
			mode:   domain.ModePassThrough,
			reason: ReasonInteractiveRole,
		},
		{
			name:   "container forces navigation",
			in:     Input{Candidate: paragraph, Session: pass},
			mode:   domain.ModeNavigation,
			reason: ReasonContainerRole,
		},
		{
			name:   "widget group ancestor",
			in:     Input{Candidate: Snapshot{Role: domain.RoleButton, Ancestors: []domain.Role{domain.RoleToolBar, domain.RoleDocument}}, Session: nav},
			mode:   domain.ModePassThrough,
			reason: ReasonWidgetGroup,
		},
		{
			name: "grid cell belongs to the grid",
			in: Input{
				Candidate: Snapshot{Role: domain.RoleTableCell, Ancestors: []domain.Role{domain.RoleTableRow, domain.RoleGrid, domain.RoleDocument}},
				Session:   nav,
			},
			mode:   domain.ModePassThrough,
			reason: ReasonWidgetGroup,
		},
		{
			name: "table cell stays a container",
			in: Input{
				Candidate: Snapshot{Role: domain.RoleTableCell, Ancestors: []domain.Role{domain.RoleTableRow, domain.RoleTable, domain.RoleDocument}},
				Session:   pass,
			},
			mode:   domain.ModeNavigation,
			reason: ReasonContainerRole,
		},
		{
			name: "non-focusable label is ignored",
			in: Input{
				Candidate: Snapshot{Role: domain.RoleLabel, LabelFor: true, Ancestors: []domain.Role{domain.RoleMenu}},
				Session:   pass,
			},
			mode:   domain.ModePassThrough,
			reason: ReasonNonFocusableLabel,
		},
		{
			name: "entering an embedded application",
			in: Input{
				Candidate: Snapshot{Role: domain.RoleParagraph, Ancestors: []domain.Role{domain.RoleEmbedded, domain.RoleDocument}},
				Session:   nav,
			},
			mode:   domain.ModePassThrough,
			reason: ReasonEmbeddedApp,
		},
		{
			name: "tooltip inside an embedded application is excused",
			in: Input{
				Candidate: Snapshot{Role: domain.RoleToolTip, States: domain.NewStateSet(domain.StateShowing), Ancestors: []domain.Role{domain.RoleEmbedded}},
				Session:   Session{Mode: domain.ModePassThrough, InEmbedded: true},
			},
			mode:   domain.ModePassThrough,
			reason: ReasonEmbeddedAppExcused,
		},
		{
			name: "custom exception",
			in: Input{
				Candidate:         Snapshot{Role: domain.RoleParagraph, Ancestors: []domain.Role{domain.RoleEmbedded}},
				Session:           pass,
				EmbeddedException: func(s Snapshot) bool { return s.Role == domain.RoleParagraph },
			},
			mode:   domain.ModeNavigation,
			reason: ReasonContainerRole,
		},
		{
			name: "leaving an embedded application",
			in: Input{
				Candidate: Snapshot{Role: domain.RoleImage, Ancestors: []domain.Role{domain.RoleDocument}},
				Previous:  Snapshot{Role: domain.RoleParagraph, Ancestors: []domain.Role{domain.RoleEmbedded}},
				Session:   pass,
			},
			mode:   domain.ModeNavigation,
			reason: ReasonLeftEmbeddedApp,
		},
		{
			name:   "nothing matches",
			in:     Input{Candidate: Snapshot{Role: domain.RoleImage}, Session: pass},
			mode:   domain.ModePassThrough,
			reason: ReasonUnchanged,
		},
		{
			name:   "no candidate",
			in:     Input{Session: pass},
			mode:   domain.ModePassThrough,
			reason: ReasonNoCandidate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in)
			assert.Equal(t, tt.mode, d.Mode)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.mode == domain.ModeNavigation, d.DocumentNavigators)
		})
	}
}

func TestDecide_Purity(t *testing.T) {
	in := Input{
		Candidate: Snapshot{Role: domain.RoleMenuItem, Ancestors: []domain.Role{domain.RoleMenu, domain.RoleEmbedded}},
		Previous:  Snapshot{Role: domain.RoleParagraph},
		Session:   nav,
	}
	ancestors := append([]domain.Role(nil), in.Candidate.Ancestors...)

	first := Decide(in)
	second := Decide(in)
	assert.Equal(t, first, second)
	assert.Equal(t, ancestors, in.Candidate.Ancestors)
	assert.True(t, first.InEmbedded)
	assert.True(t, first.Changed(nav))
}

func TestCapture(t *testing.T) {
	tree := dsl.New("doc").
		Add(
			dsl.Node("app", "embedded").Children(
				dsl.Node("l", "label").Text("Name").LabelFor("e"),
				dsl.Entry("e", "bob"),
			),
		).
		MustBuild()
	f := access.New(tree)

	s := Capture(f, tree.Node("l"))
	assert.Equal(t, domain.RoleLabel, s.Role)
	assert.True(t, s.LabelFor)
	assert.Equal(t, []domain.Role{domain.RoleEmbedded, domain.RoleDocument}, s.Ancestors)
	assert.True(t, s.InEmbedded())

	d := Decide(Input{Candidate: Capture(f, tree.Node("e")), Session: nav})
	assert.Equal(t, domain.ModePassThrough, d.Mode)
	assert.Equal(t, ReasonEditable, d.Reason)

	tree.Kill("e")
	require.False(t, Capture(f, nil).Valid())
	f.Role(tree.Node("e"))
	assert.False(t, Capture(f, tree.Node("e")).Valid())
}
