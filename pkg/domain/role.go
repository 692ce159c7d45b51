package domain

import (
	"fmt"
	"strings"
)

// Role is the closed enumeration of accessible roles understood by the engine.
// Adding a role means adding an entry to roleTable; TestRoleTable_Exhaustive fails otherwise.
type Role int

const (
	RoleUnknown Role = iota
	RoleApplication
	RoleFrame
	RoleDialog
	RoleDocument
	RoleEmbedded
	RoleSection
	RolePanel
	RoleFiller
	RoleForm
	RoleParagraph
	RoleHeading
	RoleStaticText
	RoleLabel
	RoleLink
	RoleImage
	RoleSeparator
	RoleList
	RoleListItem
	RoleTable
	RoleTableRow
	RoleTableCell
	RoleGrid
	RoleButton
	RoleToggleButton
	RoleCheckBox
	RoleRadioButton
	RoleEntry
	RolePasswordText
	RoleComboBox
	RoleListBox
	RoleMenuBar
	RoleMenu
	RoleMenuItem
	RoleToolBar
	RoleSlider
	RoleSpinButton
	RoleTree
	RoleTreeItem
	RolePageTabList
	RolePageTab
	RoleScrollBar
	RoleToolTip
	RoleTerminal

	roleCount
)

type roleTraits struct {
	name        string
	block       bool // starts its own run of text
	interactive bool // keystrokes belong to the widget
	container   bool // plain text or layout container
	widgetGroup bool // descendants are widget parts (grid, menu, toolbar)
}

var roleTable = [roleCount]roleTraits{
	RoleUnknown:      {name: "unknown"},
	RoleApplication:  {name: "application", block: true},
	RoleFrame:        {name: "frame", block: true},
	RoleDialog:       {name: "dialog", block: true},
	RoleDocument:     {name: "document", block: true, container: true},
	RoleEmbedded:     {name: "embedded", block: true},
	RoleSection:      {name: "section", block: true, container: true},
	RolePanel:        {name: "panel", block: true, container: true},
	RoleFiller:       {name: "filler", block: true, container: true},
	RoleForm:         {name: "form", block: true, container: true},
	RoleParagraph:    {name: "paragraph", block: true, container: true},
	RoleHeading:      {name: "heading", block: true, container: true},
	RoleStaticText:   {name: "static text", container: true},
	RoleLabel:        {name: "label"},
	RoleLink:         {name: "link"},
	RoleImage:        {name: "image"},
	RoleSeparator:    {name: "separator", block: true},
	RoleList:         {name: "list", block: true, container: true},
	RoleListItem:     {name: "list item", block: true, container: true},
	RoleTable:        {name: "table", block: true, container: true},
	RoleTableRow:     {name: "table row", block: true, container: true},
	RoleTableCell:    {name: "table cell", block: true, container: true},
	RoleGrid:         {name: "grid", block: true, widgetGroup: true},
	RoleButton:       {name: "button"},
	RoleToggleButton: {name: "toggle button"},
	RoleCheckBox:     {name: "check box"},
	RoleRadioButton:  {name: "radio button"},
	RoleEntry:        {name: "entry", interactive: true},
	RolePasswordText: {name: "password text", interactive: true},
	RoleComboBox:     {name: "combo box", interactive: true},
	RoleListBox:      {name: "list box", block: true, interactive: true},
	RoleMenuBar:      {name: "menu bar", block: true, interactive: true, widgetGroup: true},
	RoleMenu:         {name: "menu", block: true, interactive: true, widgetGroup: true},
	RoleMenuItem:     {name: "menu item", interactive: true},
	RoleToolBar:      {name: "tool bar", block: true, widgetGroup: true},
	RoleSlider:       {name: "slider", interactive: true},
	RoleSpinButton:   {name: "spin button", interactive: true},
	RoleTree:         {name: "tree", block: true, interactive: true},
	RoleTreeItem:     {name: "tree item", interactive: true},
	RolePageTabList:  {name: "page tab list", block: true},
	RolePageTab:      {name: "page tab"},
	RoleScrollBar:    {name: "scroll bar", interactive: true},
	RoleToolTip:      {name: "tool tip"},
	RoleTerminal:     {name: "terminal", block: true, interactive: true},
}

func (r Role) traits() roleTraits {
	if r < 0 || r >= roleCount {
		return roleTable[RoleUnknown]
	}
	return roleTable[r]
}

// String returns the human readable role name.
func (r Role) String() string {
	return r.traits().name
}

// IsBlock reports whether text of this role starts a new run (line/paragraph) of its own.
func (r Role) IsBlock() bool { return r.traits().block }

// IsInteractive reports whether the role always wants raw keystrokes.
func (r Role) IsInteractive() bool { return r.traits().interactive }

// IsContainer reports whether the role is a plain text or layout-only container.
func (r Role) IsContainer() bool { return r.traits().container }

// IsWidgetGroup reports whether descendants of the role are parts of a composite widget.
func (r Role) IsWidgetGroup() bool { return r.traits().widgetGroup }

// Roles returns every defined role in declaration order.
func Roles() []Role {
	roles := make([]Role, 0, roleCount)
	for r := RoleUnknown; r < roleCount; r++ {
		roles = append(roles, r)
	}
	return roles
}

// ParseRole resolves a role name (as printed by String) back to a Role.
// Underscores and dashes are accepted in place of spaces.
func ParseRole(name string) (Role, error) {
	clean := strings.ToLower(strings.TrimSpace(name))
	clean = strings.NewReplacer("_", " ", "-", " ").Replace(clean)
	for r := RoleUnknown; r < roleCount; r++ {
		if roleTable[r].name == clean {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
