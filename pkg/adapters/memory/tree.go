package memory

import (
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/narrator/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Handle is the node handle handed out by Tree. It is a plain identity and may go stale.
type Handle string

// ID implements domain.Node.
func (h Handle) ID() string { return string(h) }

// NodeSpec declares one node of an in-memory document. It is also the YAML fixture shape.
//
// The n-th U+FFFC character in Text stands for the n-th entry of Children.
// A nil Text means the node has no text capability.
type NodeSpec struct {
	ID             string            `yaml:"id" json:"id"`
	Role           string            `yaml:"role" json:"role"`
	Name           string            `yaml:"name,omitempty" json:"name,omitempty"`
	States         []string          `yaml:"states,omitempty" json:"states,omitempty"`
	Text           *string           `yaml:"text,omitempty" json:"text,omitempty"`
	Attributes     map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	TextAttributes []TextRun         `yaml:"text_attributes,omitempty" json:"text_attributes,omitempty"`
	Children       []NodeSpec        `yaml:"children,omitempty" json:"children,omitempty"`
}

// TextRun applies attributes to the character range [Start, End).
type TextRun struct {
	Start      int               `yaml:"start" json:"start"`
	End        int               `yaml:"end" json:"end"`
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
}

type record struct {
	role     domain.Role
	states   domain.StateSet
	name     string
	text     []rune
	hasText  bool
	attrs    map[string]string
	textRuns []TextRun
	parent   string
	children []string
	dead     bool
}

// Action is a recorded PerformAction call.
type Action struct {
	NodeID string
	Name   string
}

// Tree implements ports.TreeProvider and ports.NodeResolver over an in-memory document.
// Faults (dead nodes, bogus parents) can be injected to exercise error paths.
// Safe for concurrent use.
type Tree struct {
	mu      sync.RWMutex
	nodes   map[string]*record
	root    string
	caret   domain.Position
	actions []Action
}

// NewTree builds a Tree from a root NodeSpec.
func NewTree(root NodeSpec) (*Tree, error) {
	t := &Tree{nodes: make(map[string]*record), root: root.ID}
	if err := t.add(root, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadYAML builds a Tree from a YAML document whose top level is the root NodeSpec.
func LoadYAML(r io.Reader) (*Tree, error) {
	var spec NodeSpec
	if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return NewTree(spec)
}

func (t *Tree) add(spec NodeSpec, parent string) error {
	if spec.ID == "" {
		return fmt.Errorf("node missing ID (parent %q)", parent)
	}
	if _, dup := t.nodes[spec.ID]; dup {
		return fmt.Errorf("duplicate node ID %q", spec.ID)
	}
	role := domain.RoleUnknown
	if spec.Role != "" {
		r, err := domain.ParseRole(spec.Role)
		if err != nil {
			return fmt.Errorf("node %s: %w", spec.ID, err)
		}
		role = r
	}
	var states domain.StateSet
	for _, name := range spec.States {
		st, err := domain.ParseState(name)
		if err != nil {
			return fmt.Errorf("node %s: %w", spec.ID, err)
		}
		states = states.With(st)
	}

	rec := &record{
		role:     role,
		states:   states,
		name:     spec.Name,
		attrs:    maps.Clone(spec.Attributes),
		textRuns: spec.TextAttributes,
		parent:   parent,
	}
	if spec.Text != nil {
		rec.hasText = true
		rec.text = []rune(*spec.Text)
		if markers := strings.Count(*spec.Text, string(domain.EmbeddedObjectChar)); markers > len(spec.Children) {
			return fmt.Errorf("node %s: %d embedded markers but %d children", spec.ID, markers, len(spec.Children))
		}
	}
	t.nodes[spec.ID] = rec

	for _, child := range spec.Children {
		if err := t.add(child, spec.ID); err != nil {
			return err
		}
		rec.children = append(rec.children, child.ID)
	}
	return nil
}

// Root returns the handle of the document root.
func (t *Tree) Root() Handle { return Handle(t.root) }

// Node returns the handle for id. It does not check that the node exists.
func (t *Tree) Node(id string) Handle { return Handle(id) }

// Resolve implements ports.NodeResolver.
func (t *Tree) Resolve(id string) (domain.Node, error) {
	if _, err := t.get(Handle(id)); err != nil {
		return nil, err
	}
	return Handle(id), nil
}

func (t *Tree) get(n domain.Node) (*record, error) {
	if n == nil {
		return nil, domain.ErrStaleNode
	}
	rec, ok := t.nodes[n.ID()]
	if !ok || rec.dead {
		return nil, fmt.Errorf("%w: %s", domain.ErrStaleNode, n.ID())
	}
	return rec, nil
}

// Role implements ports.TreeProvider.
func (t *Tree) Role(n domain.Node) (domain.Role, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return domain.RoleUnknown, err
	}
	return rec.role, nil
}

// States implements ports.TreeProvider.
func (t *Tree) States(n domain.Node) (domain.StateSet, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return 0, err
	}
	return rec.states, nil
}

// Name implements ports.TreeProvider.
func (t *Tree) Name(n domain.Node) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return "", err
	}
	return rec.name, nil
}

// Parent implements ports.TreeProvider.
func (t *Tree) Parent(n domain.Node) (domain.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return nil, err
	}
	if rec.parent == "" {
		return nil, nil
	}
	return Handle(rec.parent), nil
}

// Child implements ports.TreeProvider.
func (t *Tree) Child(n domain.Node, index int) (domain.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(rec.children) {
		return nil, fmt.Errorf("child index %d out of range [0,%d) for %s", index, len(rec.children), n.ID())
	}
	return Handle(rec.children[index]), nil
}

// ChildCount implements ports.TreeProvider.
func (t *Tree) ChildCount(n domain.Node) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return 0, err
	}
	return len(rec.children), nil
}

// TextLength implements ports.TreeProvider.
func (t *Tree) TextLength(n domain.Node) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return 0, err
	}
	if !rec.hasText {
		return 0, domain.ErrNoText
	}
	return len(rec.text), nil
}

// Substring implements ports.TreeProvider. Offsets are clamped to the text.
func (t *Tree) Substring(n domain.Node, start, end int) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return "", err
	}
	if !rec.hasText {
		return "", domain.ErrNoText
	}
	if end < 0 || end > len(rec.text) {
		end = len(rec.text)
	}
	start = max(0, min(start, end))
	return string(rec.text[start:end]), nil
}

// TextAttributes implements ports.TreeProvider.
func (t *Tree) TextAttributes(n domain.Node, offset int) (map[string]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return nil, err
	}
	if !rec.hasText {
		return nil, domain.ErrNoText
	}
	out := make(map[string]string)
	for _, run := range rec.textRuns {
		if offset >= run.Start && offset < run.End {
			maps.Copy(out, run.Attributes)
		}
	}
	return out, nil
}

// Attributes implements ports.TreeProvider.
func (t *Tree) Attributes(n domain.Node) (map[string]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.get(n)
	if err != nil {
		return nil, err
	}
	return maps.Clone(rec.attrs), nil
}

// SetCaret implements ports.TreeProvider.
func (t *Tree) SetCaret(n domain.Node, offset int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.get(n); err != nil {
		return err
	}
	t.caret = domain.At(n, offset)
	return nil
}

// PerformAction implements ports.TreeProvider.
func (t *Tree) PerformAction(n domain.Node, action string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.get(n); err != nil {
		return err
	}
	t.actions = append(t.actions, Action{NodeID: n.ID(), Name: action})
	return nil
}

// Caret returns the last position set through SetCaret.
func (t *Tree) Caret() domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.caret
}

// Actions returns the recorded PerformAction calls.
func (t *Tree) Actions() []Action {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Action(nil), t.actions...)
}

// Kill makes every query about id fail as if the node had been destroyed.
func (t *Tree) Kill(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.nodes[id]; ok {
		rec.dead = true
	}
}

// Revive undoes Kill.
func (t *Tree) Revive(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.nodes[id]; ok {
		rec.dead = false
	}
}

// SetParent makes id report parent as its parent without touching any child list.
// It is used to model malformed trees (self-parenting, cycles).
func (t *Tree) SetParent(id, parent string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.nodes[id]; ok {
		rec.parent = parent
	}
}

// SetText replaces the text of a node, modelling a live document edit.
func (t *Tree) SetText(id, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrStaleNode, id)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("text for %s is not valid UTF-8", id)
	}
	rec.hasText = true
	rec.text = []rune(text)
	return nil
}

// SetStates replaces the state set of a node.
func (t *Tree) SetStates(id string, states domain.StateSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.nodes[id]; ok {
		rec.states = states
	}
}
