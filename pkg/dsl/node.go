package dsl

import (
	"maps"

	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node     memory.NodeSpec
	text     []rune
	hasText  bool
	children []*NodeBuilder
}

// Node starts a node with the given role name (as understood by domain.ParseRole).
func Node(id, role string) *NodeBuilder {
	return &NodeBuilder{node: memory.NodeSpec{ID: id, Role: role}}
}

// Paragraph starts a paragraph holding text.
func Paragraph(id, text string) *NodeBuilder { return Node(id, "paragraph").Text(text) }

// Heading starts a heading holding text.
func Heading(id, text string) *NodeBuilder { return Node(id, "heading").Text(text) }

// Link starts a link holding text.
func Link(id, text string) *NodeBuilder { return Node(id, "link").Text(text) }

// Section starts a layout section.
func Section(id string) *NodeBuilder { return Node(id, "section") }

// Button starts a focusable button leaf named name.
func Button(id, name string) *NodeBuilder {
	return Node(id, "button").Name(name).States(domain.StateFocusable, domain.StateSensitive)
}

// Entry starts an editable text field.
func Entry(id, text string) *NodeBuilder {
	return Node(id, "entry").Text(text).States(domain.StateFocusable, domain.StateEditable)
}

// Text appends text and gives the node the text capability.
func (n *NodeBuilder) Text(content string) *NodeBuilder {
	n.hasText = true
	n.text = append(n.text, []rune(content)...)
	return n
}

// Embed appends an embedded object marker to the text and the object as the next child.
func (n *NodeBuilder) Embed(child *NodeBuilder) *NodeBuilder {
	n.hasText = true
	n.text = append(n.text, domain.EmbeddedObjectChar)
	n.children = append(n.children, child)
	return n
}

// Children appends children that are not referenced from the text.
func (n *NodeBuilder) Children(children ...*NodeBuilder) *NodeBuilder {
	n.children = append(n.children, children...)
	return n
}

// Name sets the accessible name.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// States adds states to the node.
func (n *NodeBuilder) States(states ...domain.State) *NodeBuilder {
	for _, st := range states {
		n.node.States = append(n.node.States, st.String())
	}
	return n
}

// Attr sets an object attribute.
func (n *NodeBuilder) Attr(key, value string) *NodeBuilder {
	if n.node.Attributes == nil {
		n.node.Attributes = make(map[string]string)
	}
	n.node.Attributes[key] = value
	return n
}

// LabelFor marks the node as the label of target.
func (n *NodeBuilder) LabelFor(target string) *NodeBuilder {
	return n.Attr(domain.AttrLabelFor, target)
}

// Inline marks a node as inline regardless of its role.
func (n *NodeBuilder) Inline() *NodeBuilder {
	return n.Attr(domain.AttrDisplay, "inline")
}

// Block marks a node as a block regardless of its role.
func (n *NodeBuilder) Block() *NodeBuilder {
	return n.Attr(domain.AttrDisplay, "block")
}

// Style applies text attributes to the character range [start, end).
func (n *NodeBuilder) Style(start, end int, attrs map[string]string) *NodeBuilder {
	n.node.TextAttributes = append(n.node.TextAttributes, memory.TextRun{
		Start:      start,
		End:        end,
		Attributes: maps.Clone(attrs),
	})
	return n
}

func (n *NodeBuilder) spec() memory.NodeSpec {
	spec := n.node
	if n.hasText {
		text := string(n.text)
		spec.Text = &text
	}
	spec.Children = make([]memory.NodeSpec, 0, len(n.children))
	for _, c := range n.children {
		spec.Children = append(spec.Children, c.spec())
	}
	return spec
}
