package domain

// EmbeddedObjectChar is the placeholder character a text node uses for a nested subtree.
// The n-th occurrence in a node's text stands for the node's n-th child.
const EmbeddedObjectChar = '\uFFFC'

// Object attribute keys understood by the engine.
const (
	// AttrLabelFor names the node a label describes. Non-empty means "label for another object".
	AttrLabelFor = "label-for"
	// AttrDisplay carries the CSS-like display of a node ("inline", "block").
	AttrDisplay = "display"
)

// Node is an opaque, possibly stale handle into an externally owned accessible tree.
// The engine never owns nodes; it only borrows handles from the TreeProvider.
type Node interface {
	// ID returns a stable identity for the handle. Equal IDs denote the same node.
	ID() string
}

// SameNode compares two handles by identity. Two nil handles are equal.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// NodeID returns the identity of n, or "" for a nil handle.
func NodeID(n Node) string {
	if n == nil {
		return ""
	}
	return n.ID()
}
