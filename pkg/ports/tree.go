package ports

import "github.com/aretw0/narrator/pkg/domain"

// TreeProvider is the external accessibility tree.
//
// Every method must be safe to call with a stale or invalid handle: it returns an error
// (typically domain.ErrStaleNode) instead of panicking. Text offsets count runes.
type TreeProvider interface {
	Role(n domain.Node) (domain.Role, error)
	States(n domain.Node) (domain.StateSet, error)
	Name(n domain.Node) (string, error)

	// Parent returns nil without error for the root of the tree.
	Parent(n domain.Node) (domain.Node, error)
	Child(n domain.Node, index int) (domain.Node, error)
	ChildCount(n domain.Node) (int, error)

	// TextLength returns domain.ErrNoText when the node has no text capability.
	TextLength(n domain.Node) (int, error)
	// Substring returns the characters in [start, end). end < 0 means "to the end".
	Substring(n domain.Node, start, end int) (string, error)
	// TextAttributes returns the text attributes in effect at offset.
	TextAttributes(n domain.Node, offset int) (map[string]string, error)
	// SetCaret moves the application's own caret (or focus, for non-text nodes).
	SetCaret(n domain.Node, offset int) error

	// Attributes returns the object attributes of the node.
	Attributes(n domain.Node) (map[string]string, error)
	PerformAction(n domain.Node, action string) error
}

// NodeResolver is implemented by providers that can turn a stored identity back into a
// handle. It lets a persisted NavigationSession restore its caret.
type NodeResolver interface {
	Resolve(id string) (domain.Node, error)
}
