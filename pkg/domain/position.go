package domain

import "fmt"

// Position is a logical cursor inside a document: a node and a character offset.
// Offsets count runes. The zero value (nil node) denotes "nowhere", the end of navigable space.
type Position struct {
	Node   Node
	Offset int
}

// NullPosition is the "nowhere" position.
var NullPosition = Position{}

// At builds a Position.
func At(n Node, offset int) Position {
	return Position{Node: n, Offset: offset}
}

// IsNull reports whether the position denotes "nowhere".
func (p Position) IsNull() bool {
	return p.Node == nil
}

// Equal reports whether both positions point at the same node identity and offset.
func (p Position) Equal(o Position) bool {
	if p.IsNull() || o.IsNull() {
		return p.IsNull() && o.IsNull()
	}
	return p.Offset == o.Offset && SameNode(p.Node, o.Node)
}

func (p Position) String() string {
	if p.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%s@%d", p.Node.ID(), p.Offset)
}
