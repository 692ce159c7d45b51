package dsl

import (
	"fmt"

	"github.com/aretw0/narrator/pkg/adapters/memory"
)

// Builder manages the document construction.
type Builder struct {
	root *NodeBuilder
}

// New creates a new document builder with a document root.
func New(id string) *Builder {
	return &Builder{root: Node(id, "document")}
}

// Root returns the builder of the document root.
func (b *Builder) Root() *NodeBuilder {
	return b.root
}

// Add appends children to the document root.
func (b *Builder) Add(children ...*NodeBuilder) *Builder {
	b.root.Children(children...)
	return b
}

// Build compiles the document into an in-memory tree.
func (b *Builder) Build() (*memory.Tree, error) {
	tree, err := memory.NewTree(b.root.spec())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory tree: %w", err)
	}
	return tree, nil
}

// MustBuild is Build for tests and examples; it panics on error.
func (b *Builder) MustBuild() *memory.Tree {
	tree, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tree
}
