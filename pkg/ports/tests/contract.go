package tests

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// TreeProviderContractTest is a reusable test suite that verifies if an adapter complies with
// ports.TreeProvider. root must be a live node; stale must be a handle the provider no longer
// recognizes (nil skips the stale-handle checks).
func TreeProviderContractTest(t *testing.T, provider ports.TreeProvider, root, stale domain.Node) {
	t.Helper()

	// 1. Root has no parent
	t.Run("Root_Parent", func(t *testing.T) {
		parent, err := provider.Parent(root)
		if err != nil {
			t.Fatalf("unexpected error getting root parent: %v", err)
		}
		if parent != nil {
			t.Errorf("expected nil parent for root, got %s", parent.ID())
		}
	})

	// 2. Parent/child relationships agree and text lengths match substrings
	t.Run("Structure_Consistent", func(t *testing.T) {
		visited := make(map[string]bool)
		var walk func(n domain.Node)
		walk = func(n domain.Node) {
			if visited[n.ID()] {
				t.Fatalf("node %s reached twice", n.ID())
			}
			visited[n.ID()] = true

			count, err := provider.ChildCount(n)
			if err != nil {
				t.Fatalf("child count of %s: %v", n.ID(), err)
			}
			for i := range count {
				child, err := provider.Child(n, i)
				if err != nil {
					t.Fatalf("child %d of %s: %v", i, n.ID(), err)
				}
				parent, err := provider.Parent(child)
				if err != nil {
					t.Fatalf("parent of %s: %v", child.ID(), err)
				}
				if !domain.SameNode(parent, n) {
					t.Errorf("child %s of %s reports parent %s", child.ID(), n.ID(), domain.NodeID(parent))
				}
				walk(child)
			}

			length, err := provider.TextLength(n)
			if errors.Is(err, domain.ErrNoText) {
				return
			}
			if err != nil {
				t.Fatalf("text length of %s: %v", n.ID(), err)
			}
			text, err := provider.Substring(n, 0, -1)
			if err != nil {
				t.Fatalf("substring of %s: %v", n.ID(), err)
			}
			if got := utf8.RuneCountInString(text); got != length {
				t.Errorf("node %s: text length %d, substring has %d characters", n.ID(), length, got)
			}
		}
		walk(root)
	})

	// 3. Out-of-range children are errors
	t.Run("Child_OutOfRange", func(t *testing.T) {
		count, err := provider.ChildCount(root)
		if err != nil {
			t.Fatalf("child count: %v", err)
		}
		if _, err := provider.Child(root, count); err == nil {
			t.Error("expected error for out-of-range child index, got nil")
		}
	})

	// 4. Stale handles error instead of panicking
	t.Run("Stale_Handle", func(t *testing.T) {
		if stale == nil {
			t.Skip("no stale handle supplied")
		}
		if _, err := provider.Role(stale); err == nil {
			t.Error("expected error for stale role query, got nil")
		}
		if _, err := provider.ChildCount(stale); err == nil {
			t.Error("expected error for stale child count query, got nil")
		}
		if _, err := provider.Substring(stale, 0, -1); err == nil {
			t.Error("expected error for stale substring query, got nil")
		}
	})
}
