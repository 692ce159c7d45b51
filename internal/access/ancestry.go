package access

import "github.com/aretw0/narrator/pkg/domain"

// Ancestors returns the ancestors of n, nearest first.
// The walk stops at the first repeated identity (a cycle) or after MaxAncestors steps; what was
// collected so far is returned.
func (f *Facade) Ancestors(n domain.Node) []domain.Node {
	if n == nil {
		return nil
	}
	visited := map[string]struct{}{n.ID(): {}}
	var out []domain.Node
	for cur := f.Parent(n); cur != nil; cur = f.Parent(cur) {
		if _, seen := visited[cur.ID()]; seen {
			f.Corrupt(cur, "cycle in parent chain")
			return out
		}
		if len(out) >= MaxAncestors {
			f.Corrupt(n, "ancestor chain too deep")
			return out
		}
		visited[cur.ID()] = struct{}{}
		out = append(out, cur)
	}
	return out
}

// FindAncestor returns the nearest ancestor of n satisfying pred, or nil.
func (f *Facade) FindAncestor(n domain.Node, pred func(domain.Node) bool) domain.Node {
	for _, a := range f.Ancestors(n) {
		if pred(a) {
			return a
		}
	}
	return nil
}

// IsAncestor reports whether ancestor is a proper ancestor of n.
func (f *Facade) IsAncestor(ancestor, n domain.Node) bool {
	if ancestor == nil || n == nil {
		return false
	}
	return f.FindAncestor(n, func(a domain.Node) bool { return domain.SameNode(a, ancestor) }) != nil
}

// IsInside reports whether n is root or one of its descendants.
func (f *Facade) IsInside(n, root domain.Node) bool {
	return domain.SameNode(n, root) || f.IsAncestor(root, n)
}

// IndexInParent returns the position of n among its parent's children, or -1.
// It scans the parent instead of trusting a provider-reported index.
func (f *Facade) IndexInParent(n domain.Node) int {
	parent := f.Parent(n)
	if parent == nil {
		return -1
	}
	count := f.ChildCount(parent)
	for i := range count {
		if domain.SameNode(f.Child(parent, i), n) {
			return i
		}
	}
	f.Corrupt(n, "node is missing from its parent's children")
	return -1
}

// Root returns the topmost ancestor of n (n itself when it has no parent).
func (f *Facade) Root(n domain.Node) domain.Node {
	ancestors := f.Ancestors(n)
	if len(ancestors) == 0 {
		return n
	}
	return ancestors[len(ancestors)-1]
}

// FindDescendant returns the first node in depth-first order under root satisfying pred.
// Nodes reached twice are not expanded again.
func (f *Facade) FindDescendant(root domain.Node, pred func(domain.Node) bool) domain.Node {
	if root == nil {
		return nil
	}
	visited := make(map[string]struct{})
	stack := []domain.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n.ID()]; seen {
			f.Corrupt(n, "node reached twice in descendant walk")
			continue
		}
		visited[n.ID()] = struct{}{}
		if !domain.SameNode(n, root) && pred(n) {
			return n
		}
		children := f.Children(n)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}
