// Package validator checks a document for problems that leave parts of it silent or
// unreachable to a screen reader user.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/pkg/domain"
)

const maxDepth = 64

// ValidateDocument walks the subtree of root and reports:
//   - nodes whose queries fail (stale or corrupt)
//   - text nodes with more embedded object markers than children
//   - headings without text
//   - interactive nodes and links with no accessible name, no text and no label
//   - labels describing a node that is not in the document
func ValidateDocument(f *access.Facade, root domain.Node) error {
	ids := make(map[string]bool)
	labelled := make(map[string]bool)
	type labelRef struct{ label, target string }
	var refs []labelRef
	var problems []string

	var order []domain.Node
	var walk func(n domain.Node, depth int)
	walk = func(n domain.Node, depth int) {
		id := domain.NodeID(n)
		if ids[id] {
			return
		}
		ids[id] = true
		if depth > maxDepth {
			problems = append(problems, fmt.Sprintf("'%s' is nested deeper than %d levels", id, maxDepth))
			return
		}
		f.Role(n)
		if f.IsDead(n) {
			problems = append(problems, fmt.Sprintf("'%s' cannot be read", id))
			return
		}
		order = append(order, n)
		if target := f.Attribute(n, domain.AttrLabelFor); target != "" {
			labelled[target] = true
			refs = append(refs, labelRef{id, target})
		}
		for _, child := range f.Children(n) {
			walk(child, depth+1)
		}
	}
	walk(root, 0)

	for _, n := range order {
		id := domain.NodeID(n)
		role := f.Role(n)
		text := ""
		if f.SupportsText(n) {
			raw := string(f.Text(n))
			if markers := strings.Count(raw, string(domain.EmbeddedObjectChar)); markers > f.ChildCount(n) {
				problems = append(problems, fmt.Sprintf("'%s' has %d embedded markers but %d children", id, markers, f.ChildCount(n)))
			}
			text = strings.TrimSpace(strings.ReplaceAll(raw, string(domain.EmbeddedObjectChar), ""))
		}

		switch {
		case role == domain.RoleHeading && text == "" && len(f.Children(n)) == 0:
			problems = append(problems, fmt.Sprintf("heading '%s' is empty", id))
		case role.IsInteractive() || role == domain.RoleLink || role == domain.RoleButton:
			if text == "" && strings.TrimSpace(f.Name(n)) == "" && !labelled[id] && !hasText(f, n) {
				problems = append(problems, fmt.Sprintf("%s '%s' has no accessible name", role, id))
			}
		}
	}

	for _, ref := range refs {
		if !ids[ref.target] {
			problems = append(problems, fmt.Sprintf("label '%s' describes missing node '%s'", ref.label, ref.target))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// hasText reports whether any descendant of n carries visible text, as in a link wrapping
// a text node.
func hasText(f *access.Facade, n domain.Node) bool {
	return f.FindDescendant(n, func(d domain.Node) bool {
		if !f.SupportsText(d) {
			return strings.TrimSpace(f.Name(d)) != ""
		}
		return strings.TrimSpace(strings.ReplaceAll(string(f.Text(d)), string(domain.EmbeddedObjectChar), "")) != ""
	}) != nil
}
