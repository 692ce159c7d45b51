// Package graph draws the accessible tree of a document as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/pkg/domain"
)

const (
	maxDepth    = 64
	maxLabelLen = 24
)

// Overlay marks nodes of interest on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of the subtree of root. Shapes follow the
// role:
//   - Root: ((Circle))
//   - Link: [[Subroutine]]
//   - Interactive (entry, combo box...): [/Parallelogram/]
//   - Default: [Rectangle]
//
// Solid arrows go from parent to child; dotted arrows go from a label to the node it
// describes. The overlay, when given, styles visited nodes and the current one.
func GenerateMermaid(f *access.Facade, root domain.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var relations []string
	visited := make(map[string]bool)
	var walk func(n domain.Node, depth int)
	walk = func(n domain.Node, depth int) {
		id := domain.NodeID(n)
		if visited[id] || depth > maxDepth || f.IsDead(n) {
			return
		}
		visited[id] = true
		safeID := sanitizeMermaidID(id)
		role := f.Role(n)

		opener, closer := "[", "]"
		switch {
		case depth == 0:
			opener, closer = "((", "))"
		case role == domain.RoleLink:
			opener, closer = "[[", "]]"
		case role.IsInteractive():
			opener, closer = "[/", "/]"
		}
		label := fmt.Sprintf("%s <br/> %s", id, role)
		if text := summary(f, n); text != "" {
			label += " <br/> " + text
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if target := f.Attribute(n, domain.AttrLabelFor); target != "" {
			relations = append(relations, fmt.Sprintf("    %s -. labels .-> %s\n", safeID, sanitizeMermaidID(target)))
		}
		for _, child := range f.Children(n) {
			if f.IsDead(child) {
				continue
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(domain.NodeID(child)))
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	for _, r := range relations {
		sb.WriteString(r)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on the light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !styled[safeID] && visited[id] {
				styled[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" && visited[overlay.CurrentNode] {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// summary is the start of a node's own text, or its name, safe inside a quoted label.
func summary(f *access.Facade, n domain.Node) string {
	text := f.Name(n)
	if f.SupportsText(n) {
		text = strings.ReplaceAll(string(f.Text(n)), string(domain.EmbeddedObjectChar), " ")
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > maxLabelLen {
		text = string(r[:maxLabelLen-1]) + "…"
	}
	return strings.ReplaceAll(text, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
