// Package tui renders documents and banners for a terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/pkg/domain"
)

// maxOutlineDepth bounds the outline of a corrupt tree.
const maxOutlineDepth = 64

// Outline renders the subtree of root as Markdown: a title for root and a nested list with
// one item per node giving its role, ID and own text. Embedded objects appear as nested
// items, not inline.
func Outline(f *access.Facade, root domain.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s `%s`\n\n", f.Role(root), domain.NodeID(root))
	if text := label(f, root); text != "" {
		fmt.Fprintf(&b, "%s\n\n", text)
	}

	visited := map[string]bool{domain.NodeID(root): true}
	var walk func(n domain.Node, depth int)
	walk = func(n domain.Node, depth int) {
		if depth > maxOutlineDepth {
			return
		}
		for _, child := range f.Children(n) {
			id := domain.NodeID(child)
			if visited[id] || f.IsDead(child) {
				continue
			}
			visited[id] = true

			fmt.Fprintf(&b, "%s- %s `%s`", strings.Repeat("  ", depth), f.Role(child), id)
			if text := label(f, child); text != "" {
				fmt.Fprintf(&b, ": %s", text)
			}
			b.WriteByte('\n')
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return b.String()
}

// label is the text a node shows by itself: its text without embedded object markers, or
// its accessible name.
func label(f *access.Facade, n domain.Node) string {
	text := f.Name(n)
	if f.SupportsText(n) {
		text = strings.ReplaceAll(string(f.Text(n)), string(domain.EmbeddedObjectChar), " ")
	}
	return escape(strings.Join(strings.Fields(text), " "))
}

var markdown = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "#", `\#`, "<", `\<`,
)

func escape(s string) string {
	return markdown.Replace(s)
}
