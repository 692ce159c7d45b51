package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/internal/presentation/graph"
	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func form() *memory.Tree {
	return dsl.New("doc").
		Add(
			dsl.Paragraph("intro", "Read the ").Embed(dsl.Link("manual", "manual")).Text(" first."),
			dsl.Node("name-label", "label").Name("Name").LabelFor("name"),
			dsl.Entry("name", "Ada"),
			dsl.Paragraph("long", `A "quoted" paragraph that goes on and on`),
		).
		MustBuild()
}

func TestGenerateMermaid_Shapes(t *testing.T) {
	tree := form()
	out := graph.GenerateMermaid(access.New(tree), tree.Root(), nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	for _, want := range []string{
		`doc(("doc <br/> document"))`,
		`intro["intro <br/> paragraph <br/> Read the first."]`,
		`manual[["manual <br/> link <br/> manual"]]`,
		`name[/"name <br/> entry <br/> Ada"/]`,
		"doc --> intro",
		"intro --> manual",
		"name_label -. labels .-> name",
		`long["long <br/> paragraph <br/> A 'quoted' paragraph th…"]`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	tree := form()
	out := graph.GenerateMermaid(access.New(tree), tree.Root(), &graph.Overlay{
		VisitedNodes: []string{"intro", "intro", "ghost"},
		CurrentNode:  "name",
	})

	assert.Contains(t, out, "classDef visited")
	assert.Equal(t, 1, strings.Count(out, "class intro visited;"))
	assert.NotContains(t, out, "class ghost")
	assert.Contains(t, out, "class name current;")
}

func TestGenerateMermaid_SkipsDeadNodes(t *testing.T) {
	tree := form()
	f := access.New(tree)
	tree.Kill("long")
	f.Role(tree.Node("long"))
	out := graph.GenerateMermaid(f, tree.Root(), nil)

	assert.NotContains(t, out, "long")
}
