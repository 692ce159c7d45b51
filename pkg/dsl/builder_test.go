package dsl

import (
	"testing"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_EmbeddedObjects(t *testing.T) {
	tree, err := New("doc").
		Add(
			Paragraph("p1", "Hello ").Embed(Link("a1", "world")).Text("!"),
			Button("b1", "Submit"),
		).
		Build()
	require.NoError(t, err)

	text, err := tree.Substring(tree.Node("p1"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "Hello \uFFFC!", text)

	child, err := tree.Child(tree.Node("p1"), 0)
	require.NoError(t, err)
	assert.Equal(t, "a1", child.ID())

	count, err := tree.ChildCount(tree.Root())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = tree.TextLength(tree.Node("b1"))
	assert.ErrorIs(t, err, domain.ErrNoText)

	name, err := tree.Name(tree.Node("b1"))
	require.NoError(t, err)
	assert.Equal(t, "Submit", name)
}

func TestBuilder_Attributes(t *testing.T) {
	tree := New("doc").
		Add(
			Node("l1", "label").Text("Name").LabelFor("e1"),
			Entry("e1", ""),
			Node("s1", "static text").Text("inline?").Block(),
		).
		MustBuild()

	attrs, err := tree.Attributes(tree.Node("l1"))
	require.NoError(t, err)
	assert.Equal(t, "e1", attrs[domain.AttrLabelFor])

	states, err := tree.States(tree.Node("e1"))
	require.NoError(t, err)
	assert.True(t, states.Has(domain.StateEditable))

	attrs, err = tree.Attributes(tree.Node("s1"))
	require.NoError(t, err)
	assert.Equal(t, "block", attrs[domain.AttrDisplay])
}

func TestBuilder_DuplicateIDs(t *testing.T) {
	_, err := New("doc").Add(Paragraph("p", "a"), Paragraph("p", "b")).Build()
	assert.Error(t, err)
}
