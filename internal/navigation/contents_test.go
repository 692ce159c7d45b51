package navigation

import (
	"strings"
	"testing"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(units []domain.ContentUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Text)
	}
	return out
}

func TestRun_CrossesInlineObjects(t *testing.T) {
	tree := helloWorld()
	nv := New(access.New(tree))

	r := nv.RunAt(domain.At(tree.Node("a"), 2), tree.Root())
	require.NotNil(t, r)
	assert.Equal(t, "p", r.Block.ID())
	assert.Equal(t, "Hello world!", r.String())
	assert.Equal(t, "p@0", r.First().String())
	assert.Equal(t, "p@8", r.Last().String())
	assert.Equal(t, 8, r.IndexOf(domain.At(tree.Node("a"), 2)))
	assert.Equal(t, 11, r.IndexOf(domain.At(tree.Node("a"), 5)))
	assert.Nil(t, nv.NextRun(r))
	assert.Nil(t, nv.PreviousRun(r))
}

func TestRun_Words(t *testing.T) {
	tree := helloWorld()
	nv := New(access.New(tree))
	r := nv.RunAt(domain.At(tree.Node("p"), 0), tree.Root())

	words := r.Words()
	require.Len(t, words, 3)

	assert.Equal(t, "Hello", words[0].Text())
	assert.Equal(t, "p@5", words[0].End.String())

	assert.Equal(t, "world", words[1].Text())
	assert.Equal(t, "a@0", words[1].Start.String())
	assert.Equal(t, "a@5", words[1].End.String())
	require.Len(t, words[1].Units, 1)
	assert.Equal(t, domain.ContentUnit{Node: tree.Node("a"), Start: 0, End: 5, Text: "world"}, words[1].Units[0])

	assert.Equal(t, "!", words[2].Text())
	assert.Equal(t, "p@7", words[2].Start.String())
	assert.Equal(t, "p@8", words[2].End.String())
}

func TestRun_SentenceAcrossLink(t *testing.T) {
	tree := mixedDoc()
	nv := New(access.New(tree))

	units := nv.SentenceContentsAt(domain.At(tree.Node("a1"), 1), tree.Root())
	assert.Equal(t, []string{"One ", "two", " three."}, texts(units))
	assert.Equal(t, "p1", units[0].Node.ID())
	assert.Equal(t, 5, units[2].Start)
	assert.Equal(t, 12, units[2].End)
}

func TestRun_Lines(t *testing.T) {
	tree := mixedDoc()
	nv := New(access.New(tree))

	line, r, ok := nv.LineAt(domain.At(tree.Node("p2"), 2), tree.Root())
	require.True(t, ok)
	assert.Equal(t, "Last", line.Text())
	assert.Equal(t, "p2@0", line.Start.String())
	assert.Equal(t, "p2@4", line.End.String(), "end of line is the newline stop")

	lines := r.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "line", lines[1].Text())
	assert.Equal(t, "p2@9", lines[1].End.String())
	assert.Equal(t, 1, r.LineIndex(lines, domain.At(tree.Node("p2"), 9)))
}

func TestRun_TrailingNewlineJoinsLastLine(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Paragraph("p", "Line one.\n")).MustBuild()
	nv := New(access.New(tree))

	r := nv.RunAt(domain.At(tree.Node("p"), 0), tree.Root())
	lines := r.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Line one.", lines[0].Text())
	assert.Equal(t, "p@9", lines[0].End.String())
}

func TestRun_BlocksSplitRuns(t *testing.T) {
	tree := mixedDoc()
	nv := New(access.New(tree))

	var runs []string
	for r := nv.RunAt(nv.First(tree.Root()), tree.Root()); r != nil; r = nv.NextRun(r) {
		runs = append(runs, r.Block.ID()+":"+r.String())
	}
	assert.Equal(t, []string{
		"h:Title",
		"p1:One two three.",
		"sec:\uFFFC",
		"empty:",
		"p2:Last\nline",
	}, runs)
}

func TestRun_DisplayOverridesRole(t *testing.T) {
	tree := dsl.New("doc").
		Add(dsl.Paragraph("p", "a ").Embed(dsl.Node("s", "static text").Text("b").Block()).Text(" c")).
		MustBuild()
	nv := New(access.New(tree))

	r := nv.RunAt(domain.At(tree.Node("p"), 0), tree.Root())
	assert.Equal(t, "a ", r.String())
	r = nv.NextRun(r)
	require.NotNil(t, r)
	assert.Equal(t, "s", r.Block.ID())
}

func TestCharacterAt(t *testing.T) {
	tree := mixedDoc()
	nv := New(access.New(tree))

	u, ok := nv.CharacterAt(domain.At(tree.Node("p1"), 1))
	require.True(t, ok)
	assert.Equal(t, "n", u.Text)

	u, ok = nv.CharacterAt(domain.At(tree.Node("b1"), 0))
	require.True(t, ok)
	assert.Equal(t, domain.ContentUnit{Node: tree.Node("b1"), Start: 0, End: 1, Text: "OK"}, u)

	u, ok = nv.CharacterAt(domain.At(tree.Node("p1"), 4))
	require.True(t, ok)
	assert.Equal(t, "a1", u.Node.ID(), "a marker offset maps onto the embedded object")
	assert.Equal(t, "t", u.Text)
}

func TestWordAt_ObjectsAreWords(t *testing.T) {
	tree := mixedDoc()
	nv := New(access.New(tree))

	units := nv.WordContentsAt(domain.At(tree.Node("b1"), 0), tree.Root())
	assert.Equal(t, []string{"OK"}, texts(units))

	seg, _, ok := nv.WordAt(domain.At(tree.Node("p1"), 3), tree.Root())
	require.True(t, ok)
	assert.Equal(t, "One", seg.Text(), "a caret right after a word reads that word")
}

func TestCursor_ReusesRunInsideBlock(t *testing.T) {
	tree := dsl.New("doc").Add(
		dsl.Paragraph("p", strings.Repeat("line of text\n", 200)),
		dsl.Paragraph("q", "After."),
	).MustBuild()
	nv := New(access.New(tree))
	cur := nv.Cursor(tree.Root())

	var got []string
	for pos := nv.First(tree.Root()); !pos.IsNull(); {
		seg, ok := cur.SegmentAt(pos, domain.GranularityLine)
		require.True(t, ok)
		want, _, _ := nv.LineAt(pos, tree.Root())
		require.Equal(t, want.Units, seg.Units, "at %s", pos)
		got = append(got, seg.Text())
		pos = cur.Next(seg.Units[len(seg.Units)-1].EndPosition())
	}

	require.Len(t, got, 201)
	assert.Equal(t, "line of text", got[199])
	assert.Equal(t, "After.", got[200])
	assert.Equal(t, 2, cur.Builds(), "one run per block")
}

func TestCursor_RebuildsAfterEdit(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Paragraph("p", "First line.\nSecond line.")).MustBuild()
	nv := New(access.New(tree))
	cur := nv.Cursor(tree.Root())

	seg, ok := cur.SegmentAt(domain.At(tree.Node("p"), 0), domain.GranularityLine)
	require.True(t, ok)
	assert.Equal(t, "First line.", seg.Text())

	require.NoError(t, tree.SetText("p", "Short."))
	seg, ok = cur.SegmentAt(domain.At(tree.Node("p"), 0), domain.GranularityLine)
	require.True(t, ok)
	assert.Equal(t, "Short.", seg.Text())
	assert.Equal(t, 2, cur.Builds())
}

func TestRun_LookupsInLongRun(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Paragraph("p", strings.Repeat("Word one. ", 300))).MustBuild()
	nv := New(access.New(tree))
	r := nv.RunAt(domain.At(tree.Node("p"), 0), tree.Root())
	require.NotNil(t, r)

	pos := domain.At(tree.Node("p"), 2005) // the "one" of the 201st sentence
	assert.Equal(t, 2005, r.IndexOf(pos))
	assert.Equal(t, 0, r.IndexOf(domain.At(tree.Node("elsewhere"), 3)))

	w, ok := r.WordAt(pos)
	require.True(t, ok)
	assert.Equal(t, "one", w.Text())
	assert.Equal(t, 2005, w.From)

	s, ok := r.SentenceAt(pos)
	require.True(t, ok)
	assert.Equal(t, "Word one.", s.Text())
	assert.Equal(t, 2000, s.From)

	lines := r.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, 0, r.LineIndex(lines, pos))
}
