package caret_test

import (
	"context"
	"testing"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/internal/caret"
	"github.com/aretw0/narrator/internal/navigation"
	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloWorld() *memory.Tree {
	return dsl.New("doc").
		Add(dsl.Paragraph("p", "Hello ").Embed(dsl.Link("a", "world")).Text("!")).
		MustBuild()
}

func mixedDoc() *memory.Tree {
	return dsl.New("doc").
		Add(
			dsl.Heading("h", "Title"),
			dsl.Section("sec").Children(
				dsl.Paragraph("p1", "One ").Embed(dsl.Link("a1", "two")).Text(" three."),
				dsl.Button("b1", "OK"),
				dsl.Paragraph("empty", ""),
			),
			dsl.Paragraph("p2", "Last\nline"),
		).
		MustBuild()
}

type driver struct {
	t    *testing.T
	tree *memory.Tree
	c    *caret.Navigator
	pos  domain.Position
	opts caret.Options
}

func newDriver(t *testing.T, tree *memory.Tree, opts ...caret.Option) *driver {
	return &driver{
		t:    t,
		tree: tree,
		c:    caret.New(navigation.New(access.New(tree)), opts...),
		pos:  domain.At(tree.Root(), 0),
	}
}

func (d *driver) at(id string, offset int) *driver {
	d.pos = domain.At(d.tree.Node(id), offset)
	return d
}

// do runs cmd and keeps the caret where it lands.
func (d *driver) do(cmd caret.Command) caret.Result {
	d.t.Helper()
	res, err := d.c.Do(context.Background(), cmd, d.pos, d.tree.Root(), d.opts)
	require.NoError(d.t, err)
	d.pos = res.Position
	return res
}

func text(res caret.Result) string {
	return domain.JoinText(res.Units)
}

func TestNextWord_AcrossEmbeddedLink(t *testing.T) {
	d := newDriver(t, helloWorld()).at("p", 0)

	var got []string
	for range 4 {
		res := d.do(caret.NextWord)
		if !res.Found {
			break
		}
		got = append(got, text(res))
	}
	assert.Equal(t, []string{"Hello", "world", "!"}, got)
	assert.Equal(t, "p@8", d.pos.String(), "caret stays put once no word is left")
	assert.Equal(t, "p@8", d.tree.Caret().String())
}

func TestPreviousWord(t *testing.T) {
	d := newDriver(t, helloWorld()).at("p", 8)

	res := d.do(caret.PreviousWord)
	assert.Equal(t, "!", text(res))
	assert.Equal(t, "p@7", res.Position.String())

	res = d.do(caret.PreviousWord)
	assert.Equal(t, "world", text(res))
	assert.Equal(t, "a@0", res.Position.String())

	res = d.do(caret.PreviousWord)
	assert.Equal(t, "Hello", text(res))
	assert.Equal(t, "p@0", res.Position.String())

	assert.False(t, d.do(caret.PreviousWord).Found)
}

func TestCharacters(t *testing.T) {
	d := newDriver(t, helloWorld()).at("p", 4)

	assert.Equal(t, " ", text(d.do(caret.NextCharacter)))
	assert.Equal(t, "w", text(d.do(caret.NextCharacter)))

	d.at("a", 4)
	res := d.do(caret.NextCharacter)
	assert.Equal(t, "p@7", res.Position.String(), "end of the link is passed over")
	assert.Equal(t, "!", text(res))

	res = d.do(caret.NextCharacter)
	assert.True(t, res.Found)
	assert.Equal(t, "p@8", res.Position.String())
	assert.Empty(t, res.Units)

	assert.False(t, d.do(caret.NextCharacter).Found)

	d.at("p", 7)
	assert.Equal(t, "d", text(d.do(caret.PreviousCharacter)))
}

func TestCharacters_Wrap(t *testing.T) {
	d := newDriver(t, helloWorld()).at("p", 8)
	d.opts.Wrap = true

	res := d.do(caret.NextCharacter)
	require.True(t, res.Found)
	assert.True(t, res.Wrapped)
	assert.Equal(t, "p@0", res.Position.String())

	res = d.do(caret.PreviousCharacter)
	assert.True(t, res.Wrapped)
	assert.Equal(t, "p@8", res.Position.String())
}

func TestLines(t *testing.T) {
	d := newDriver(t, mixedDoc()).at("h", 0)

	var got []string
	for {
		res := d.do(caret.NextLine)
		if !res.Found {
			break
		}
		got = append(got, d.pos.String()+" "+text(res))
	}
	assert.Equal(t, []string{
		"p1@0 One two three.",
		"b1@0 OK",
		"empty@0 ",
		"p2@0 Last",
		"p2@5 line",
	}, got)

	res := d.do(caret.PreviousLine)
	assert.Equal(t, "Last", text(res))
}

func TestLines_SkipBlank(t *testing.T) {
	d := newDriver(t, mixedDoc()).at("b1", 0)
	d.opts.SkipBlankLines = true

	assert.Equal(t, "Last", text(d.do(caret.NextLine)))
	assert.Equal(t, "OK", text(d.do(caret.PreviousLine)))
}

func TestLines_Wrap(t *testing.T) {
	d := newDriver(t, mixedDoc()).at("p2", 5)
	d.opts.Wrap = true

	res := d.do(caret.NextLine)
	assert.True(t, res.Wrapped)
	assert.Equal(t, "Title", text(res))
}

func TestStartAndEndOfLine(t *testing.T) {
	d := newDriver(t, mixedDoc()).at("p2", 2)

	res := d.do(caret.EndOfLine)
	assert.Equal(t, "p2@4", res.Position.String())
	assert.Equal(t, "\n", text(res))

	res = d.do(caret.StartOfLine)
	assert.Equal(t, "p2@0", res.Position.String())
	assert.Equal(t, "L", text(res))
}

func TestSentences(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Paragraph("p", "First one. Second one! Third?")).MustBuild()
	d := newDriver(t, tree).at("p", 0)

	res := d.do(caret.NextSentence)
	assert.Equal(t, "p@11", res.Position.String())
	assert.Equal(t, "Second one!", text(res))
	assert.Equal(t, "p@23", d.do(caret.NextSentence).Position.String())
	assert.False(t, d.do(caret.NextSentence).Found)

	assert.Equal(t, "p@11", d.do(caret.PreviousSentence).Position.String())
	d.at("p", 15)
	assert.Equal(t, "p@0", d.do(caret.PreviousSentence).Position.String())
}

func TestFileBoundaries(t *testing.T) {
	d := newDriver(t, mixedDoc())

	res := d.do(caret.EndOfFile)
	assert.Equal(t, "p2@9", res.Position.String())
	assert.Equal(t, "line", text(res))

	res = d.do(caret.StartOfFile)
	assert.Equal(t, "h@0", res.Position.String())
	assert.Equal(t, "Title", text(res))
}

func TestCurrentQueries(t *testing.T) {
	d := newDriver(t, mixedDoc()).at("a1", 1)

	assert.Equal(t, "w", text(d.do(caret.CurrentCharacter)))
	assert.Equal(t, "two", text(d.do(caret.CurrentWord)))
	assert.Equal(t, "One two three.", text(d.do(caret.CurrentLine)))
	assert.Equal(t, "One two three.", text(d.do(caret.CurrentSentence)))
	assert.Equal(t, "a1@1", d.pos.String(), "queries do not move the caret")
}

func TestCurrentQueries_BlankLine(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Paragraph("p", "A\n\nB")).MustBuild()
	d := newDriver(t, tree).at("p", 2)

	line := d.do(caret.CurrentLine)
	assert.True(t, line.Found)
	assert.Empty(t, line.Units)
	assert.False(t, d.do(caret.CurrentWord).Found, "no word under or right before the caret")
	assert.Equal(t, "p@2", d.pos.String())
}

func TestEmptyDocument(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Section("s")).MustBuild()
	d := newDriver(t, tree)

	for _, cmd := range caret.Commands() {
		res := d.do(cmd)
		assert.False(t, res.Found, cmd)
	}
}

func TestErrors(t *testing.T) {
	tree := helloWorld()
	c := caret.New(navigation.New(access.New(tree)))
	ctx := context.Background()

	_, err := c.Do(ctx, caret.NextWord, domain.NullPosition, nil, caret.Options{})
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	_, err = c.Do(ctx, "fly", domain.NullPosition, tree.Root(), caret.Options{})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)

	_, err = caret.ParseCommand("fly")
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
	cmd, err := caret.ParseCommand("next_line")
	require.NoError(t, err)
	assert.Equal(t, domain.CauseMoveDown, cmd.InterruptCause())
}

func TestCaretOutsideRootRestarts(t *testing.T) {
	tree := mixedDoc()
	c := caret.New(navigation.New(access.New(tree)))

	res, err := c.Do(context.Background(), caret.NextWord, domain.At(tree.Node("h"), 0), tree.Node("sec"), caret.Options{})
	require.NoError(t, err)
	assert.Equal(t, "One", text(res))
}

func TestHooks(t *testing.T) {
	var events []*domain.CaretEvent
	hooks := domain.LifecycleHooks{
		OnCaretMoved: func(_ context.Context, e *domain.CaretEvent) { events = append(events, e) },
	}
	d := newDriver(t, helloWorld(), caret.WithHooks(hooks), caret.WithSessionID("s1")).at("p", 0)

	d.do(caret.NextWord)
	d.do(caret.EndOfFile)
	d.do(caret.NextWord)

	require.Len(t, events, 3)
	assert.Equal(t, "next_word", events[0].Command)
	assert.Equal(t, "p", events[0].NodeID)
	assert.Equal(t, 5, events[0].Offset)
	assert.Equal(t, "s1", events[0].SessionID)
	assert.False(t, events[2].Found)
}
