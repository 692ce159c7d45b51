package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/narrator"
	"github.com/aretw0/narrator/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, script string) string {
	t.Helper()
	tree := dsl.New("doc").
		Add(
			dsl.Paragraph("p1", "First line."),
			dsl.Paragraph("p2", "Second line."),
		).
		MustBuild()

	var out bytes.Buffer
	n := narrator.New(tree, NewConsole(&out), narrator.WithPresenter(NewTextPresenter(&out, nil)))
	_, err := n.Open(context.Background(), "s1", tree.Root())
	require.NoError(t, err)

	r := NewRunner(n, "s1",
		WithInput(strings.NewReader(script)),
		WithOutput(&out),
		WithHeadless(true),
	)
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestRunner_KeysAndCommands(t *testing.T) {
	out := runScript(t, "j\ncurrent_line\nzzz\nr\nquit\nj\n")

	assert.Equal(t, strings.Join([]string{
		"Second line.",
		"Second line.",
		`[unknown command "zzz"]`,
		"Second line.",
	}, "\n")+"\n", out)
}

func TestRunner_PassThroughLeavesKeysUnhandled(t *testing.T) {
	out := runScript(t, "m\nj\nm\nj\n")

	assert.Equal(t, strings.Join([]string{
		"[pass through mode]",
		"[next_line not available here]",
		"[navigation mode]",
		"Second line.",
	}, "\n")+"\n", out)
}

func TestRunner_BoundaryIsAnnounced(t *testing.T) {
	out := runScript(t, "k\n")
	assert.Equal(t, "[location not found]\n", out)
}

func TestRunner_Prompt(t *testing.T) {
	tree := dsl.New("doc").Add(dsl.Paragraph("p", "Hi")).MustBuild()
	n := narrator.New(tree, nil)
	_, err := n.Open(context.Background(), "s1", tree.Root())
	require.NoError(t, err)

	var out bytes.Buffer
	r := NewRunner(n, "s1", WithInput(strings.NewReader("q\n")), WithOutput(&out))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "> ", out.String())
}

func TestRunner_Help(t *testing.T) {
	out := runScript(t, "help\n")

	assert.Contains(t, out, "next_word")
	assert.Contains(t, out, "say_all")
	assert.Regexp(t, `next_line\s+j`, out)
	assert.Regexp(t, `start_of_file\s+gg`, out)
}

func TestRunner_InputTooLarge(t *testing.T) {
	out := runScript(t, strings.Repeat("x", DefaultMaxInputSize+1)+"\n")
	assert.Contains(t, out, "input exceeds maximum allowed size")
}
