package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/narrator/pkg/adapters/file"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "", "version"), "narrator version")
}

func TestTree_Raw(t *testing.T) {
	out := run(t, "", "tree", "--raw")

	assert.True(t, strings.HasPrefix(out, "# document `demo`"), out)
	assert.Contains(t, out, "- heading `title`: Welcome to narrator")
	assert.Contains(t, out, "  - link `manual`: manual")
	assert.Contains(t, out, "- entry `name`")
}

func TestTree_Rendered(t *testing.T) {
	out := run(t, "", "tree", "--style", "notty", "--raw=false")
	assert.Contains(t, out, "Welcome to narrator")
}

func TestRead(t *testing.T) {
	out := run(t, "", "read")

	assert.True(t, strings.HasPrefix(out, "Welcome to narrator\n"), out)
	assert.Contains(t, out, "Press r to hear the rest of the document.\n")
	assert.Contains(t, out, "Press j during the narration to skip ahead.\n")
	assert.NotContains(t, out, "￼")
}

func TestRead_CustomDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	doc := "id: d\nrole: document\nchildren:\n  - id: p\n    role: paragraph\n    text: \"One.\\nTwo.\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out := run(t, "", "read", "--doc", path)
	rootCmd.PersistentFlags().Set("doc", "")
	assert.Equal(t, "One.\nTwo.\n", out)
}

func TestNav_Headless(t *testing.T) {
	out := run(t, "j\nzzz\nquit\n", "nav", "--headless", "--session", "cli-test")

	assert.Contains(t, out, "Move through this document with the caret commands.")
	assert.Contains(t, out, `[unknown command "zzz"]`)
}

func TestSession_FileStore(t *testing.T) {
	dir := t.TempDir()
	out := run(t, "", "session", "ls", "--session-dir", dir)
	assert.Contains(t, out, "No sessions found.")

	store := file.New(dir)
	require.NoError(t, store.Save(context.Background(), domain.NewNavigationSession("s1", "demo")))

	out = run(t, "", "session", "ls", "--session-dir", dir)
	assert.Contains(t, out, "- s1")

	out = run(t, "", "session", "inspect", "s1", "--session-dir", dir)
	assert.Contains(t, out, `"document_id": "demo"`)

	out = run(t, "", "session", "rm", "s1", "--session-dir", dir)
	assert.Contains(t, out, "Removed session 's1'")
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSession_EncryptedFileStore(t *testing.T) {
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	t.Cleanup(func() {
		sessionCmd.PersistentFlags().Set("encryption-key", "")
	})

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: bytes.Repeat([]byte{7}, 32)})
	require.NoError(t, err)
	require.NoError(t, mw(file.New(dir)).Save(context.Background(), domain.NewNavigationSession("s1", "demo")))

	raw, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "demo")

	out := run(t, "", "session", "inspect", "s1", "--session-dir", dir, "--encryption-key", key)
	assert.Contains(t, out, `"document_id": "demo"`)
}

func TestTree_Mermaid(t *testing.T) {
	t.Cleanup(func() {
		treeCmd.Flags().Set("format", "markdown")
		treeCmd.Flags().Set("highlight", "")
	})
	out := run(t, "", "tree", "--format", "mermaid", "--highlight", "name")

	assert.True(t, strings.HasPrefix(out, "graph TD\n"), out)
	assert.Contains(t, out, "intro --> manual")
	assert.Contains(t, out, "name_label -. labels .-> name")
	assert.Contains(t, out, "class name current;")
}

func TestCheck(t *testing.T) {
	assert.Contains(t, run(t, "", "check"), "demo is readable")

	path := filepath.Join(t.TempDir(), "doc.yaml")
	doc := "id: d\nrole: document\nchildren:\n  - id: b\n    role: button\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Cleanup(func() {
		rootCmd.PersistentFlags().Set("doc", "")
	})

	rootCmd.SetArgs([]string{"check", "--doc", path})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "button 'b' has no accessible name")
}
