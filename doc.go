/*
Package narrator is a document navigation and narration engine for screen readers.

It reads an externally owned accessibility tree through a ports.TreeProvider and turns it
into an ordered stream of speakable units, while a virtual caret moves through that stream
independently of the host application's own focus.

# Concept

The host application ("Host") owns the tree, the keyboard and the voice. The Narrator owns
the per-document bookkeeping: which interaction mode is active (navigation or pass-through),
where the virtual caret is, and which narration is being spoken. Everything the Host asks for
goes through one command surface:

	handled, err := n.Execute(ctx, sessionID, "next_word", nil, true)

handled is false when the command does not apply (for example the document is in
pass-through mode), so the Host can forward the keystroke to the focused widget.

# Key Features

  - Fault tolerant: every tree query may fail; stale handles, cycles and self-parenting nodes
    degrade to safe defaults and never escape a command.
  - Embedded objects: text containing U+FFFC is read through the nested subtree it stands for.
  - Rewind and fast-forward: a running say-all restarts one unit back or ahead on up/down.
  - Durable sessions: modes and carets persist through a ports.SessionStore (memory, file,
    Redis).

# Usage

	tree := dsl.New("doc").
		Add(dsl.Paragraph("p", "Hello ").Embed(dsl.Link("a", "world")).Text("!")).
		MustBuild()

	n := narrator.New(tree, engine, narrator.WithPresenter(presenter))
	if _, err := n.Open(ctx, "session-1", tree.Root()); err != nil {
		log.Fatal(err)
	}
	n.Execute(ctx, "session-1", "next_word", nil, true) // presents "Hello"
	n.Execute(ctx, "session-1", "say_all", nil, true)   // reads to the end of the document
*/
package narrator
