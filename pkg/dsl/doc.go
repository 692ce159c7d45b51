/*
Package dsl provides a Go DSL for programmatically constructing in-memory accessible documents.

It is the fluent counterpart of the YAML fixtures accepted by memory.LoadYAML, and is mostly used
in tests and examples where a document must be built inline.

Example usage:

	tree := dsl.New("doc").
		Add(
			dsl.Heading("h1", "Welcome"),
			dsl.Paragraph("p1", "Read the ").
				Embed(dsl.Link("a1", "manual")).
				Text(" first."),
			dsl.Button("ok", "OK"),
		).
		MustBuild()

	// tree implements ports.TreeProvider
	n := narrator.New(tree, engine)
*/
package dsl
