/*
Package domain contains the core domain models of the narrator engine.

It defines the vocabulary shared by every other package: the closed enumerations of
accessible roles and states, the opaque Node handle, the Position (a node and an offset),
the ContentUnit extracted from a document, interaction modes and the narration signals.
This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Node: An opaque, possibly stale handle into an externally owned accessible tree.
  - Position: A logical cursor (node, offset). The zero value denotes "nowhere".
  - ContentUnit: A fragment of text (word, line, sentence) with its node and range.
  - NavigationSession: Per-document interaction mode bookkeeping.
  - LifecycleHooks: Observability callbacks fired by the engine.
*/
package domain
