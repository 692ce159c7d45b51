/*
Package ports defines the driven ports (interfaces) of the narrator engine.

These interfaces decouple the navigation core from the collaborators it does not own:
the accessibility tree, the speech backend, session storage and presentation.

# Key Interfaces

  - TreeProvider: Role/state/text/child/parent queries against the external tree.
  - SpeechEngine: Consumes a lazy stream of utterances and reports progress.
  - SessionStore: Persists NavigationSession snapshots.
  - DistributedLocker: Serialises access to a session across replicas.
  - Presenter: Receives region/context-changed notifications.
*/
package ports
