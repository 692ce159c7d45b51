/*
Package session implements navigation session management and persistence orchestration.

A NavigationSession records the interaction mode and caret of one document. The Manager
serialises access to each session with a reference-counted local lock and, optionally, a
distributed lock so several replicas can serve the same session, and delegates storage to a
ports.SessionStore adapter.
*/
package session
