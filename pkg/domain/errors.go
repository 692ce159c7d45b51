package domain

import (
	"errors"
	"fmt"
)

// Provider errors
var (
	// ErrNoText is returned by a TreeProvider when a node does not implement the text capability.
	// It is a capability answer, not a failure, and never marks a node dead.
	ErrNoText = errors.New("node does not support text")

	// ErrStaleNode is returned by a TreeProvider when a handle no longer refers to a live node.
	ErrStaleNode = errors.New("stale accessible node")
)

// Navigation errors
var (
	// ErrNotFound means a command could not produce a destination (document boundary,
	// empty document). It is the neutral "location not found" outcome.
	ErrNotFound = errors.New("location not found")

	// ErrNoDocument is returned when a command needs a document root and none is set.
	ErrNoDocument = errors.New("no active document")
)

// Session errors
var (
	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownCommand is returned by the command surface for unregistered command names.
	ErrUnknownCommand = errors.New("unknown command")
)

// CorruptionError describes a structural invariant violated by the external tree
// (self-parenting, a cycle, an out-of-range index). It is logged, never surfaced to users.
type CorruptionError struct {
	NodeID string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("tree corruption at %s: %s", e.NodeID, e.Reason)
}

// NewCorruption builds a CorruptionError for n.
func NewCorruption(n Node, reason string) *CorruptionError {
	return &CorruptionError{NodeID: NodeID(n), Reason: reason}
}
