package domain

import "time"

// Mode is the interaction mode of a document.
type Mode string

const (
	// ModeNavigation means keystrokes drive document traversal.
	ModeNavigation Mode = "navigation"
	// ModePassThrough means keystrokes go to the underlying interactive widget.
	ModePassThrough Mode = "pass_through"
)

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == ModePassThrough {
		return ModeNavigation
	}
	return ModePassThrough
}

// NavigationSession is the per-document (per host application) interaction bookkeeping.
// It is created on first entry into a document and deleted when the application closes.
// Only the mode decision and explicit toggle commands mutate Mode, Sticky and UserOverridden.
type NavigationSession struct {
	ID string `json:"id"`

	// DocumentID is the identity of the document root node.
	DocumentID string `json:"document_id"`

	Mode           Mode `json:"mode"`
	Sticky         bool `json:"sticky"`
	UserOverridden bool `json:"user_overridden"`

	// InEmbedded reports whether the last applied decision was inside an embedded application.
	InEmbedded bool `json:"in_embedded"`

	// CaretNodeID and CaretOffset mirror the virtual caret so a session can be restored.
	CaretNodeID string `json:"caret_node_id,omitempty"`
	CaretOffset int    `json:"caret_offset"`

	// LastCommand is the name of the last command that moved the caret.
	LastCommand string `json:"last_command,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds the encrypted snapshot when the store encrypts sessions at rest. The other
	// fields are then left empty except ID and UpdatedAt.
	Sealed string `json:"sealed,omitempty"`
}

// NewNavigationSession creates a session in Navigation mode.
func NewNavigationSession(id, documentID string) *NavigationSession {
	return &NavigationSession{
		ID:         id,
		DocumentID: documentID,
		Mode:       ModeNavigation,
		UpdatedAt:  time.Now(),
	}
}

// Clone returns a copy safe to mutate.
func (s *NavigationSession) Clone() *NavigationSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
