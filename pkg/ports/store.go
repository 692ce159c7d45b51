package ports

import (
	"context"

	"github.com/aretw0/narrator/pkg/domain"
)

// SessionStore persists NavigationSession snapshots so that a document's interaction mode
// and caret survive the host reconnecting.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.NavigationSession) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.NavigationSession, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
