package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware keeps the reading position of sensitive documents out of storage.
// Sessions whose document ID matches one of the patterns are saved without their caret and
// last command; the mode bookkeeping is kept. Reopening such a document starts at the top.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, session *domain.NavigationSession) error {
	if !m.sensitive(session.DocumentID) {
		return m.next.Save(ctx, session)
	}
	// The caller keeps using its own copy.
	redacted := session.Clone()
	redacted.CaretNodeID = ""
	redacted.CaretOffset = 0
	redacted.LastCommand = ""
	return m.next.Save(ctx, redacted)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.NavigationSession, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) sensitive(documentID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(documentID) {
			return true
		}
	}
	return false
}
