package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewNavigationSession(sessionID, "doc-1")
		s.Mode = domain.ModePassThrough
		s.Sticky = true
		s.CaretNodeID = "p1"
		s.CaretOffset = 7
		s.LastCommand = "next_word"

		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "doc-1", loaded.DocumentID)
		assert.Equal(t, domain.ModePassThrough, loaded.Mode)
		assert.True(t, loaded.Sticky)
		assert.Equal(t, "p1", loaded.CaretNodeID)
		assert.Equal(t, 7, loaded.CaretOffset)
		assert.Equal(t, "next_word", loaded.LastCommand)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewNavigationSession(sessionID, "doc-1")))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewNavigationSession(id1, "doc"))
		_ = store.Save(ctx, domain.NewNavigationSession(id2, "doc"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
