package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/aretw0/narrator/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.NavigationSession
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, ns *domain.NavigationSession) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.NavigationSession)
	}
	s.data[ns.ID] = ns.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.NavigationSession, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if ns, ok := s.data[sessionID]; ok {
		return ns.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateSerialisesWriters(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_, err := manager.LoadOrStart(ctx, id, "doc")
	require.NoError(t, err)

	var wg sync.WaitGroup
	const writers = 10
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Read-modify-write: without the session lock some increments are lost.
			_, err := manager.Update(ctx, id, func(s *domain.NavigationSession) error {
				s.CaretOffset++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers, s.CaretOffset)
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := manager.LoadOrStart(ctx, id, "doc-1")
			assert.NoError(t, err)
			assert.NotNil(t, s)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", s.DocumentID)
	assert.Equal(t, domain.ModeNavigation, s.Mode)
}

func TestManager_LoadOrStart_NewDocumentResets(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Update(ctx, "missing", func(*domain.NavigationSession) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = manager.LoadOrStart(ctx, "s", "doc-1")
	require.NoError(t, err)
	_, err = manager.Update(ctx, "s", func(s *domain.NavigationSession) error {
		s.Mode = domain.ModePassThrough
		s.Sticky = true
		return nil
	})
	require.NoError(t, err)

	same, err := manager.LoadOrStart(ctx, "s", "doc-1")
	require.NoError(t, err)
	assert.True(t, same.Sticky)

	fresh, err := manager.LoadOrStart(ctx, "s", "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "doc-2", fresh.DocumentID)
	assert.False(t, fresh.Sticky)
	assert.Equal(t, domain.ModeNavigation, fresh.Mode)
}

func TestManager_UpdateErrorDoesNotSave(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	_, err := manager.LoadOrStart(ctx, "s", "doc")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = manager.Update(ctx, "s", func(s *domain.NavigationSession) error {
		s.Sticky = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := manager.Load(ctx, "s")
	require.NoError(t, err)
	assert.False(t, s.Sticky)
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	ttls  []time.Duration
	fails bool
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fails {
		return nil, errors.New("lock busy")
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error { return errors.New("already expired") }, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	_, err := manager.LoadOrStart(ctx, "s", "doc")
	require.NoError(t, err, "a failed unlock is only logged")
	assert.Equal(t, []string{"s"}, locker.keys)
	assert.Equal(t, []time.Duration{time.Second}, locker.ttls)

	locker.fails = true
	_, err = manager.Load(ctx, "s")
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
