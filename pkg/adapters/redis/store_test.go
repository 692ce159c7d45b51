package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/narrator/pkg/adapters/redis"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	s := domain.NewNavigationSession("session-ttl", "doc")
	s.CaretNodeID = "p1"
	require.NoError(t, store.Save(ctx, s))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, "session-ttl")

	// Key expiry is driven by miniredis time, index pruning by the wall clock.
	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	time.Sleep(1200 * time.Millisecond)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewNavigationSession("my-session", "doc")))

	assert.True(t, mr.Exists("custom:app:my-session"), "session key carries the prefix")
	assert.True(t, mr.Exists("custom:app:index"), "index carries the prefix")

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-session"}, list)
}

func TestRedisStore_StoresJSON(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	s := domain.NewNavigationSession("s1", "doc-9")
	s.Mode = domain.ModePassThrough
	require.NoError(t, store.Save(context.Background(), s))

	raw, err := mr.Get(redis.DefaultPrefix + "s1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"document_id":"doc-9"`)
	assert.Contains(t, raw, `"mode":"pass_through"`)
}

func TestRedisStore_SaveRejectsEmptyID(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	assert.Error(t, store.Save(context.Background(), &domain.NavigationSession{}))
}
