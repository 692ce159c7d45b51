package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises access to a navigation session across processes,
// e.g. several HTTP replicas serving commands for the same document.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held, ctx is done, or the implementation gives up.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
