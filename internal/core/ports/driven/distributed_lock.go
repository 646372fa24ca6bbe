package driven

import (
	"context"
	"time"
)

// DistributedLock serialises work that spans instances, such as the turns of
// one conversation when history lives in a shared store.
type DistributedLock interface {
	// Acquire tries once to take name for ttl. It returns false without error
	// when another holder has it; callers poll until their own deadline.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release gives up name. Releasing a lock that is not held is not an error.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock. Backends without expiry
	// (PostgreSQL advisory locks) only verify the lock is still held.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	Ping(ctx context.Context) error
}

// LockHolder is implemented by locks that can name the current owner
type LockHolder interface {
	// Holder returns the owner id holding name, or "" when it is free
	Holder(ctx context.Context, name string) (string, error)
}
