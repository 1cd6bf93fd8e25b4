// Package lock provides fail-fast advisory locks on the key-value store.
// Each acquisition is a lease owned by a random token; only the owner can
// renew or release it.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"game-api-server/internal/pkg/kv"
)

// Locker acquires leases on a kv.Store.
type Locker struct {
	store kv.Store
}

// NewLocker creates a new Locker instance.
func NewLocker(store kv.Store) *Locker {
	return &Locker{store: store}
}

// TryAcquire takes the lock at key for ttl. It returns ErrLockHeld at once
// when someone else holds it.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()

	ok, err := l.store.SetNX(ctx, key, []byte(token), ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return &Lease{store: l.store, key: key, token: []byte(token), ttl: ttl}, nil
}

// Lease is a held lock.
type Lease struct {
	store kv.Store
	key   string
	token []byte
	ttl   time.Duration

	mu       sync.Mutex
	released bool
}

// Key returns the locked key.
func (l *Lease) Key() string { return l.key }

// Extend resets the lease ttl. It returns ErrLockLost if the lease is no
// longer held by this owner.
func (l *Lease) Extend(ctx context.Context) error {
	ok, err := l.store.CompareAndExpire(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return fmt.Errorf("failed to extend lock %s: %w", l.key, err)
	}
	if !ok {
		return ErrLockLost
	}
	return nil
}

// KeepAlive extends the lease every interval until ctx is done or the lease
// is lost. It blocks; run it in its own goroutine.
func (l *Lease) KeepAlive(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if l.isReleased() {
				return nil
			}
			if err := l.Extend(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warn().Err(err).Str("key", l.key).Msg("Lock lease renewal failed")
				return err
			}
		}
	}
}

// Release frees the lock if this owner still holds it. A second call is a
// no-op. ErrLockLost means the lease had already expired.
func (l *Lease) Release(ctx context.Context) error {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return nil
	}
	l.released = true
	l.mu.Unlock()

	ok, err := l.store.CompareAndDelete(ctx, l.key, l.token)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if !ok {
		return ErrLockLost
	}
	return nil
}

func (l *Lease) isReleased() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}
