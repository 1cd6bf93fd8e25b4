// Package session stores login sessions and per-user request locks.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"game-api-server/internal/pkg/kv"
	"game-api-server/internal/pkg/lock"
)

// ErrSessionNotFound is returned when no session is registered for an email.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side identity attached to an auth token.
type Session struct {
	AccountID int64     `json:"accountId"`
	UserID    int64     `json:"userId"`
	AuthToken string    `json:"authToken"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store keeps sessions keyed by email and hands out per-user leases.
type Store struct {
	kv      kv.Store
	locker  *lock.Locker
	ttl     time.Duration
	lockTTL time.Duration
}

// NewStore creates a session store. ttl bounds a session's life; lockTTL
// bounds a lease that is not renewed.
func NewStore(store kv.Store, ttl, lockTTL time.Duration) *Store {
	return &Store{
		kv:      store,
		locker:  lock.NewLocker(store),
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func sessionKey(email string) string {
	return "session:" + email
}

func lockKey(userID int64) string {
	return fmt.Sprintf("lock:user:%d", userID)
}

// Register stores s, replacing any earlier session for the same email.
func (s *Store) Register(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(sess.Email), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	return nil
}

// Get returns the session registered for email.
func (s *Store) Get(ctx context.Context, email string) (*Session, error) {
	raw, err := s.kv.Get(ctx, sessionKey(email))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Lock takes the single-flight lease for userID. It returns lock.ErrLockHeld
// immediately while another request of the same user is in flight.
func (s *Store) Lock(ctx context.Context, userID int64) (*lock.Lease, error) {
	return s.locker.TryAcquire(ctx, lockKey(userID), s.lockTTL)
}
