package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/pkg/kv"
	"game-api-server/internal/pkg/lock"
)

func TestRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemoryStore(), time.Hour, time.Second)

	_, err := store.Get(ctx, "a@b.com")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	first := &Session{AccountID: 1, UserID: 7, AuthToken: "t1", Email: "a@b.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Register(ctx, first))

	got, err := store.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "t1", got.AuthToken)

	second := *first
	second.AuthToken = "t2"
	require.NoError(t, store.Register(ctx, &second))

	got, err = store.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "t2", got.AuthToken, "re-login overwrites the previous token")
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mem := kv.NewMemoryStore().WithClock(func() time.Time { return now })
	store := NewStore(mem, 60*time.Minute, time.Second)

	require.NoError(t, store.Register(ctx, &Session{UserID: 1, AuthToken: "t", Email: "x@y.z"}))

	now = now.Add(61 * time.Minute)
	_, err := store.Get(ctx, "x@y.z")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLockIsPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemoryStore(), time.Hour, time.Minute)

	lease, err := store.Lock(ctx, 1)
	require.NoError(t, err)

	_, err = store.Lock(ctx, 1)
	assert.ErrorIs(t, err, lock.ErrLockHeld)

	other, err := store.Lock(ctx, 2)
	require.NoError(t, err, "users do not block each other")
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	again, err := store.Lock(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
