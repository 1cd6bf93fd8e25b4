// Package cache implements read-through caches of per-user views and the
// in-stage combat state on the key-value store.
//
// Invalidation is a delete issued by the mutating service after its writes
// and before the transaction commits. The delete is not atomic with the
// commit: a crash between the two, or a read racing the commit, can leave a
// stale entry that lives until its TTL expires. The TTL is kept short for
// that reason.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/model"
	"game-api-server/internal/pkg/kv"
)

// ErrNoActiveStage is returned when the user has no in-stage session.
var ErrNoActiveStage = errors.New("no active stage")

// Kind names a cached per-user view.
type Kind string

const (
	GameData          Kind = "gamedata"
	CharacterList     Kind = "characters"
	ItemList          Kind = "items"
	RuneList          Kind = "runes"
	ProgressQuestList Kind = "quests:progress"
	CompleteQuestList Kind = "quests:complete"
	MailList          Kind = "mails"
)

// Cache stores JSON views with a uniform TTL.
type Cache struct {
	store    kv.Store
	ttl      time.Duration
	stageTTL time.Duration
}

// New creates a cache on store.
func New(store kv.Store, ttl, stageTTL time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl, stageTTL: stageTTL}
}

func key(kind Kind, userID int64) string {
	return fmt.Sprintf("cache:%s:%d", kind, userID)
}

func stageKey(userID int64) string {
	return fmt.Sprintf("stage:%d", userID)
}

// GetOrLoad returns the cached view or calls load and caches its result.
// Cache failures degrade to a direct load; they never fail the read.
func GetOrLoad[T any](ctx context.Context, c *Cache, kind Kind, userID int64, load func(context.Context) (T, error)) (T, error) {
	k := key(kind, userID)

	if raw, err := c.store.Get(ctx, k); err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Warn().Str("key", k).Msg("Discarding undecodable cache entry")
	} else if !errors.Is(err, kv.ErrNotFound) {
		log.Warn().Err(err).Str("key", k).Msg("Cache read failed, loading from store")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", k).Msg("Failed to encode cache entry")
		return value, nil
	}
	if err := c.store.Set(ctx, k, raw, c.ttl); err != nil {
		log.Warn().Err(err).Str("key", k).Msg("Cache write failed")
	}
	return value, nil
}

// Invalidate deletes the given views of userID.
func (c *Cache) Invalidate(ctx context.Context, userID int64, kinds ...Kind) error {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, key(kind, userID))
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// SaveStage stores s as the user's only in-stage session, replacing any
// previous one.
func (c *Cache) SaveStage(ctx context.Context, s *model.InStageSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode stage session: %w", err)
	}
	if err := c.store.Set(ctx, stageKey(s.UserID), raw, c.stageTTL); err != nil {
		return fmt.Errorf("failed to save stage session: %w", err)
	}
	return nil
}

// LoadStage returns the user's in-stage session or ErrNoActiveStage.
func (c *Cache) LoadStage(ctx context.Context, userID int64) (*model.InStageSession, error) {
	raw, err := c.store.Get(ctx, stageKey(userID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNoActiveStage
		}
		return nil, fmt.Errorf("failed to load stage session: %w", err)
	}

	var s model.InStageSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode stage session: %w", err)
	}
	return &s, nil
}

// DeleteStage removes the user's in-stage session.
func (c *Cache) DeleteStage(ctx context.Context, userID int64) error {
	if err := c.store.Del(ctx, stageKey(userID)); err != nil {
		return fmt.Errorf("failed to delete stage session: %w", err)
	}
	return nil
}
