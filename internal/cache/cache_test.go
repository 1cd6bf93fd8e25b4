package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/model"
	"game-api-server/internal/pkg/kv"
)

func TestGetOrLoadReadsThrough(t *testing.T) {
	ctx := context.Background()
	c := New(kv.NewMemoryStore(), time.Minute, time.Minute)

	calls := 0
	load := func(context.Context) (*model.UserGameData, error) {
		calls++
		return &model.UserGameData{UserID: 1, Gold: int64(100 * calls)}, nil
	}

	first, err := GetOrLoad(ctx, c, GameData, 1, load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, c, GameData, 1, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Gold, second.Gold)

	require.NoError(t, c.Invalidate(ctx, 1, GameData, ItemList))

	third, err := GetOrLoad(ctx, c, GameData, 1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(200), third.Gold)
}

func TestGetOrLoadIsPerUserAndKind(t *testing.T) {
	ctx := context.Background()
	c := New(kv.NewMemoryStore(), time.Minute, time.Minute)

	_, err := GetOrLoad(ctx, c, ItemList, 1, func(context.Context) ([]model.Unit, error) {
		return []model.Unit{{ID: 1, Code: 10001}}, nil
	})
	require.NoError(t, err)

	runes, err := GetOrLoad(ctx, c, RuneList, 1, func(context.Context) ([]model.Unit, error) {
		return []model.Unit{}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, runes)

	other, err := GetOrLoad(ctx, c, ItemList, 2, func(context.Context) ([]model.Unit, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := New(kv.NewMemoryStore(), time.Minute, time.Minute)
	boom := errors.New("boom")

	_, err := GetOrLoad(ctx, c, GameData, 1, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := GetOrLoad(ctx, c, GameData, 1, func(context.Context) (int, error) { return 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestStageSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	c := New(kv.NewMemoryStore(), time.Minute, time.Minute)

	_, err := c.LoadStage(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveStage)

	s := model.NewInStageSession(1, "a@b.com", 10, []int64{3}, map[int]int{101: 3}, time.Now().UTC())
	require.NoError(t, c.SaveStage(ctx, s))

	got, err := c.LoadStage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StageCode)
	assert.Equal(t, map[int]int{101: 0}, got.Kills)

	replacement := model.NewInStageSession(1, "a@b.com", 20, nil, map[int]int{102: 1}, time.Now().UTC())
	require.NoError(t, c.SaveStage(ctx, replacement))
	got, err = c.LoadStage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, got.StageCode, "entering again replaces the session")

	require.NoError(t, c.DeleteStage(ctx, 1))
	_, err = c.LoadStage(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveStage)
}
