package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/testutil"
)

func TestEnhance(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	_, err := env.Services.Enhance.EnhanceItem(ctx, uid, 999)
	assertCode(t, errcode.CannotFindInventoryItem, err)
	_, err = env.Services.Enhance.EnhanceRune(ctx, uid, 999)
	assertCode(t, errcode.CannotFindInventoryRune, err)
	_, err = env.Services.Enhance.EnhanceCharacter(ctx, uid, 999)
	assertCode(t, errcode.CannotFindCharacter, err)

	itemID := giveUnit(t, env, model.KindItem, uid, 10001, 1)

	res, err := env.Services.Enhance.EnhanceItem(ctx, uid, itemID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Level)
	assert.Equal(t, int64(20), res.Cost)
	assert.Equal(t, int64(80), res.CurrentGold)

	res, err = env.Services.Enhance.EnhanceItem(ctx, uid, itemID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Level)
	assert.Equal(t, int64(40), res.CurrentGold)

	_, err = env.Services.Enhance.EnhanceItem(ctx, uid, itemID)
	assertCode(t, errcode.CannotEnhanceMaxLevel, err)

	items, err := env.Services.GameData.ListItems(ctx, uid, model.Page{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Level)
}

func TestEnhanceNeedsGold(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")
	charID := giveUnit(t, env, model.KindCharacter, uid, 1001, 1)
	setBalance(t, env, uid, 49, 0)

	_, err := env.Services.Enhance.EnhanceCharacter(ctx, uid, charID)
	assertCode(t, errcode.CannotEnhanceNotEnoughGold, err)
	assert.Equal(t, int64(49), gameData(t, env, uid).Gold)

	setBalance(t, env, uid, 50, 0)
	res, err := env.Services.Enhance.EnhanceCharacter(ctx, uid, charID)
	require.NoError(t, err)
	assert.Zero(t, res.CurrentGold)
}
