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

const password = "password1"

func registerUser(t *testing.T, env *testutil.Env, email string) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.Services.Account.Register(ctx, email, password))
	res, err := env.Services.Account.Login(ctx, email, password)
	require.NoError(t, err)
	return res.UserID
}

func giveUnit(t *testing.T, env *testutil.Env, kind model.InventoryKind, userID int64, code, level int) int64 {
	t.Helper()
	u, err := env.Store.Repository().InsertUnit(context.Background(), kind, userID, code, level, env.Clock.Now())
	require.NoError(t, err)
	return u.ID
}

func gameData(t *testing.T, env *testutil.Env, userID int64) *model.UserGameData {
	t.Helper()
	d, err := env.Store.Repository().GetGameData(context.Background(), userID)
	require.NoError(t, err)
	return d
}

func setBalance(t *testing.T, env *testutil.Env, userID, gold, gem int64) {
	t.Helper()
	d := gameData(t, env, userID)
	_, err := env.Store.Repository().AddCurrency(context.Background(), userID, gold-d.Gold, gem-d.Gem)
	require.NoError(t, err)
}

func assertCode(t *testing.T, want errcode.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, errcode.CodeOf(err), "got %v", err)
}
