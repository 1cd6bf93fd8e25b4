package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
	"game-api-server/internal/testutil"
)

func sendMail(t *testing.T, env *testutil.Env, uid int64, reward model.Reward) int64 {
	t.Helper()
	var id int64
	require.NoError(t, env.Store.WithTx(context.Background(), func(tx repository.Repository) error {
		var err error
		id, err = env.Services.Mail.SendMail(context.Background(), tx, uid, "gift", reward)
		return err
	}))
	return id
}

func TestReceiveMail(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	_, err := env.Services.Mail.ReceiveMail(ctx, uid, 999)
	assertCode(t, errcode.CannotFindMail, err)

	goldID := sendMail(t, env, uid, model.Reward{Kind: model.RewardGold, Count: 25})
	itemID := sendMail(t, env, uid, model.Reward{Kind: model.RewardItem, Code: 10003, Count: 2})

	// Warm the caches the grants must invalidate.
	_, err = env.Services.GameData.GetGameData(ctx, uid)
	require.NoError(t, err)
	_, err = env.Services.GameData.ListItems(ctx, uid, model.Page{})
	require.NoError(t, err)

	m, err := env.Services.Mail.ReceiveMail(ctx, uid, goldID)
	require.NoError(t, err)
	assert.True(t, m.IsReceived())

	data, err := env.Services.GameData.GetGameData(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(125), data.Gold)

	_, err = env.Services.Mail.ReceiveMail(ctx, uid, goldID)
	assertCode(t, errcode.AlreadyReceivedMail, err)
	assert.Equal(t, int64(125), gameData(t, env, uid).Gold)

	_, err = env.Services.Mail.ReceiveMail(ctx, uid, itemID)
	require.NoError(t, err)
	items, err := env.Services.GameData.ListItems(ctx, uid, model.Page{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	mails, err := env.Services.Mail.ListMail(ctx, uid, model.Page{})
	require.NoError(t, err)
	require.Len(t, mails, 2)
	assert.Equal(t, itemID, mails[0].MailID, "newest first")
	assert.True(t, mails[0].IsReceived())
}

func TestReceiveMailExpired(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	id := sendMail(t, env, uid, model.Reward{Kind: model.RewardGem, Count: 5})
	env.Clock.Advance(testutil.GameConfig().MailTTL + time.Second)

	_, err := env.Services.Mail.ReceiveMail(ctx, uid, id)
	assertCode(t, errcode.MailExpired, err)
	assert.Equal(t, int64(50), gameData(t, env, uid).Gem)
}

func TestReceiveMailIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	owner := registerUser(t, env, "a@b.com")
	other := registerUser(t, env, "c@d.com")

	id := sendMail(t, env, owner, model.Reward{Kind: model.RewardGold, Count: 5})
	_, err := env.Services.Mail.ReceiveMail(ctx, other, id)
	assertCode(t, errcode.CannotFindMail, err)
}
