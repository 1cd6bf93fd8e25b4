package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
	"game-api-server/internal/repository/repotest"
)

func TestContract(t *testing.T) {
	repotest.Run(t, func(*testing.T) repository.Store { return NewStore() })
}

func TestInjectFaultAbortsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("disk on fire")

	var userID int64
	require.NoError(t, store.WithTx(ctx, func(tx repository.Repository) error {
		acc, err := tx.CreateAccount(ctx, "f@b.com", "h", "s", time.Now())
		if err != nil {
			return err
		}
		userID = acc.UserID
		return tx.CreateGameData(ctx, &model.UserGameData{UserID: userID, Gold: 10})
	}))

	store.InjectFault("InsertUnit", boom)

	err := store.WithTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.AddCurrency(ctx, userID, -5, 0); err != nil {
			return err
		}
		_, err := tx.InsertUnit(ctx, model.KindItem, userID, 10001, 1, time.Now())
		return err
	})
	assert.ErrorIs(t, err, boom)

	d, err := store.Repository().GetGameData(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), d.Gold)

	_, err = store.Repository().InsertUnit(ctx, model.KindItem, userID, 10001, 1, time.Now())
	assert.NoError(t, err, "a fault fires once")
}

func TestWithTxHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewStore().WithTx(ctx, func(repository.Repository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
