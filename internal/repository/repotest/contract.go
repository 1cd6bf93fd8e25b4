// Package repotest is the behaviour every repository.Store implementation
// must share. Implementation packages run it from their own tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

var errAbort = errors.New("abort")

// Run executes the contract. newStore must return an empty store on each call.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("game data", func(t *testing.T) { testGameData(t, newStore(t)) })
	t.Run("units", func(t *testing.T) { testUnits(t, newStore(t)) })
	t.Run("equipment", func(t *testing.T) { testEquipment(t, newStore(t)) })
	t.Run("quests", func(t *testing.T) { testQuests(t, newStore(t)) })
	t.Run("mail", func(t *testing.T) { testMail(t, newStore(t)) })
	t.Run("clear stage", func(t *testing.T) { testClearStage(t, newStore(t)) })
	t.Run("attendance", func(t *testing.T) { testAttendance(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
}

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

// newUser creates an account with a ledger and returns its user id.
func newUser(t *testing.T, store repository.Store, email string) int64 {
	t.Helper()
	ctx := context.Background()

	var userID int64
	err := store.WithTx(ctx, func(tx repository.Repository) error {
		acc, err := tx.CreateAccount(ctx, email, "hash", "salt", now)
		if err != nil {
			return err
		}
		userID = acc.UserID
		return tx.CreateGameData(ctx, &model.UserGameData{UserID: acc.UserID, Gold: 100, Gem: 50, Level: 1})
	})
	require.NoError(t, err)
	return userID
}

func testAccounts(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()

	a, err := repo.CreateAccount(ctx, "a@b.com", "hash", "salt", now)
	require.NoError(t, err)
	assert.NotZero(t, a.AccountID)
	assert.NotZero(t, a.UserID)

	_, err = repo.CreateAccount(ctx, "a@b.com", "other", "salt", now)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := repo.GetAccountByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, a.UserID, got.UserID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.GetAccountByEmail(ctx, "missing@b.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testGameData(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "gd@b.com")

	d, err := repo.AddCurrency(ctx, userID, -100, -50)
	require.NoError(t, err, "spending down to exactly zero is allowed")
	assert.Equal(t, int64(0), d.Gold)
	assert.Equal(t, int64(0), d.Gem)

	_, err = repo.AddCurrency(ctx, userID, -1, 0)
	assert.ErrorIs(t, err, repository.ErrNoRowsAffected)

	d, err = repo.GetGameData(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.Gold, "a refused debit leaves the balance unchanged")

	d.Exp = 42
	d.Level = 3
	d.KillCount = 7
	d.ClearCount = 2
	require.NoError(t, repo.UpdateProgress(ctx, d))

	d, err = repo.GetGameData(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), d.Exp)
	assert.Equal(t, 3, d.Level)
	assert.Equal(t, int64(7), d.KillCount)

	_, err = repo.GetGameData(ctx, 999999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testUnits(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "units@b.com")
	otherID := newUser(t, store, "other@b.com")

	var ids []int64
	for i := 0; i < 5; i++ {
		u, err := repo.InsertUnit(ctx, model.KindItem, userID, 10001+i, 1, now)
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	_, err := repo.InsertUnit(ctx, model.KindItem, otherID, 10001, 1, now)
	require.NoError(t, err)

	all, err := repo.ListUnits(ctx, model.KindItem, userID, model.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	page2, err := repo.ListUnits(ctx, model.KindItem, userID, model.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].ID)

	runes, err := repo.ListUnits(ctx, model.KindRune, userID, model.Page{})
	require.NoError(t, err)
	assert.Empty(t, runes)

	_, err = repo.GetUnit(ctx, model.KindItem, otherID, ids[0])
	assert.ErrorIs(t, err, repository.ErrNotFound, "units are scoped by owner")

	require.NoError(t, repo.SetUnitLevel(ctx, model.KindItem, userID, ids[0], 4))
	u, err := repo.GetUnit(ctx, model.KindItem, userID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 4, u.Level)

	has, err := repo.HasUnitCode(ctx, model.KindItem, userID, 10003)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, repo.DeleteUnit(ctx, model.KindItem, userID, ids[2]))
	err = repo.DeleteUnit(ctx, model.KindItem, userID, ids[2])
	assert.ErrorIs(t, err, repository.ErrNoRowsAffected)

	has, err = repo.HasUnitCode(ctx, model.KindItem, userID, 10003)
	require.NoError(t, err)
	assert.False(t, has)
}

func testEquipment(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "equip@b.com")

	e := model.Equipment{UserID: userID, CharacterID: 1, InstanceID: 10, Kind: model.KindItem}
	require.NoError(t, repo.InsertEquipment(ctx, e))

	equipped, err := repo.IsEquipped(ctx, model.KindItem, 10)
	require.NoError(t, err)
	assert.True(t, equipped)

	equipped, err = repo.IsEquipped(ctx, model.KindRune, 10)
	require.NoError(t, err)
	assert.False(t, equipped, "kinds do not collide")

	second := e
	second.CharacterID = 2
	assert.ErrorIs(t, repo.InsertEquipment(ctx, second), repository.ErrDuplicate)

	require.NoError(t, repo.InsertEquipment(ctx, model.Equipment{UserID: userID, CharacterID: 1, InstanceID: 10, Kind: model.KindRune}))
	list, err := repo.ListEquipment(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, repo.DeleteEquipment(ctx, second), repository.ErrNoRowsAffected)
	require.NoError(t, repo.DeleteEquipment(ctx, e))
	require.NoError(t, repo.InsertEquipment(ctx, second))
}

func testQuests(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "quest@b.com")

	require.NoError(t, repo.InsertQuestProgress(ctx, []model.QuestProgress{
		{UserID: userID, QuestCode: 2},
		{UserID: userID, QuestCode: 1, ExpireAt: now.Add(time.Hour)},
		{UserID: userID, QuestCode: 3},
	}))

	list, err := repo.ListQuestProgress(ctx, userID, model.Page{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].QuestCode)
	assert.True(t, list[0].ExpireAt.Equal(now.Add(time.Hour)))
	assert.True(t, list[1].ExpireAt.IsZero())

	require.NoError(t, repo.UpdateQuestProgress(ctx, userID, 2, 5))
	assert.ErrorIs(t, repo.UpdateQuestProgress(ctx, userID, 99, 5), repository.ErrNoRowsAffected)

	require.NoError(t, repo.CompleteQuests(ctx, userID, []int{1, 2}, now))

	list, err = repo.ListQuestProgress(ctx, userID, model.Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	done, err := repo.ListQuestComplete(ctx, userID, model.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Len(t, done, 2)

	c, err := repo.GetQuestComplete(ctx, userID, 2)
	require.NoError(t, err)
	assert.False(t, c.Earned)

	require.NoError(t, repo.MarkQuestEarned(ctx, userID, 2))
	assert.ErrorIs(t, repo.MarkQuestEarned(ctx, userID, 2), repository.ErrNoRowsAffected)

	_, err = repo.GetQuestComplete(ctx, userID, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testMail(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "mail@b.com")

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := repo.InsertMail(ctx, &model.Mail{
			UserID:   userID,
			Title:    fmt.Sprintf("mail %d", i),
			Reward:   model.Reward{Kind: model.RewardItem, Code: 10001, Count: 1},
			SendAt:   now.Add(time.Duration(i) * time.Minute),
			ExpireAt: now.Add(24 * time.Hour),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := repo.ListMail(ctx, userID, model.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].MailID, "newest first")
	assert.Equal(t, model.RewardItem, list[0].Reward.Kind)

	m, err := repo.GetMail(ctx, userID, ids[0])
	require.NoError(t, err)
	assert.False(t, m.IsReceived())

	require.NoError(t, repo.MarkMailReceived(ctx, userID, ids[0], now))
	assert.ErrorIs(t, repo.MarkMailReceived(ctx, userID, ids[0], now), repository.ErrNoRowsAffected)

	m, err = repo.GetMail(ctx, userID, ids[0])
	require.NoError(t, err)
	assert.True(t, m.IsReceived())

	_, err = repo.GetMail(ctx, userID+1000, ids[1])
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testClearStage(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "stage@b.com")

	_, err := repo.GetClearStage(ctx, userID, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first, err := repo.UpsertClearStage(ctx, userID, 10, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ClearCount)

	later := now.Add(time.Hour)
	second, err := repo.UpsertClearStage(ctx, userID, 10, later)
	require.NoError(t, err)
	assert.Equal(t, 2, second.ClearCount)
	assert.True(t, second.FirstClearAt.Equal(now))
	assert.True(t, second.LastClearAt.Equal(later))
}

func testAttendance(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Repository()
	userID := newUser(t, store, "attend@b.com")

	_, err := repo.GetAttendance(ctx, userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.UpsertAttendance(ctx, &model.Attendance{UserID: userID, Day: 1, LastAttendAt: now}))
	require.NoError(t, repo.UpsertAttendance(ctx, &model.Attendance{UserID: userID, Day: 2, LastAttendAt: now.Add(24 * time.Hour)}))

	a, err := repo.GetAttendance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Day)
}

func testRollback(t *testing.T, store repository.Store) {
	ctx := context.Background()
	userID := newUser(t, store, "tx@b.com")

	err := store.WithTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.AddCurrency(ctx, userID, -30, -10); err != nil {
			return err
		}
		if _, err := tx.InsertUnit(ctx, model.KindCharacter, userID, 1001, 1, now); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	d, err := store.Repository().GetGameData(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), d.Gold)
	assert.Equal(t, int64(50), d.Gem)

	chars, err := store.Repository().ListUnits(ctx, model.KindCharacter, userID, model.Page{})
	require.NoError(t, err)
	assert.Empty(t, chars)

	err = store.WithTx(ctx, func(tx repository.Repository) error {
		_, err := tx.AddCurrency(ctx, userID, -30, -10)
		return err
	})
	require.NoError(t, err)

	d, err = store.Repository().GetGameData(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), d.Gold)
}
