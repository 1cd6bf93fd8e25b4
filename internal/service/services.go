// Package service provides business logic implementations.
//
// Every state-changing operation follows the same shape: read the state it
// depends on outside any transaction, validate it, apply all writes in one
// unit of work through the handle WithTx passes in, invalidate the cached
// views the writes touched inside that same unit of work, and report the new
// state. Failures come back as *errcode.Error values.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/cache"
	"game-api-server/internal/config"
	"game-api-server/internal/errcode"
	"game-api-server/internal/masterdata"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
	"game-api-server/internal/session"
)

// Roller draws a uniform integer in 1..100 for drop-rate checks.
type Roller interface {
	Roll() int
}

// RollerFunc adapts a function to Roller.
type RollerFunc func() int

func (f RollerFunc) Roll() int { return f() }

type randomRoller struct{}

func (randomRoller) Roll() int { return rand.IntN(100) + 1 }

// Dependencies are the collaborators shared by every service.
type Dependencies struct {
	Store      repository.Store
	Cache      *cache.Cache
	Sessions   *session.Store
	MasterData *masterdata.Store
	Game       config.GameConfig

	// Now defaults to time.Now.
	Now func() time.Time
	// Roller defaults to math/rand.
	Roller Roller
}

// Services groups one service per feature area.
type Services struct {
	Account    *AccountService
	GameData   *GameDataService
	Shop       *ShopService
	Inventory  *InventoryService
	Enhance    *EnhanceService
	Quest      *QuestService
	Stage      *StageService
	Mail       *MailService
	Attendance *AttendanceService
}

// New wires every service over deps.
func New(deps Dependencies) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Roller == nil {
		deps.Roller = randomRoller{}
	}

	c := &core{
		store:  deps.Store,
		cache:  deps.Cache,
		master: deps.MasterData,
		game:   deps.Game,
		now:    deps.Now,
	}

	gameData := NewGameDataService(c)
	quest := NewQuestService(c)
	mail := NewMailService(c)

	return &Services{
		Account:    NewAccountService(c, deps.Sessions, gameData),
		GameData:   gameData,
		Shop:       NewShopService(c),
		Inventory:  NewInventoryService(c),
		Enhance:    NewEnhanceService(c),
		Quest:      quest,
		Stage:      NewStageService(c, quest, deps.Roller),
		Mail:       mail,
		Attendance: NewAttendanceService(c, mail),
	}
}

// core carries the stores every service reads and writes.
type core struct {
	store  repository.Store
	cache  *cache.Cache
	master *masterdata.Store
	game   config.GameConfig
	now    func() time.Time
}

var errInvalidReward = errors.New("invalid reward")

// listView returns the cached list view of an inventory kind.
func listView(kind model.InventoryKind) cache.Kind {
	switch kind {
	case model.KindCharacter:
		return cache.CharacterList
	case model.KindItem:
		return cache.ItemList
	default:
		return cache.RuneList
	}
}

// rewardViews returns the cached views granting r changes.
func rewardViews(r model.Reward) []cache.Kind {
	if kind, ok := r.Kind.InventoryKind(); ok {
		return []cache.Kind{listView(kind)}
	}
	return []cache.Kind{cache.GameData}
}

// grant credits r to userID through tx. Item and rune rewards create Count
// new level 1 instances.
func (c *core) grant(ctx context.Context, tx repository.Repository, userID int64, r model.Reward) error {
	if r.Count <= 0 {
		return fmt.Errorf("%w: %s count %d", errInvalidReward, r.Kind, r.Count)
	}

	switch r.Kind {
	case model.RewardGold:
		_, err := tx.AddCurrency(ctx, userID, r.Count, 0)
		return err
	case model.RewardGem:
		_, err := tx.AddCurrency(ctx, userID, 0, r.Count)
		return err
	case model.RewardExp:
		data, err := tx.GetGameData(ctx, userID)
		if err != nil {
			return err
		}
		data.AddExp(r.Count)
		return tx.UpdateProgress(ctx, data)
	case model.RewardItem, model.RewardRune:
		kind, _ := r.Kind.InventoryKind()
		if !c.knownUnit(kind, r.Code) {
			return errcode.Wrap(errcode.CannotFindMasterData,
				fmt.Errorf("%w: unknown %s %d", errInvalidReward, kind, r.Code))
		}
		now := c.now()
		for range r.Count {
			if _, err := tx.InsertUnit(ctx, kind, userID, r.Code, 1, now); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %s", errInvalidReward, r.Kind)
	}
}

func (c *core) knownUnit(kind model.InventoryKind, code int) bool {
	snap := c.master.Current()
	switch kind {
	case model.KindCharacter:
		_, ok := snap.Character(code)
		return ok
	case model.KindItem:
		_, ok := snap.Item(code)
		return ok
	case model.KindRune:
		_, ok := snap.Rune(code)
		return ok
	}
	return false
}

// failure returns err unchanged when it already carries a result code and
// otherwise logs it and tags it with code.
func failure(ctx context.Context, code errcode.Code, err error, userID int64, op string) error {
	if c := errcode.CodeOf(err); c != errcode.InternalServerError {
		return err
	}
	log.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Str("op", op).Msg("Operation failed")
	return errcode.Wrap(code, err)
}

// notFoundOr maps repository.ErrNotFound to missing and any other error to
// failed.
func notFoundOr(ctx context.Context, err error, missing, failed errcode.Code, userID int64, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errcode.Wrap(missing, err)
	}
	return failure(ctx, failed, err, userID, op)
}
