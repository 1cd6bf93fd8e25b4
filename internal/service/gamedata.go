package service

import (
	"context"
	"fmt"

	"game-api-server/internal/cache"
	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
)

// GameDataService serves the read-through cached views of a user's state.
type GameDataService struct {
	*core
}

// NewGameDataService creates a new GameDataService instance.
func NewGameDataService(c *core) *GameDataService {
	return &GameDataService{core: c}
}

// GetGameData returns the user's resource ledger.
func (s *GameDataService) GetGameData(ctx context.Context, userID int64) (*model.UserGameData, error) {
	data, err := cache.GetOrLoad(ctx, s.cache, cache.GameData, userID, func(ctx context.Context) (*model.UserGameData, error) {
		return s.store.Repository().GetGameData(ctx, userID)
	})
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindUserGameData, errcode.FailedGetUserGameData, userID, "get game data")
	}
	return data, nil
}

func (s *GameDataService) ListCharacters(ctx context.Context, userID int64, page model.Page) ([]model.Unit, error) {
	return s.listUnits(ctx, model.KindCharacter, userID, page, errcode.FailedGetCharacterList)
}

func (s *GameDataService) ListItems(ctx context.Context, userID int64, page model.Page) ([]model.Unit, error) {
	return s.listUnits(ctx, model.KindItem, userID, page, errcode.FailedGetItemList)
}

func (s *GameDataService) ListRunes(ctx context.Context, userID int64, page model.Page) ([]model.Unit, error) {
	return s.listUnits(ctx, model.KindRune, userID, page, errcode.FailedGetRuneList)
}

// listUnits caches the whole list and pages it in memory, so one
// invalidation covers every page.
func (s *GameDataService) listUnits(ctx context.Context, kind model.InventoryKind, userID int64, page model.Page, failed errcode.Code) ([]model.Unit, error) {
	page, err := s.normalizePage(page)
	if err != nil {
		return nil, err
	}

	units, err := cache.GetOrLoad(ctx, s.cache, listView(kind), userID, func(ctx context.Context) ([]model.Unit, error) {
		return s.store.Repository().ListUnits(ctx, kind, userID, model.Page{})
	})
	if err != nil {
		return nil, failure(ctx, failed, err, userID, "list "+kind.String())
	}
	return model.Paginate(units, page), nil
}

// normalizePage fills in the configured defaults and rejects descriptors
// outside the allowed range.
func (c *core) normalizePage(p model.Page) (model.Page, error) {
	if p.Number < 0 || p.Size < 0 {
		return p, errcode.Wrap(errcode.InvalidPage, fmt.Errorf("negative page %+v", p))
	}
	if p.Number == 0 {
		p.Number = 1
	}
	if p.Size == 0 {
		p.Size = c.game.DefaultPageSize
	}
	if c.game.MaxPageSize > 0 && p.Size > c.game.MaxPageSize {
		return p, errcode.Wrap(errcode.InvalidPage, fmt.Errorf("page size %d above %d", p.Size, c.game.MaxPageSize))
	}
	return p, nil
}
