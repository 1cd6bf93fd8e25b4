package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/cache"
	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

// EnhanceResult reports the new level and the gold left.
type EnhanceResult struct {
	ID          int64
	Level       int
	Cost        int64
	CurrentGold int64
}

// EnhanceService raises the level of owned units.
type EnhanceService struct {
	*core
}

// NewEnhanceService creates a new EnhanceService instance.
func NewEnhanceService(c *core) *EnhanceService {
	return &EnhanceService{core: c}
}

func (s *EnhanceService) EnhanceItem(ctx context.Context, userID, itemID int64) (*EnhanceResult, error) {
	return s.enhance(ctx, model.KindItem, userID, itemID, errcode.CannotFindInventoryItem, errcode.FailedEnhanceItem)
}

func (s *EnhanceService) EnhanceRune(ctx context.Context, userID, runeID int64) (*EnhanceResult, error) {
	return s.enhance(ctx, model.KindRune, userID, runeID, errcode.CannotFindInventoryRune, errcode.FailedEnhanceRune)
}

func (s *EnhanceService) EnhanceCharacter(ctx context.Context, userID, characterID int64) (*EnhanceResult, error) {
	return s.enhance(ctx, model.KindCharacter, userID, characterID, errcode.CannotFindCharacter, errcode.FailedEnhanceCharacter)
}

// enhance moves a unit to its next level, paying that level's price. A unit
// whose next level has no table row is at max level.
func (s *EnhanceService) enhance(ctx context.Context, kind model.InventoryKind, userID, id int64, notFound, failed errcode.Code) (*EnhanceResult, error) {
	op := "enhance " + kind.String()
	repo := s.store.Repository()

	unit, err := repo.GetUnit(ctx, kind, userID, id)
	if err != nil {
		return nil, notFoundOr(ctx, err, notFound, failed, userID, op)
	}

	next, ok := s.master.Current().Enhance(kind, unit.Code, unit.Level+1)
	if !ok {
		return nil, errcode.CannotEnhanceMaxLevel
	}

	data, err := repo.GetGameData(ctx, userID)
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindUserGameData, failed, userID, op)
	}
	if !data.CanAfford(next.EnhanceGold, 0) {
		return nil, errcode.CannotEnhanceNotEnoughGold
	}

	result := &EnhanceResult{ID: id, Level: next.Level, Cost: next.EnhanceGold}
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		updated, err := tx.AddCurrency(ctx, userID, -next.EnhanceGold, 0)
		if err != nil {
			return fmt.Errorf("debit gold: %w", err)
		}
		if err := tx.SetUnitLevel(ctx, kind, userID, id, next.Level); err != nil {
			return fmt.Errorf("set level: %w", err)
		}
		result.CurrentGold = updated.Gold
		return s.cache.Invalidate(ctx, userID, listView(kind), cache.GameData)
	})
	if err != nil {
		return nil, failure(ctx, failed, err, userID, op)
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("id", id).
		Str("kind", kind.String()).
		Int("level", next.Level).
		Msg("Enhanced")
	return result, nil
}
