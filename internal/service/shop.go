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

// PurchaseResult reports the balances left after a purchase.
type PurchaseResult struct {
	CharacterCode int
	CharacterID   int64
	CurrentGold   int64
	CurrentGem    int64
}

// SellResult reports the balances left after a sale.
type SellResult struct {
	ItemID      int64
	SellGold    int64
	CurrentGold int64
	CurrentGem  int64
}

// ShopService handles character purchases and item sales.
type ShopService struct {
	*core
}

// NewShopService creates a new ShopService instance.
func NewShopService(c *core) *ShopService {
	return &ShopService{core: c}
}

// PurchaseCharacter buys one instance of a character the user does not own
// yet, paying its gold and gem price.
func (s *ShopService) PurchaseCharacter(ctx context.Context, userID int64, characterCode int) (*PurchaseResult, error) {
	origin, ok := s.master.Current().Character(characterCode)
	if !ok {
		return nil, errcode.CannotFindMasterCharacter
	}

	repo := s.store.Repository()
	owned, err := repo.HasUnitCode(ctx, model.KindCharacter, userID, characterCode)
	if err != nil {
		return nil, failure(ctx, errcode.FailedPurchaseCharacter, err, userID, "purchase character")
	}
	if owned {
		return nil, errcode.AlreadyOwnedCharacter
	}

	data, err := repo.GetGameData(ctx, userID)
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindUserGameData, errcode.FailedPurchaseCharacter, userID, "purchase character")
	}
	if !data.CanAfford(origin.Gold, origin.Gem) {
		return nil, errcode.CannotPurchaseCharacter
	}

	result := &PurchaseResult{CharacterCode: characterCode}
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		updated, err := tx.AddCurrency(ctx, userID, -origin.Gold, -origin.Gem)
		if err != nil {
			return fmt.Errorf("debit currency: %w", err)
		}
		unit, err := tx.InsertUnit(ctx, model.KindCharacter, userID, characterCode, 1, s.now())
		if err != nil {
			return fmt.Errorf("insert character: %w", err)
		}
		result.CharacterID = unit.ID
		result.CurrentGold = updated.Gold
		result.CurrentGem = updated.Gem
		return s.cache.Invalidate(ctx, userID, cache.CharacterList, cache.GameData)
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedPurchaseCharacter, err, userID, "purchase character")
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int("character_code", characterCode).
		Int64("gold", result.CurrentGold).
		Int64("gem", result.CurrentGem).
		Msg("Character purchased")
	return result, nil
}

// SellItem deletes an unequipped item and credits the sell price of its
// current level.
func (s *ShopService) SellItem(ctx context.Context, userID, itemID int64) (*SellResult, error) {
	repo := s.store.Repository()
	item, err := repo.GetUnit(ctx, model.KindItem, userID, itemID)
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindInventoryItem, errcode.FailedSellItem, userID, "sell item")
	}

	equipped, err := repo.IsEquipped(ctx, model.KindItem, itemID)
	if err != nil {
		return nil, failure(ctx, errcode.FailedSellItem, err, userID, "sell item")
	}
	if equipped {
		return nil, errcode.CannotSellEquippedItem
	}

	price, ok := s.master.Current().Enhance(model.KindItem, item.Code, item.Level)
	if !ok {
		return nil, errcode.Wrap(errcode.CannotFindMasterData,
			fmt.Errorf("no sell price for item %d level %d", item.Code, item.Level))
	}

	result := &SellResult{ItemID: itemID, SellGold: price.SellGold}
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.DeleteUnit(ctx, model.KindItem, userID, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		updated, err := tx.AddCurrency(ctx, userID, price.SellGold, 0)
		if err != nil {
			return fmt.Errorf("credit gold: %w", err)
		}
		result.CurrentGold = updated.Gold
		result.CurrentGem = updated.Gem
		return s.cache.Invalidate(ctx, userID, cache.ItemList, cache.GameData)
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedSellItem, err, userID, "sell item")
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Int64("item_id", itemID).Int64("gold", price.SellGold).Msg("Item sold")
	return result, nil
}
