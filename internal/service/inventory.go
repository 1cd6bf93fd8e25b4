package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

// equipCodes are the result codes of one equippable kind.
type equipCodes struct {
	notFound        errcode.Code
	alreadyEquipped errcode.Code
	notEquipped     errcode.Code
	failedEquip     errcode.Code
	failedRelease   errcode.Code
}

var (
	itemEquipCodes = equipCodes{
		notFound:        errcode.CannotFindInventoryItem,
		alreadyEquipped: errcode.AlreadyEquippedItem,
		notEquipped:     errcode.NotEquippedItem,
		failedEquip:     errcode.FailedEquipItem,
		failedRelease:   errcode.FailedReleaseItem,
	}
	runeEquipCodes = equipCodes{
		notFound:        errcode.CannotFindInventoryRune,
		alreadyEquipped: errcode.AlreadyEquippedRune,
		notEquipped:     errcode.NotEquippedRune,
		failedEquip:     errcode.FailedEquipRune,
		failedRelease:   errcode.FailedReleaseRune,
	}
)

// InventoryService equips and releases items and runes on characters.
type InventoryService struct {
	*core
}

// NewInventoryService creates a new InventoryService instance.
func NewInventoryService(c *core) *InventoryService {
	return &InventoryService{core: c}
}

func (s *InventoryService) EquipItem(ctx context.Context, userID, characterID, itemID int64) error {
	return s.equip(ctx, model.KindItem, userID, characterID, itemID, itemEquipCodes)
}

func (s *InventoryService) EquipRune(ctx context.Context, userID, characterID, runeID int64) error {
	return s.equip(ctx, model.KindRune, userID, characterID, runeID, runeEquipCodes)
}

func (s *InventoryService) ReleaseItem(ctx context.Context, userID, characterID, itemID int64) error {
	return s.release(ctx, model.KindItem, userID, characterID, itemID, itemEquipCodes)
}

func (s *InventoryService) ReleaseRune(ctx context.Context, userID, characterID, runeID int64) error {
	return s.release(ctx, model.KindRune, userID, characterID, runeID, runeEquipCodes)
}

// ListEquipment returns what the user's character has equipped.
func (s *InventoryService) ListEquipment(ctx context.Context, userID, characterID int64) ([]model.Equipment, error) {
	repo := s.store.Repository()
	if _, err := repo.GetUnit(ctx, model.KindCharacter, userID, characterID); err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindCharacter, errcode.FailedGetEquipmentList, userID, "list equipment")
	}
	list, err := repo.ListEquipment(ctx, userID, characterID)
	if err != nil {
		return nil, failure(ctx, errcode.FailedGetEquipmentList, err, userID, "list equipment")
	}
	return list, nil
}

// equip links an owned instance to an owned character. An instance is held
// by at most one character; the equip record's key backs up the
// precondition check.
func (s *InventoryService) equip(ctx context.Context, kind model.InventoryKind, userID, characterID, instanceID int64, codes equipCodes) error {
	op := "equip " + kind.String()
	repo := s.store.Repository()

	if _, err := repo.GetUnit(ctx, model.KindCharacter, userID, characterID); err != nil {
		return notFoundOr(ctx, err, errcode.CannotFindCharacter, codes.failedEquip, userID, op)
	}
	if _, err := repo.GetUnit(ctx, kind, userID, instanceID); err != nil {
		return notFoundOr(ctx, err, codes.notFound, codes.failedEquip, userID, op)
	}
	equipped, err := repo.IsEquipped(ctx, kind, instanceID)
	if err != nil {
		return failure(ctx, codes.failedEquip, err, userID, op)
	}
	if equipped {
		return codes.alreadyEquipped
	}

	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		err := tx.InsertEquipment(ctx, model.Equipment{
			UserID:      userID,
			CharacterID: characterID,
			InstanceID:  instanceID,
			Kind:        kind,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return errcode.Wrap(codes.alreadyEquipped, err)
		}
		return err
	})
	if err != nil {
		return failure(ctx, codes.failedEquip, err, userID, op)
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("character_id", characterID).
		Int64("instance_id", instanceID).
		Str("kind", kind.String()).
		Msg("Equipped")
	return nil
}

func (s *InventoryService) release(ctx context.Context, kind model.InventoryKind, userID, characterID, instanceID int64, codes equipCodes) error {
	op := "release " + kind.String()
	repo := s.store.Repository()

	if _, err := repo.GetUnit(ctx, model.KindCharacter, userID, characterID); err != nil {
		return notFoundOr(ctx, err, errcode.CannotFindCharacter, codes.failedRelease, userID, op)
	}
	list, err := repo.ListEquipment(ctx, userID, characterID)
	if err != nil {
		return failure(ctx, codes.failedRelease, err, userID, op)
	}

	e, found := findEquipment(list, kind, instanceID)
	if !found {
		return codes.notEquipped
	}

	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.DeleteEquipment(ctx, e); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return errcode.Wrap(codes.notEquipped, err)
			}
			return fmt.Errorf("delete equipment: %w", err)
		}
		return nil
	})
	if err != nil {
		return failure(ctx, codes.failedRelease, err, userID, op)
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("character_id", characterID).
		Int64("instance_id", instanceID).
		Str("kind", kind.String()).
		Msg("Released")
	return nil
}

func findEquipment(list []model.Equipment, kind model.InventoryKind, instanceID int64) (model.Equipment, bool) {
	for _, e := range list {
		if e.Kind == kind && e.InstanceID == instanceID {
			return e, true
		}
	}
	return model.Equipment{}, false
}
