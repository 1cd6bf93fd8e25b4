package handlers

import (
	"context"
	"net/http"

	"game-api-server/internal/api/response"
	"game-api-server/internal/model"
	"game-api-server/internal/service"
)

// InventoryHandler serves game data, owned units and equipment.
type InventoryHandler struct {
	gameData  *service.GameDataService
	inventory *service.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(gameData *service.GameDataService, inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{gameData: gameData, inventory: inventory}
}

type pageRequest struct {
	model.Page
}

// GameData handles POST /gameData.
func (h *InventoryHandler) GameData(w http.ResponseWriter, r *http.Request) {
	sess, ok := authed(w, r)
	if !ok {
		return
	}
	data, err := h.gameData.GetGameData(r.Context(), sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{"gameData": data})
}

// Characters handles POST /inventory/characters.
func (h *InventoryHandler) Characters(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "characters", h.gameData.ListCharacters)
}

// Items handles POST /inventory/items.
func (h *InventoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "items", h.gameData.ListItems)
}

// Runes handles POST /inventory/runes.
func (h *InventoryHandler) Runes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "runes", h.gameData.ListRunes)
}

type listFunc func(ctx context.Context, userID int64, page model.Page) ([]model.Unit, error)

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request, field string, list listFunc) {
	var req pageRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	units, err := list(r.Context(), sess.UserID, req.Page)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{field: units})
}

type equipItemRequest struct {
	CharacterID int64 `json:"characterId"`
	ItemID      int64 `json:"itemId"`
}

type equipRuneRequest struct {
	CharacterID int64 `json:"characterId"`
	RuneID      int64 `json:"runeId"`
}

// EquipItem handles POST /equipment/item.
func (h *InventoryHandler) EquipItem(w http.ResponseWriter, r *http.Request) {
	var req equipItemRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	if err := h.inventory.EquipItem(r.Context(), sess.UserID, req.CharacterID, req.ItemID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, nil)
}

// EquipRune handles POST /equipment/rune.
func (h *InventoryHandler) EquipRune(w http.ResponseWriter, r *http.Request) {
	var req equipRuneRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	if err := h.inventory.EquipRune(r.Context(), sess.UserID, req.CharacterID, req.RuneID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, nil)
}

// ReleaseItem handles POST /equipment/item/release.
func (h *InventoryHandler) ReleaseItem(w http.ResponseWriter, r *http.Request) {
	var req equipItemRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	if err := h.inventory.ReleaseItem(r.Context(), sess.UserID, req.CharacterID, req.ItemID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, nil)
}

// ReleaseRune handles POST /equipment/rune/release.
func (h *InventoryHandler) ReleaseRune(w http.ResponseWriter, r *http.Request) {
	var req equipRuneRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	if err := h.inventory.ReleaseRune(r.Context(), sess.UserID, req.CharacterID, req.RuneID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, nil)
}

type equipmentResponse struct {
	CharacterID int64   `json:"characterId"`
	Items       []int64 `json:"items"`
	Runes       []int64 `json:"runes"`
}

// Equipment lists the item and rune ids a character holds.
func (h *InventoryHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterID int64 `json:"characterId"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	list, err := h.inventory.ListEquipment(r.Context(), sess.UserID, req.CharacterID)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	resp := equipmentResponse{CharacterID: req.CharacterID, Items: []int64{}, Runes: []int64{}}
	for _, e := range list {
		switch e.Kind {
		case model.KindItem:
			resp.Items = append(resp.Items, e.InstanceID)
		case model.KindRune:
			resp.Runes = append(resp.Runes, e.InstanceID)
		}
	}
	response.OK(w, resp)
}
