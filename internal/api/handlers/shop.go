package handlers

import (
	"net/http"

	"game-api-server/internal/api/response"
	"game-api-server/internal/service"
)

// ShopHandler serves purchases, sales and enhancement.
type ShopHandler struct {
	shop    *service.ShopService
	enhance *service.EnhanceService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shop *service.ShopService, enhance *service.EnhanceService) *ShopHandler {
	return &ShopHandler{shop: shop, enhance: enhance}
}

type purchaseResponse struct {
	CharacterCode int   `json:"characterCode"`
	CharacterID   int64 `json:"characterId"`
	CurrentGold   int64 `json:"currentGold"`
	CurrentGem    int64 `json:"currentGem"`
}

// PurchaseCharacter handles POST /purchase/character.
func (h *ShopHandler) PurchaseCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterCode int `json:"characterCode"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	res, err := h.shop.PurchaseCharacter(r.Context(), sess.UserID, req.CharacterCode)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, purchaseResponse{
		CharacterCode: res.CharacterCode,
		CharacterID:   res.CharacterID,
		CurrentGold:   res.CurrentGold,
		CurrentGem:    res.CurrentGem,
	})
}

type sellResponse struct {
	ItemID      int64 `json:"itemId"`
	SellGold    int64 `json:"sellGold"`
	CurrentGold int64 `json:"currentGold"`
	CurrentGem  int64 `json:"currentGem"`
}

// SellItem handles POST /sell/item.
func (h *ShopHandler) SellItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID int64 `json:"itemId"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	res, err := h.shop.SellItem(r.Context(), sess.UserID, req.ItemID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, sellResponse{
		ItemID:      res.ItemID,
		SellGold:    res.SellGold,
		CurrentGold: res.CurrentGold,
		CurrentGem:  res.CurrentGem,
	})
}

type enhanceResponse struct {
	ID          int64 `json:"id"`
	Level       int   `json:"level"`
	Cost        int64 `json:"cost"`
	CurrentGold int64 `json:"currentGold"`
}

func writeEnhance(w http.ResponseWriter, r *http.Request, res *service.EnhanceResult, err error) {
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, enhanceResponse{ID: res.ID, Level: res.Level, Cost: res.Cost, CurrentGold: res.CurrentGold})
}

// EnhanceItem handles POST /enhance/item.
func (h *ShopHandler) EnhanceItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID int64 `json:"itemId"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	res, err := h.enhance.EnhanceItem(r.Context(), sess.UserID, req.ItemID)
	writeEnhance(w, r, res, err)
}

// EnhanceRune handles POST /enhance/rune.
func (h *ShopHandler) EnhanceRune(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RuneID int64 `json:"runeId"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	res, err := h.enhance.EnhanceRune(r.Context(), sess.UserID, req.RuneID)
	writeEnhance(w, r, res, err)
}

// EnhanceCharacter handles POST /enhance/character.
func (h *ShopHandler) EnhanceCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterID int64 `json:"characterId"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	res, err := h.enhance.EnhanceCharacter(r.Context(), sess.UserID, req.CharacterID)
	writeEnhance(w, r, res, err)
}
