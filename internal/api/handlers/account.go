package handlers

import (
	"net/http"

	"game-api-server/internal/api/response"
	"game-api-server/internal/model"
	"game-api-server/internal/service"
)

// AccountHandler serves registration and login.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID    int64               `json:"userId"`
	AuthToken string              `json:"authToken"`
	GameData  *model.UserGameData `json:"gameData"`
}

// Register handles POST /registerAccount.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.Register(r.Context(), req.Email, req.Password); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, nil)
}

// Login handles POST /login and returns a fresh auth token.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, loginResponse{UserID: res.UserID, AuthToken: res.AuthToken, GameData: res.GameData})
}
