package handlers

import (
	"net/http"

	"game-api-server/internal/api/response"
	"game-api-server/internal/model"
	"game-api-server/internal/service"
)

// StageHandler serves stage entry, kills and clears.
type StageHandler struct {
	stages *service.StageService
}

// NewStageHandler creates a new StageHandler.
func NewStageHandler(stages *service.StageService) *StageHandler {
	return &StageHandler{stages: stages}
}

// Enter handles POST /stage/enter and returns the monster roster.
func (h *StageHandler) Enter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StageCode    int     `json:"stageCode"`
		CharacterIDs []int64 `json:"characterIds"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	monsters, err := h.stages.EnterStage(r.Context(), sess.UserID, sess.Email, req.StageCode, req.CharacterIDs)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{"monsterList": monsters})
}

// KillMonster handles POST /stage/killMonster.
func (h *StageHandler) KillMonster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonsterCode int `json:"monsterCode"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	if err := h.stages.KillMonster(r.Context(), sess.UserID, req.MonsterCode); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, nil)
}

type clearResponse struct {
	StageCode       int            `json:"stageCode"`
	Cleared         bool           `json:"cleared"`
	Gold            int64          `json:"gold"`
	Exp             int64          `json:"exp"`
	Drops           []model.Reward `json:"drops"`
	CompletedQuests []int          `json:"completedQuests"`
}

// Clear ends the active stage. clearFlag defaults to true; false abandons.
func (h *StageHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StageCode int   `json:"stageCode"`
		ClearFlag *bool `json:"clearFlag"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	cleared := req.ClearFlag == nil || *req.ClearFlag

	res, err := h.stages.ClearStage(r.Context(), sess.UserID, req.StageCode, cleared)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	resp := clearResponse{
		StageCode:       res.StageCode,
		Cleared:         res.Cleared,
		Gold:            res.Gold,
		Exp:             res.Exp,
		Drops:           res.Drops,
		CompletedQuests: res.CompletedQuests,
	}
	if resp.Drops == nil {
		resp.Drops = []model.Reward{}
	}
	if resp.CompletedQuests == nil {
		resp.CompletedQuests = []int{}
	}
	response.OK(w, resp)
}
