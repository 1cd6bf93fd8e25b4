package handlers

import (
	"net/http"
	"time"

	"game-api-server/internal/api/response"
	"game-api-server/internal/model"
	"game-api-server/internal/service"
)

// RewardHandler serves mail, quests and attendance.
type RewardHandler struct {
	mail       *service.MailService
	quests     *service.QuestService
	attendance *service.AttendanceService
}

// NewRewardHandler creates a new RewardHandler.
func NewRewardHandler(mail *service.MailService, quests *service.QuestService, attendance *service.AttendanceService) *RewardHandler {
	return &RewardHandler{mail: mail, quests: quests, attendance: attendance}
}

type mailView struct {
	MailID      int64            `json:"mailId"`
	Title       string           `json:"title"`
	RewardKind  model.RewardKind `json:"rewardKind"`
	RewardCode  int              `json:"rewardCode"`
	RewardCount int64            `json:"rewardCount"`
	IsReceive   bool             `json:"isReceive"`
	SendDate    time.Time        `json:"sendDate"`
	ExpireDate  time.Time        `json:"expireDate"`
}

func newMailView(m model.Mail) mailView {
	return mailView{
		MailID:      m.MailID,
		Title:       m.Title,
		RewardKind:  m.Reward.Kind,
		RewardCode:  m.Reward.Code,
		RewardCount: m.Reward.Count,
		IsReceive:   m.IsReceived(),
		SendDate:    m.SendAt,
		ExpireDate:  m.ExpireAt,
	}
}

// ListMail handles POST /mail/get.
func (h *RewardHandler) ListMail(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	list, err := h.mail.ListMail(r.Context(), sess.UserID, req.Page)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	views := make([]mailView, 0, len(list))
	for _, m := range list {
		views = append(views, newMailView(m))
	}
	response.OK(w, map[string]any{"mails": views})
}

// ReceiveMail handles POST /mail/receive.
func (h *RewardHandler) ReceiveMail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MailID int64 `json:"mailId"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	m, err := h.mail.ReceiveMail(r.Context(), sess.UserID, req.MailID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{"mail": newMailView(*m)})
}

// ProgressQuests handles POST /quest/progress.
func (h *RewardHandler) ProgressQuests(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	list, err := h.quests.ListProgress(r.Context(), sess.UserID, req.Page)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{"progressQuests": list})
}

// CompleteQuests handles POST /quest/complete.
func (h *RewardHandler) CompleteQuests(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	list, err := h.quests.ListComplete(r.Context(), sess.UserID, req.Page)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{"completeQuests": list})
}

// RewardQuest handles POST /quest/reward.
func (h *RewardHandler) RewardQuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestCode int `json:"questCode"`
	}
	sess, ok := decodeAuthed(w, r, &req)
	if !ok {
		return
	}
	res, err := h.quests.RewardQuest(r.Context(), sess.UserID, req.QuestCode)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{
		"questCode": res.QuestCode,
		"rewards":   res.Rewards,
		"gameData":  res.GameData,
	})
}

// Attendance handles POST /attendanceCheck.
func (h *RewardHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	sess, ok := authed(w, r)
	if !ok {
		return
	}
	res, err := h.attendance.AttendanceAndReward(r.Context(), sess.UserID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, map[string]any{
		"attendanceDay": res.Day,
		"mailId":        res.MailID,
		"reward":        res.Reward,
	})
}
