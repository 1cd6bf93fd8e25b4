// Package api assembles the HTTP surface: the middleware pipeline and one
// POST route per endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"game-api-server/internal/api/handlers"
	"game-api-server/internal/api/middleware"
	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
	"game-api-server/internal/service"
	"game-api-server/internal/session"
)

// PublicPrefixes are served without a session.
var PublicPrefixes = []string{"/login", "/registerAccount", "/health"}

// Options configures NewRouter.
type Options struct {
	Services          *service.Services
	Sessions          *session.Store
	Logger            zerolog.Logger
	LockRenewInterval time.Duration
	HealthChecks      map[string]handlers.Pinger
}

// NewRouter builds the request pipeline around every endpoint:
// request logging, status rewrite, recovery, session authentication and
// per-user single flight, in that order.
func NewRouter(opts Options) http.Handler {
	renew := opts.LockRenewInterval
	if renew <= 0 {
		renew = time.Second
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.StatusRewrite())
	r.Use(middleware.Recovery())
	r.Use(middleware.Authenticate(opts.Sessions, PublicPrefixes))
	r.Use(middleware.SingleFlight(opts.Sessions, renew))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Write(w, errcode.NotFoundRoute, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Write(w, errcode.NotFoundRoute, nil)
	})

	svc := opts.Services
	health := handlers.NewHealthHandler(opts.HealthChecks)
	account := handlers.NewAccountHandler(svc.Account)
	inventory := handlers.NewInventoryHandler(svc.GameData, svc.Inventory)
	shop := handlers.NewShopHandler(svc.Shop, svc.Enhance)
	stage := handlers.NewStageHandler(svc.Stage)
	rewards := handlers.NewRewardHandler(svc.Mail, svc.Quest, svc.Attendance)

	r.Get("/health", health.Health)

	r.Post("/registerAccount", account.Register)
	r.Post("/login", account.Login)

	r.Post("/gameData", inventory.GameData)
	r.Route("/inventory", func(r chi.Router) {
		r.Post("/characters", inventory.Characters)
		r.Post("/items", inventory.Items)
		r.Post("/runes", inventory.Runes)
	})
	r.Route("/equipment", func(r chi.Router) {
		r.Post("/get", inventory.Equipment)
		r.Post("/item", inventory.EquipItem)
		r.Post("/rune", inventory.EquipRune)
		r.Post("/item/release", inventory.ReleaseItem)
		r.Post("/rune/release", inventory.ReleaseRune)
	})

	r.Post("/purchase/character", shop.PurchaseCharacter)
	r.Post("/sell/item", shop.SellItem)
	r.Route("/enhance", func(r chi.Router) {
		r.Post("/item", shop.EnhanceItem)
		r.Post("/rune", shop.EnhanceRune)
		r.Post("/character", shop.EnhanceCharacter)
	})

	r.Route("/stage", func(r chi.Router) {
		r.Post("/enter", stage.Enter)
		r.Post("/killMonster", stage.KillMonster)
		r.Post("/clear", stage.Clear)
	})

	r.Post("/mail/get", rewards.ListMail)
	r.Post("/mail/receive", rewards.ReceiveMail)
	r.Route("/quest", func(r chi.Router) {
		r.Post("/progress", rewards.ProgressQuests)
		r.Post("/complete", rewards.CompleteQuests)
		r.Post("/reward", rewards.RewardQuest)
	})
	r.Post("/attendanceCheck", rewards.Attendance)

	return r
}
