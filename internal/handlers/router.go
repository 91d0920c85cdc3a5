package handlers

import (
	"net/http"

	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/middleware"
	"wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner db.TxRunner
	cfg      config.Config
	users    UserStore
	payments PaymentStore
	audit    AuditStore
	service  PaymentService
	hub      *websocket.Hub
	proxy    http.Handler
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, payments PaymentStore, audit AuditStore, service PaymentService, hub *websocket.Hub, proxy http.Handler) *Handler {
	return &Handler{
		txRunner: txRunner,
		cfg:      cfg,
		users:    users,
		payments: payments,
		audit:    audit,
		service:  service,
		hub:      hub,
		proxy:    proxy,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authed := middleware.Auth(h.cfg.JWTSecret, h.users)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authed).Get("/me", h.Me)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authed)
		r.Put("/profile", h.UpdateProfile)
		r.Put("/password", h.ChangePassword)
		r.Get("/balance", h.GetBalance)
	})

	router.Route("/payments", func(r chi.Router) {
		r.Use(authed)
		r.Post("/create", h.CreatePayment)
		r.Post("/deposit", h.Deposit)
		r.Get("/my-payments", h.MyPayments)
		r.Get("/{id}", h.GetPayment)
		r.Put("/{id}/upload-proof", h.UploadProof)
		r.With(middleware.RequireAdmin()).Put("/{id}/process", h.ProcessPayment)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authed)
		r.Use(middleware.RequireAdmin())
		r.Get("/dashboard", h.Dashboard)
		r.Get("/users", h.AdminListUsers)
		r.Get("/users/{id}", h.AdminGetUser)
		r.Put("/users/{id}", h.AdminUpdateUser)
		r.Get("/payments", h.AdminListPayments)
		r.Get("/payments/{id}", h.AdminGetPayment)
		r.Get("/audit", h.ListAuditLogs)
	})

	router.Get("/proxy/recommend", h.proxy.ServeHTTP)
	router.Post("/proxy/recommend", h.proxy.ServeHTTP)

	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
