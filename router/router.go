// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"math/rand"
	"net/http"
	"time"

	"github.com/tavinathanson/openmic/cliparse"
	"github.com/tavinathanson/openmic/email"
	"github.com/tavinathanson/openmic/handlers"
	"github.com/tavinathanson/openmic/middleware"
	"github.com/tavinathanson/openmic/payments"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return newRouter(db, cfg, rng)
}

// newRouter takes the rng so tests can run deterministic draws.
func newRouter(db *sql.DB, cfg cliparse.Config, rng *rand.Rand) *http.ServeMux {
	mux := http.NewServeMux()

	sender := email.NewSender(cfg.ResendAPIKey, cfg.EmailFrom)
	provider := payments.NewProvider(cfg.StripeSecretKey, cfg.StripeWebhookKey)

	// Initialize handlers
	signupHandler := handlers.NewSignupHandler(db, cfg, sender, rng)
	lineupHandler := handlers.NewLineupHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db, cfg, sender, rng)
	ticketsHandler := handlers.NewTicketsHandler(db, cfg, provider)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public signup and lineup
	mux.HandleFunc("POST /api/signup", middleware.WithLogging(signupHandler.Signup))
	mux.HandleFunc("POST /api/validate-email", middleware.WithLogging(signupHandler.ValidateEmail))
	mux.HandleFunc("GET /api/cancel", middleware.WithLogging(signupHandler.Cancel))
	mux.HandleFunc("GET /api/slots", middleware.WithLogging(signupHandler.Slots))
	mux.HandleFunc("GET /api/lineup", middleware.WithLogging(lineupHandler.Lineup))

	// Ticket sales (public, webhook verified by signature)
	mux.HandleFunc("POST /api/tickets/checkout-session", middleware.WithLogging(ticketsHandler.CheckoutSession))
	mux.HandleFunc("POST /api/stripe-webhook", middleware.WithLogging(ticketsHandler.StripeWebhook))

	// Admin operations
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminPassword, h))
	}
	mux.HandleFunc("GET /api/admin/comedians", admin(adminHandler.ListComedians))
	mux.HandleFunc("POST /api/admin/checkin", admin(adminHandler.CheckIn))
	mux.HandleFunc("POST /api/admin/lottery", admin(adminHandler.RunLottery))
	mux.HandleFunc("POST /api/admin/reorder", admin(adminHandler.Reorder))
	mux.HandleFunc("POST /api/admin/walkin", admin(adminHandler.WalkIn))
	mux.HandleFunc("POST /api/admin/plusone", admin(adminHandler.PlusOne))
	mux.HandleFunc("POST /api/admin/send-reminders", admin(adminHandler.SendReminders))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("openmic API v1"))
	})

	return mux
}
