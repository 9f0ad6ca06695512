/**
 * @description
 * This file sets up the HTTP router for the rewards-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RewardsRoutes creates and returns a new router for the rewards service.
func RewardsRoutes(h *RewardsHandlers, jwksURL, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require member authentication.
	r.Group(func(r chi.Router) {
		r.Use(ClerkAuthMiddleware(jwksURL))

		r.Post("/receipts", h.SubmitReceiptHandler)
		r.Get("/receipts", h.ListReceiptsHandler)

		r.Post("/daily-bonus/claim", h.ClaimDailyBonusHandler)
		r.Post("/participation", h.RecordParticipationHandler)

		r.Get("/level", h.GetLevelHandler)
		r.Get("/streaks", h.GetStreaksHandler)
		r.Get("/achievements", h.ListAchievementsHandler)
		r.Get("/achievements/progress", h.GetAchievementProgressHandler)

		r.Get("/ledger", h.GetLedgerHandler)
		r.Get("/ledger/analytics", h.GetLedgerAnalyticsHandler)
	})

	// Internal routes used by sibling services (identity, auctions, missions).
	r.Route("/internal", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Post("/users", h.CreateUserHandler)
		r.Post("/achievements/award", h.AwardAchievementHandler)
		r.Post("/achievements/check", h.CheckAchievementsHandler)
		r.Post("/tokens/credit", h.CreditTokensHandler)
		r.Post("/tokens/debit", h.DebitTokensHandler)
	})

	return r
}
