/**
 * @description
 * This file contains the HTTP handlers for the rewards-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toucanwin/rewards-service/internal/app"
	"github.com/toucanwin/rewards-service/internal/domain"
	"github.com/toucanwin/rewards-service/internal/store"
)

// RewardsHandlers holds the application service that handlers will use.
type RewardsHandlers struct {
	service              *app.Service
	limiter              *app.RedisReceiptRateLimiter
	receiptUploadsPerMin int
}

// NewRewardsHandlers creates a new instance of RewardsHandlers.
func NewRewardsHandlers(service *app.Service, limiter *app.RedisReceiptRateLimiter, receiptUploadsPerMin int) *RewardsHandlers {
	return &RewardsHandlers{
		service:              service,
		limiter:              limiter,
		receiptUploadsPerMin: receiptUploadsPerMin,
	}
}

// submitReceiptRequest accepts either an already structured receipt or an
// image URL for the extraction pipeline. Prices arrive in cents.
type submitReceiptRequest struct {
	ImageURL   string `json:"image_url,omitempty"`
	StoreName  string `json:"store_name,omitempty"`
	TotalCents int64  `json:"total_cents,omitempty"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Items      []struct {
		Name       string `json:"name"`
		PriceCents int64  `json:"price_cents"`
	} `json:"items,omitempty"`
}

// SubmitReceiptHandler handles receipt submissions from members.
func (h *RewardsHandlers) SubmitReceiptHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	if h.limiter != nil && h.receiptUploadsPerMin > 0 {
		count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "receipt_upload", userID.String(), h.receiptUploadsPerMin, time.Minute)
		if err != nil {
			log.Printf("level=warn component=api endpoint=submit_receipt msg=\"rate limiter unavailable\" err=%v", err)
		} else if count > h.receiptUploadsPerMin {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, http.StatusTooManyRequests, "Too many receipt uploads. Please wait and try again.")
			return
		}
	}

	var req submitReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=submit_receipt outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	var result *domain.ReceiptResult
	var err error
	if strings.TrimSpace(req.ImageURL) != "" {
		result, err = h.service.ProcessReceiptImage(r.Context(), userID, req.ImageURL)
	} else {
		structured := domain.StructuredReceipt{
			StoreName:  req.StoreName,
			TotalCents: req.TotalCents,
		}
		for _, item := range req.Items {
			structured.Items = append(structured.Items, domain.ReceiptItem{Name: item.Name, PriceCents: item.PriceCents})
		}
		if req.Date != "" {
			parsed, parseErr := time.Parse("2006-01-02", req.Date)
			if parseErr != nil {
				h.writeError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
				return
			}
			structured.Date = &parsed
		}
		result, err = h.service.ApplyReceipt(r.Context(), userID, structured)
	}
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=submit_receipt outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusCreated
	if !result.Success {
		// Rejections are well-formed responses, not server errors.
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, result)
}

// ListReceiptsHandler returns the member's receipt history.
func (h *RewardsHandlers) ListReceiptsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	receipts, err := h.service.ListReceipts(r.Context(), userID, limit)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_receipts outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"receipts": receipts})
}

// ClaimDailyBonusHandler handles daily bonus claims.
func (h *RewardsHandlers) ClaimDailyBonusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	result, err := h.service.ClaimDailyBonus(r.Context(), userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=claim_daily_bonus outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// RecordParticipationHandler records one qualifying activity for the day.
func (h *RewardsHandlers) RecordParticipationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req struct {
		ActivityType string `json:"activity_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ActivityType = strings.TrimSpace(req.ActivityType)
	if req.ActivityType == "" {
		h.writeError(w, http.StatusBadRequest, "activity_type is required")
		return
	}

	result, err := h.service.RecordParticipation(r.Context(), userID, req.ActivityType, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=record_participation outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// GetLevelHandler returns the member's derived level view.
func (h *RewardsHandlers) GetLevelHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	info, err := h.service.GetLevelInfo(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_level outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// GetStreaksHandler returns both streak tracks and the participation history.
func (h *RewardsHandlers) GetStreaksHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	daily, participation, history, err := h.service.GetStreaks(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=get_streaks outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"daily_bonus":   daily,
		"participation": participation,
		"history":       history,
	})
}

// ListAchievementsHandler returns the family catalog overlaid with earned state.
// The family query parameter selects "star" or "badge"; filter and category are
// optional.
func (h *RewardsHandlers) ListAchievementsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	family := domain.AchievementFamily(r.URL.Query().Get("family"))
	if family == "" {
		family = domain.FamilyStar
	}
	if family != domain.FamilyStar && family != domain.FamilyBadge {
		h.writeError(w, http.StatusBadRequest, "family must be star or badge")
		return
	}
	filter := r.URL.Query().Get("filter")
	if filter != "" && filter != "earned" && filter != "unearned" {
		h.writeError(w, http.StatusBadRequest, "filter must be earned or unearned")
		return
	}

	views, err := h.service.ListAchievements(r.Context(), userID, family, filter, r.URL.Query().Get("category"))
	if err != nil {
		log.Printf("level=error component=api endpoint=list_achievements outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	progress, err := h.service.GetAchievementProgress(r.Context(), userID, family)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_achievements outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": views,
		"progress":     progress,
	})
}

// GetAchievementProgressHandler returns the earned vs possible summary for one
// achievement family without the full catalog listing.
func (h *RewardsHandlers) GetAchievementProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	family := domain.AchievementFamily(r.URL.Query().Get("family"))
	if family == "" {
		family = domain.FamilyStar
	}
	if family != domain.FamilyStar && family != domain.FamilyBadge {
		h.writeError(w, http.StatusBadRequest, "family must be star or badge")
		return
	}

	progress, err := h.service.GetAchievementProgress(r.Context(), userID, family)
	if err != nil {
		log.Printf("level=error component=api endpoint=achievement_progress outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, progress)
}

// GetLedgerHandler returns the ledger summary and recent transactions.
func (h *RewardsHandlers) GetLedgerHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	ledger, transactions, err := h.service.GetLedger(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=get_ledger outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance":      ledger.Balance,
		"total_earned": ledger.TotalEarned,
		"total_spent":  ledger.TotalSpent,
		"transactions": transactions,
	})
}

// GetLedgerAnalyticsHandler returns aggregates over the full token history.
func (h *RewardsHandlers) GetLedgerAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	analytics, err := h.service.GetLedgerAnalytics(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=get_ledger_analytics outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, analytics)
}

// CreateUserHandler provisions a rewards account. Called by the identity
// service during signup.
func (h *RewardsHandlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	account, err := h.service.CreateUserAccount(r.Context(), userID, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.writeError(w, http.StatusConflict, "User already exists")
			return
		}
		log.Printf("level=error component=api endpoint=create_user outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// AwardAchievementHandler handles internal requests to explicitly award one
// achievement, e.g. from the auction service after a win.
func (h *RewardsHandlers) AwardAchievementHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string `json:"user_id"`
		Family        string `json:"family"`
		AchievementID string `json:"achievement_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	result, err := h.service.AwardAchievement(r.Context(), userID, domain.AchievementFamily(req.Family), req.AchievementID)
	if err != nil {
		if errors.Is(err, app.ErrUnknownAchievement) {
			h.writeError(w, http.StatusNotFound, "Unknown achievement")
			return
		}
		if errors.Is(err, app.ErrMetaAchievement) {
			h.writeError(w, http.StatusUnprocessableEntity, "Meta achievements cannot be awarded directly")
			return
		}
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=award_achievement outcome=failed user_id=%s achievement_id=%s err=%v", userID, req.AchievementID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CheckAchievementsHandler evaluates a caller-supplied counter snapshot and
// awards anything that newly qualifies.
func (h *RewardsHandlers) CheckAchievementsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string                 `json:"user_id"`
		Action   string                 `json:"action"`
		Counters domain.CounterSnapshot `json:"counters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		h.writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	result, err := h.service.CheckAchievements(r.Context(), userID, req.Action, req.Counters)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=check_achievements outcome=failed user_id=%s action=%s err=%v", userID, req.Action, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CreditTokensHandler handles internal requests to credit bid tokens.
func (h *RewardsHandlers) CreditTokensHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string            `json:"user_id"`
		Amount   int64             `json:"amount"`
		Source   string            `json:"source"`
		Metadata map[string]string `json:"metadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	if req.Source == "" {
		req.Source = domain.TokenSourcePromotion
	}

	result, err := h.service.CreditBidTokens(r.Context(), userID, req.Amount, req.Source, req.Metadata)
	if err != nil {
		if errors.Is(err, app.ErrInvalidAmount) {
			h.writeError(w, http.StatusBadRequest, "Amount must be positive")
			return
		}
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=credit_tokens outcome=failed user_id=%s amount=%d err=%v", userID, req.Amount, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// DebitTokensHandler handles internal requests to spend bid tokens, typically
// from the auction service when a bid is placed.
func (h *RewardsHandlers) DebitTokensHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string            `json:"user_id"`
		Amount   int64             `json:"amount"`
		Purpose  string            `json:"purpose"`
		Metadata map[string]string `json:"metadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	if req.Purpose == "" {
		req.Purpose = domain.TokenPurposeAuctionBid
	}

	result, err := h.service.DebitBidTokens(r.Context(), userID, req.Amount, req.Purpose, req.Metadata)
	if err != nil {
		if errors.Is(err, app.ErrInvalidAmount) {
			h.writeError(w, http.StatusBadRequest, "Amount must be positive")
			return
		}
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=debit_tokens outcome=failed user_id=%s amount=%d err=%v", userID, req.Amount, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !result.Success {
		h.writeJSON(w, http.StatusPaymentRequired, result)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// writeJSON is a helper for writing JSON responses.
func (h *RewardsHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *RewardsHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
