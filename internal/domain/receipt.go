/**
 * @description
 * Domain models for the receipt economy pipeline: the structured receipt handed
 * to us by the upstream extraction service, the classification and risk
 * assessment intermediates, and the stored receipt record.
 *
 * @notes
 * - The service never performs OCR itself. `StructuredReceipt` is whatever the
 *   extraction collaborator produced, plus its confidence score.
 * - Receipts are immutable once stored and form an append-only per-user history.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptItem is one line item of a structured receipt.
type ReceiptItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// StructuredReceipt is the output of the upstream Receipt Extraction Service.
type StructuredReceipt struct {
	StoreName  string        `json:"store_name"`
	Items      []ReceiptItem `json:"items"`
	TotalCents int64         `json:"total_cents"`
	Date       *time.Time    `json:"date,omitempty"`
	Confidence float64       `json:"confidence"`
}

// StoreInfo is the result of classifying a store name against the store
// directory. Unmatched stores default to category "other", non-partner,
// multiplier 1.0.
type StoreInfo struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	IsPartner         bool    `json:"is_partner"`
	PartnerMultiplier float64 `json:"partner_multiplier"`
}

// ItemClassification is the result of classifying one line item against the
// product directory.
type ItemClassification struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	BasePoints  int64   `json:"base_points"`
	HealthScore float64 `json:"health_score"`
}

// RiskAssessment accumulates fraud signals for a submitted receipt.
type RiskAssessment struct {
	Score  float64  `json:"score"`
	Level  string   `json:"level"` // "low", "medium", "high"
	Issues []string `json:"issues,omitempty"`
}

// RewardBreakdown itemizes every independently stacked bonus. Bonuses sum; they
// never compound.
type RewardBreakdown struct {
	BasePoints       int64 `json:"base_points"`
	CategoryBonus    int64 `json:"category_bonus"`
	PartnershipBonus int64 `json:"partnership_bonus"`
	SpendingBonus    int64 `json:"spending_bonus"`
	HealthBonus      int64 `json:"health_bonus"`
	ProduceBonus     int64 `json:"produce_bonus"`
	WeekendBonus     int64 `json:"weekend_bonus"`
	TotalPoints      int64 `json:"total_points"`

	BaseTokens     int64 `json:"base_tokens"`
	PartnerTokens  int64 `json:"partner_tokens"`
	SpendingTokens int64 `json:"spending_tokens"`
	TotalTokens    int64 `json:"total_tokens"`
}

// Receipt is the stored record of an accepted receipt.
type Receipt struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	StoreName     string        `json:"store_name"`
	StoreCategory string        `json:"store_category"`
	IsPartner     bool          `json:"is_partner"`
	Items         []ReceiptItem `json:"items"`
	TotalCents    int64         `json:"total_cents"`
	ReceiptDate   *time.Time    `json:"receipt_date,omitempty"`
	PointsEarned  int64         `json:"points_earned"`
	TokensEarned  int64         `json:"tokens_earned"`
	HealthScore   float64       `json:"health_score"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ReceiptResult is the API-facing outcome of processing a receipt. On rejection
// Success is false and Error/RiskLevel/Issues carry the reason; no state is
// mutated and the receipt is not stored.
type ReceiptResult struct {
	Success             bool                 `json:"success"`
	ReceiptID           *uuid.UUID           `json:"receipt_id,omitempty"`
	PointsEarned        int64                `json:"points_earned,omitempty"`
	BidTokensEarned     int64                `json:"bid_tokens_earned,omitempty"`
	StoreInfo           *StoreInfo           `json:"store_info,omitempty"`
	HealthScore         float64              `json:"health_score,omitempty"`
	Breakdown           *RewardBreakdown     `json:"breakdown,omitempty"`
	LevelUp             *LevelUp             `json:"level_up,omitempty"`
	NewLevel            int                  `json:"new_level,omitempty"`
	AchievementsAwarded []AwardedAchievement `json:"achievements_awarded,omitempty"`

	Error     string   `json:"error,omitempty"`
	RiskLevel string   `json:"risk_level,omitempty"`
	Issues    []string `json:"issues,omitempty"`
}
