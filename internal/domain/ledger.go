/**
 * @description
 * Domain models for the bid-token ledger: the per-user balance summary, the
 * append-only transaction entries, and the analytics aggregates.
 *
 * @notes
 * - The ledger invariant `balance == total_earned - total_spent` holds after
 *   every operation, and the balance never goes negative; a spend exceeding the
 *   balance is rejected without mutation.
 * - Transactions are returned newest-first. Display listings may be truncated
 *   to a window, but analytics always aggregate the full history.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types for ledger entries.
const (
	TokenTxEarned = "earned"
	TokenTxSpent  = "spent"
)

// Well-known earn sources and spend purposes.
const (
	TokenSourceReceiptProcessing = "receipt_processing"
	TokenSourceDailyBonus        = "daily_bonus"
	TokenSourcePromotion         = "promotion"
	TokenPurposeAuctionBid       = "auction_bid"
)

// TokenLedger is the per-user balance summary.
type TokenLedger struct {
	UserID      uuid.UUID `json:"user_id"`
	Balance     int64     `json:"balance"`
	TotalEarned int64     `json:"total_earned"`
	TotalSpent  int64     `json:"total_spent"`
}

// TokenTransaction is one immutable ledger entry. BalanceAfter snapshots the
// ledger balance at append time.
type TokenTransaction struct {
	ID           uuid.UUID         `json:"id"`
	UserID       uuid.UUID         `json:"user_id"`
	Type         string            `json:"type"` // "earned" or "spent"
	Amount       int64             `json:"amount"`
	Reason       string            `json:"reason"` // earn source or spend purpose
	Metadata     map[string]string `json:"metadata,omitempty"`
	BalanceAfter int64             `json:"balance_after"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
}

// LedgerResult is the outcome of a credit or debit. A rejected debit reports
// the required and available amounts with no mutation.
type LedgerResult struct {
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	Required     int64             `json:"required,omitempty"`
	Available    int64             `json:"available,omitempty"`
	Balance      int64             `json:"balance"`
	Transaction  *TokenTransaction `json:"transaction,omitempty"`
}

// MonthlyEarning is one UTC-month aggregation bucket.
type MonthlyEarning struct {
	Month  string `json:"month"` // "2026-01"
	Earned int64  `json:"earned"`
}

// LedgerAnalytics aggregates the full transaction history for one user.
// AvgTokensPerReceipt is computed only over receipt_processing earnings.
type LedgerAnalytics struct {
	UserID              uuid.UUID        `json:"user_id"`
	Balance             int64            `json:"balance"`
	TotalEarned         int64            `json:"total_earned"`
	TotalSpent          int64            `json:"total_spent"`
	EarnedBySource      map[string]int64 `json:"earned_by_source"`
	SpentByPurpose      map[string]int64 `json:"spent_by_purpose"`
	MonthlyEarnings     []MonthlyEarning `json:"monthly_earnings"`
	AvgTokensPerReceipt float64          `json:"avg_tokens_per_receipt"`
}
