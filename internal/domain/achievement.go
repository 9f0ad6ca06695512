/**
 * @description
 * Domain models for the achievement engine. Stars and badges are two parallel
 * families sharing one shape: a static catalog item plus a per-user earned state.
 *
 * @notes
 * - Catalog items deliberately carry an explicit comparison operator. The product
 *   rules mix exact-count unlocks ("on your 10th upload") with threshold unlocks
 *   ("at least $500 lifetime spend"), and the per-item semantics must be kept.
 * - Once earned an achievement never reverts.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// AchievementFamily distinguishes the two unlockable families.
type AchievementFamily string

const (
	FamilyStar  AchievementFamily = "star"
	FamilyBadge AchievementFamily = "badge"
)

// CompareOp is the unlock comparison applied to a counter value.
type CompareOp string

const (
	CompareExact   CompareOp = "eq"
	CompareAtLeast CompareOp = "gte"
)

// Achievement is one static catalog entry. Meta items (unlocked by completing
// the rest of their family) have Meta set and no counter predicate.
type Achievement struct {
	ID          string            `json:"id"`
	Family      AchievementFamily `json:"family"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	PointsValue int64             `json:"points_value"`
	Action      string            `json:"action,omitempty"`
	Counter     string            `json:"counter,omitempty"`
	Threshold   int64             `json:"threshold,omitempty"`
	Compare     CompareOp         `json:"compare,omitempty"`
	Meta        bool              `json:"meta,omitempty"`
}

// AchievementState is the per-user earned flag for one catalog item.
type AchievementState struct {
	UserID        uuid.UUID         `json:"user_id"`
	AchievementID string            `json:"achievement_id"`
	Family        AchievementFamily `json:"family"`
	Earned        bool              `json:"earned"`
	EarnedDate    *time.Time        `json:"earned_date,omitempty"`
}

// AwardedAchievement is the API-facing record of a newly earned item.
type AwardedAchievement struct {
	ID          string            `json:"id"`
	Family      AchievementFamily `json:"family"`
	Name        string            `json:"name"`
	PointsValue int64             `json:"points_value"`
}

// AwardResult reports the outcome of an explicit award operation. Re-awarding an
// already earned item is a non-error no-op with AlreadyEarned set.
type AwardResult struct {
	Success       bool                 `json:"success"`
	AlreadyEarned bool                 `json:"already_earned,omitempty"`
	Awarded       []AwardedAchievement `json:"awarded,omitempty"`
	PointsGranted int64                `json:"points_granted"`
	LevelUp       *LevelUp             `json:"level_up,omitempty"`
}

// CounterSnapshot carries the lifetime counters achievement predicates are
// evaluated against.
type CounterSnapshot struct {
	ReceiptsUploaded    int64 `json:"receipts_uploaded"`
	TotalSpendCents     int64 `json:"total_spend_cents"`
	UniqueStores        int64 `json:"unique_stores"`
	CategoriesShopped   int64 `json:"categories_shopped"`
	DailyBonusClaims    int64 `json:"daily_bonus_claims"`
	DailyBonusStreak    int64 `json:"daily_bonus_streak"`
	Participations      int64 `json:"participations"`
	ParticipationStreak int64 `json:"participation_streak"`
	HealthyReceipts     int64 `json:"healthy_receipts"`
	AuctionBidsPlaced   int64 `json:"auction_bids_placed"`
	AuctionsWon         int64 `json:"auctions_won"`
	MissionsCompleted   int64 `json:"missions_completed"`
}

// Counter names referenced by catalog items.
const (
	CounterReceiptsUploaded    = "receipts_uploaded"
	CounterTotalSpendCents     = "total_spend_cents"
	CounterUniqueStores        = "unique_stores"
	CounterCategoriesShopped   = "categories_shopped"
	CounterDailyBonusClaims    = "daily_bonus_claims"
	CounterDailyBonusStreak    = "daily_bonus_streak"
	CounterParticipations      = "participations"
	CounterParticipationStreak = "participation_streak"
	CounterHealthyReceipts     = "healthy_receipts"
	CounterAuctionBidsPlaced   = "auction_bids_placed"
	CounterAuctionsWon         = "auctions_won"
	CounterMissionsCompleted   = "missions_completed"
)

// Value resolves a named counter from the snapshot. Unknown names read as zero.
func (c CounterSnapshot) Value(name string) int64 {
	switch name {
	case CounterReceiptsUploaded:
		return c.ReceiptsUploaded
	case CounterTotalSpendCents:
		return c.TotalSpendCents
	case CounterUniqueStores:
		return c.UniqueStores
	case CounterCategoriesShopped:
		return c.CategoriesShopped
	case CounterDailyBonusClaims:
		return c.DailyBonusClaims
	case CounterDailyBonusStreak:
		return c.DailyBonusStreak
	case CounterParticipations:
		return c.Participations
	case CounterParticipationStreak:
		return c.ParticipationStreak
	case CounterHealthyReceipts:
		return c.HealthyReceipts
	case CounterAuctionBidsPlaced:
		return c.AuctionBidsPlaced
	case CounterAuctionsWon:
		return c.AuctionsWon
	case CounterMissionsCompleted:
		return c.MissionsCompleted
	default:
		return 0
	}
}

// AchievementProgress aggregates earned vs possible values for progress displays.
type AchievementProgress struct {
	Family             AchievementFamily `json:"family"`
	TotalCount         int               `json:"total_count"`
	EarnedCount        int               `json:"earned_count"`
	TotalPossibleValue int64             `json:"total_possible_value"`
	TotalEarnedValue   int64             `json:"total_earned_value"`
}
