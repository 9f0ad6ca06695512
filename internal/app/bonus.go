/**
 * @description
 * Bonus stacking for accepted receipts. Every bonus is computed independently
 * off the base amount and summed; bonuses never compound on each other.
 *
 * @notes
 * - Base points and base tokens are both the whole-dollar floor of the total.
 * - Multiplier bonuses take the floor of base x (multiplier - 1), so a 1.0
 *   multiplier contributes nothing.
 */

package app

import (
	"math"
	"time"

	"github.com/toucanwin/rewards-service/internal/domain"
)

// Spending tier cut-offs and grants.
const (
	spendTierHighCents  = 15000 // > $150
	spendTierMidCents   = 7500  // > $75
	spendTierHighPoints = 50
	spendTierHighTokens = 10
	spendTierMidPoints  = 25
	spendTierMidTokens  = 5
)

const (
	healthBonusFloor    = 7.0 // average item health score must exceed this
	healthBonusRate     = 0.2
	weekendBonusRate    = 0.1
	partnerTokenRate    = 0.1
	produceItemBonus    = 2
	produceItemCategory = "produce"
)

// StackBonuses derives the full reward breakdown for a passed receipt.
func StackBonuses(
	receipt domain.StructuredReceipt,
	store domain.StoreInfo,
	categoryMultiplier float64,
	items []domain.ItemClassification,
) domain.RewardBreakdown {
	base := receipt.TotalCents / 100

	breakdown := domain.RewardBreakdown{
		BasePoints: base,
		BaseTokens: base,
	}

	breakdown.CategoryBonus = multiplierBonus(base, categoryMultiplier)
	if store.IsPartner {
		breakdown.PartnershipBonus = multiplierBonus(base, store.PartnerMultiplier)
		breakdown.PartnerTokens = int64(math.Floor(float64(base) * partnerTokenRate))
	}

	switch {
	case receipt.TotalCents > spendTierHighCents:
		breakdown.SpendingBonus = spendTierHighPoints
		breakdown.SpendingTokens = spendTierHighTokens
	case receipt.TotalCents > spendTierMidCents:
		breakdown.SpendingBonus = spendTierMidPoints
		breakdown.SpendingTokens = spendTierMidTokens
	}

	if AverageHealthScore(items) > healthBonusFloor {
		breakdown.HealthBonus = int64(math.Floor(float64(base) * healthBonusRate))
	}

	for _, item := range items {
		if item.Category == produceItemCategory {
			breakdown.ProduceBonus += produceItemBonus
		}
	}

	if receipt.Date != nil && isWeekend(*receipt.Date) {
		breakdown.WeekendBonus = int64(math.Floor(float64(base) * weekendBonusRate))
	}

	breakdown.TotalPoints = breakdown.BasePoints +
		breakdown.CategoryBonus +
		breakdown.PartnershipBonus +
		breakdown.SpendingBonus +
		breakdown.HealthBonus +
		breakdown.ProduceBonus +
		breakdown.WeekendBonus

	breakdown.TotalTokens = breakdown.BaseTokens +
		breakdown.PartnerTokens +
		breakdown.SpendingTokens

	return breakdown
}

func multiplierBonus(base int64, multiplier float64) int64 {
	if multiplier <= 1.0 {
		return 0
	}
	return int64(math.Floor(float64(base) * (multiplier - 1.0)))
}

func isWeekend(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
