/**
 * @description
 * Static catalogs for the achievement engine and the receipt classifiers: the
 * star and badge families, the store directory, and the product directory.
 *
 * @notes
 * - Catalog order is meaningful for the directories: classification is
 *   first-substring-match-wins, so broader patterns belong later.
 * - Achievement comparison operators are intentionally mixed. Exact-count items
 *   fire on the event that lands exactly on the threshold; at-least items fire
 *   on any event at or past it. These are per-item product rules, not a bug to
 *   normalize away.
 */

package app

import "github.com/toucanwin/rewards-service/internal/domain"

// Action keys achievements are evaluated under.
const (
	ActionUploadReceipt       = "upload_receipt"
	ActionDailyLogin          = "daily_login"
	ActionAuctionBid          = "auction_bid"
	ActionAuctionWon          = "auction_won"
	ActionMissionComplete     = "mission_complete"
	ActionRecordParticipation = "record_participation"
)

const badgeAwardPoints = 50

// starCatalog is the star family. The tenth item ("Legend") is the meta star,
// earned automatically when the other nine are.
var starCatalog = []domain.Achievement{
	{ID: "star_first_receipt", Family: domain.FamilyStar, Name: "First Snap", Description: "Upload your first receipt", Category: "receipts", PointsValue: 25, Action: ActionUploadReceipt, Counter: domain.CounterReceiptsUploaded, Threshold: 1, Compare: domain.CompareAtLeast},
	{ID: "star_ten_receipts", Family: domain.FamilyStar, Name: "Regular", Description: "Upload 10 receipts", Category: "receipts", PointsValue: 50, Action: ActionUploadReceipt, Counter: domain.CounterReceiptsUploaded, Threshold: 10, Compare: domain.CompareExact},
	{ID: "star_fifty_receipts", Family: domain.FamilyStar, Name: "Devoted", Description: "Upload 50 receipts", Category: "receipts", PointsValue: 150, Action: ActionUploadReceipt, Counter: domain.CounterReceiptsUploaded, Threshold: 50, Compare: domain.CompareAtLeast},
	{ID: "star_big_spender", Family: domain.FamilyStar, Name: "Big Spender", Description: "Reach $500 in scanned spend", Category: "spending", PointsValue: 100, Action: ActionUploadReceipt, Counter: domain.CounterTotalSpendCents, Threshold: 50000, Compare: domain.CompareAtLeast},
	{ID: "star_store_hopper", Family: domain.FamilyStar, Name: "Store Hopper", Description: "Shop at 5 different stores", Category: "exploration", PointsValue: 75, Action: ActionUploadReceipt, Counter: domain.CounterUniqueStores, Threshold: 5, Compare: domain.CompareExact},
	{ID: "star_category_explorer", Family: domain.FamilyStar, Name: "Category Explorer", Description: "Shop across 5 categories", Category: "exploration", PointsValue: 75, Action: ActionUploadReceipt, Counter: domain.CounterCategoriesShopped, Threshold: 5, Compare: domain.CompareAtLeast},
	{ID: "star_health_nut", Family: domain.FamilyStar, Name: "Health Nut", Description: "Upload 10 healthy receipts", Category: "health", PointsValue: 100, Action: ActionUploadReceipt, Counter: domain.CounterHealthyReceipts, Threshold: 10, Compare: domain.CompareAtLeast},
	{ID: "star_week_streak", Family: domain.FamilyStar, Name: "Seven Days Strong", Description: "Hold a 7-day participation streak", Category: "streaks", PointsValue: 100, Action: ActionRecordParticipation, Counter: domain.CounterParticipationStreak, Threshold: 7, Compare: domain.CompareAtLeast},
	{ID: "star_auction_winner", Family: domain.FamilyStar, Name: "Top Bidder", Description: "Win your first auction", Category: "auctions", PointsValue: 100, Action: ActionAuctionWon, Counter: domain.CounterAuctionsWon, Threshold: 1, Compare: domain.CompareAtLeast},
	{ID: "star_legend", Family: domain.FamilyStar, Name: "Legend", Description: "Earn every other star", Category: "meta", PointsValue: 500, Meta: true},
}

// badgeCatalog is the badge family. Badges grant a flat bonus on award; the
// tenth item is the family's meta badge.
var badgeCatalog = []domain.Achievement{
	{ID: "badge_welcome", Family: domain.FamilyBadge, Name: "Welcome Aboard", Description: "Claim your first daily bonus", Category: "engagement", PointsValue: badgeAwardPoints, Action: ActionDailyLogin, Counter: domain.CounterDailyBonusClaims, Threshold: 1, Compare: domain.CompareAtLeast},
	{ID: "badge_loyal_login", Family: domain.FamilyBadge, Name: "Creature of Habit", Description: "Claim the daily bonus 30 times", Category: "engagement", PointsValue: badgeAwardPoints, Action: ActionDailyLogin, Counter: domain.CounterDailyBonusClaims, Threshold: 30, Compare: domain.CompareAtLeast},
	{ID: "badge_login_streak", Family: domain.FamilyBadge, Name: "Unbroken", Description: "Hit a 10-day daily bonus streak", Category: "streaks", PointsValue: badgeAwardPoints, Action: ActionDailyLogin, Counter: domain.CounterDailyBonusStreak, Threshold: 10, Compare: domain.CompareExact},
	{ID: "badge_first_bid", Family: domain.FamilyBadge, Name: "Opening Bid", Description: "Place your first auction bid", Category: "auctions", PointsValue: badgeAwardPoints, Action: ActionAuctionBid, Counter: domain.CounterAuctionBidsPlaced, Threshold: 1, Compare: domain.CompareAtLeast},
	{ID: "badge_bid_veteran", Family: domain.FamilyBadge, Name: "Bid Veteran", Description: "Place 25 auction bids", Category: "auctions", PointsValue: badgeAwardPoints, Action: ActionAuctionBid, Counter: domain.CounterAuctionBidsPlaced, Threshold: 25, Compare: domain.CompareAtLeast},
	{ID: "badge_mission_first", Family: domain.FamilyBadge, Name: "On a Mission", Description: "Complete your first mission", Category: "missions", PointsValue: badgeAwardPoints, Action: ActionMissionComplete, Counter: domain.CounterMissionsCompleted, Threshold: 1, Compare: domain.CompareAtLeast},
	{ID: "badge_mission_ten", Family: domain.FamilyBadge, Name: "Mission Veteran", Description: "Complete 10 missions", Category: "missions", PointsValue: badgeAwardPoints, Action: ActionMissionComplete, Counter: domain.CounterMissionsCompleted, Threshold: 10, Compare: domain.CompareExact},
	{ID: "badge_participant", Family: domain.FamilyBadge, Name: "Always There", Description: "Record 50 participation days", Category: "engagement", PointsValue: badgeAwardPoints, Action: ActionRecordParticipation, Counter: domain.CounterParticipations, Threshold: 50, Compare: domain.CompareAtLeast},
	{ID: "badge_month_streak", Family: domain.FamilyBadge, Name: "Monthly Regular", Description: "Hold a 30-day participation streak", Category: "streaks", PointsValue: badgeAwardPoints, Action: ActionRecordParticipation, Counter: domain.CounterParticipationStreak, Threshold: 30, Compare: domain.CompareAtLeast},
	{ID: "badge_collector", Family: domain.FamilyBadge, Name: "Completionist", Description: "Earn every other badge", Category: "meta", PointsValue: badgeAwardPoints, Meta: true},
}

// catalogFor returns the family's catalog, or nil for an unknown family.
func catalogFor(family domain.AchievementFamily) []domain.Achievement {
	switch family {
	case domain.FamilyStar:
		return starCatalog
	case domain.FamilyBadge:
		return badgeCatalog
	default:
		return nil
	}
}

// findAchievement looks an item up by family and id.
func findAchievement(family domain.AchievementFamily, id string) *domain.Achievement {
	catalog := catalogFor(family)
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i]
		}
	}
	return nil
}

// storeDirectoryEntry maps a store-name pattern to its category and partner
// terms.
type storeDirectoryEntry struct {
	Pattern            string
	Category           string
	CategoryMultiplier float64
	IsPartner          bool
	PartnerMultiplier  float64
}

// storeDirectory drives store classification. Matching is by normalized
// substring, first match wins.
var storeDirectory = []storeDirectoryEntry{
	{Pattern: "whole foods", Category: "grocery", CategoryMultiplier: 1.0, IsPartner: true, PartnerMultiplier: 1.2},
	{Pattern: "green basket", Category: "grocery", CategoryMultiplier: 1.0, IsPartner: true, PartnerMultiplier: 1.2},
	{Pattern: "trader joe", Category: "grocery", CategoryMultiplier: 1.0, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "kroger", Category: "grocery", CategoryMultiplier: 1.0, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "safeway", Category: "grocery", CategoryMultiplier: 1.0, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "walgreens", Category: "pharmacy", CategoryMultiplier: 1.1, IsPartner: true, PartnerMultiplier: 1.15},
	{Pattern: "cvs", Category: "pharmacy", CategoryMultiplier: 1.1, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "best buy", Category: "electronics", CategoryMultiplier: 1.05, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "chipotle", Category: "restaurant", CategoryMultiplier: 1.1, IsPartner: true, PartnerMultiplier: 1.25},
	{Pattern: "subway", Category: "restaurant", CategoryMultiplier: 1.1, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "shell", Category: "fuel", CategoryMultiplier: 1.0, IsPartner: false, PartnerMultiplier: 1.0},
	{Pattern: "target", Category: "general", CategoryMultiplier: 1.05, IsPartner: true, PartnerMultiplier: 1.1},
	{Pattern: "walmart", Category: "general", CategoryMultiplier: 1.0, IsPartner: false, PartnerMultiplier: 1.0},
}

// productDirectoryEntry maps a line-item pattern to its category, base points
// and health score (0-10).
type productDirectoryEntry struct {
	Pattern     string
	Category    string
	BasePoints  int64
	HealthScore float64
}

// productDirectory drives item classification. First substring match wins.
var productDirectory = []productDirectoryEntry{
	{Pattern: "apple", Category: "produce", BasePoints: 2, HealthScore: 9},
	{Pattern: "banana", Category: "produce", BasePoints: 2, HealthScore: 9},
	{Pattern: "spinach", Category: "produce", BasePoints: 3, HealthScore: 10},
	{Pattern: "carrot", Category: "produce", BasePoints: 2, HealthScore: 9},
	{Pattern: "salad", Category: "produce", BasePoints: 3, HealthScore: 8},
	{Pattern: "broccoli", Category: "produce", BasePoints: 3, HealthScore: 10},
	{Pattern: "milk", Category: "dairy", BasePoints: 2, HealthScore: 7},
	{Pattern: "yogurt", Category: "dairy", BasePoints: 2, HealthScore: 7},
	{Pattern: "cheese", Category: "dairy", BasePoints: 2, HealthScore: 5},
	{Pattern: "chicken", Category: "protein", BasePoints: 3, HealthScore: 7},
	{Pattern: "salmon", Category: "protein", BasePoints: 4, HealthScore: 9},
	{Pattern: "tofu", Category: "protein", BasePoints: 3, HealthScore: 8},
	{Pattern: "bread", Category: "bakery", BasePoints: 1, HealthScore: 5},
	{Pattern: "soda", Category: "beverage", BasePoints: 1, HealthScore: 2},
	{Pattern: "juice", Category: "beverage", BasePoints: 1, HealthScore: 4},
	{Pattern: "water", Category: "beverage", BasePoints: 1, HealthScore: 8},
	{Pattern: "chips", Category: "snack", BasePoints: 1, HealthScore: 2},
	{Pattern: "chocolate", Category: "snack", BasePoints: 1, HealthScore: 3},
	{Pattern: "cookie", Category: "snack", BasePoints: 1, HealthScore: 2},
	{Pattern: "rice", Category: "pantry", BasePoints: 1, HealthScore: 6},
	{Pattern: "pasta", Category: "pantry", BasePoints: 1, HealthScore: 5},
	{Pattern: "cereal", Category: "pantry", BasePoints: 1, HealthScore: 5},
}
