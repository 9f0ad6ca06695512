/**
 * @description
 * The level engine. A user's level is a pure function of their cumulative point
 * total against a static ten-tier curve; nothing here touches storage.
 *
 * @notes
 * - MinPoints is strictly increasing across the table. Tier ten has no upper
 *   bound, so any total at or beyond its threshold reads as level ten with a
 *   full progress bar.
 */

package app

import "github.com/toucanwin/rewards-service/internal/domain"

// levelTiers is the static level curve. Order matters: ascending MinPoints.
var levelTiers = []domain.LevelTier{
	{Level: 1, MinPoints: 0, Title: "Hatchling"},
	{Level: 2, MinPoints: 100, Title: "Fledgling"},
	{Level: 3, MinPoints: 250, Title: "Forager"},
	{Level: 4, MinPoints: 500, Title: "Scout"},
	{Level: 5, MinPoints: 1000, Title: "Explorer"},
	{Level: 6, MinPoints: 2000, Title: "Adventurer"},
	{Level: 7, MinPoints: 3500, Title: "Pathfinder"},
	{Level: 8, MinPoints: 5500, Title: "Champion"},
	{Level: 9, MinPoints: 8000, Title: "Luminary"},
	{Level: 10, MinPoints: 12000, Title: "Toucan Royalty"},
}

// LevelForPoints derives the level view for a cumulative point total. Negative
// totals are treated as zero so a correcting point deduction can never produce
// a level below one.
func LevelForPoints(points int64) domain.LevelInfo {
	if points < 0 {
		points = 0
	}

	current := levelTiers[0]
	for _, tier := range levelTiers {
		if points >= tier.MinPoints {
			current = tier
		} else {
			break
		}
	}

	info := domain.LevelInfo{
		Level:                 current.Level,
		Title:                 current.Title,
		Points:                points,
		MinPointsCurrentLevel: current.MinPoints,
	}

	if current.Level >= levelTiers[len(levelTiers)-1].Level {
		// Max level: next-tier fields mirror the current tier.
		info.MinPointsNextLevel = current.MinPoints
		info.PointsToNextLevel = 0
		return info
	}

	next := levelTiers[current.Level] // tiers are 1-indexed by Level
	info.MinPointsNextLevel = next.MinPoints
	info.PointsToNextLevel = next.MinPoints - points
	return info
}

// ResolveLevelUp compares the levels derived from a before/after point total
// and reports a transition, or nil when the level did not increase.
func ResolveLevelUp(pointsBefore, pointsAfter int64) *domain.LevelUp {
	before := LevelForPoints(pointsBefore)
	after := LevelForPoints(pointsAfter)
	if after.Level <= before.Level {
		return nil
	}
	return &domain.LevelUp{
		PreviousLevel: before.Level,
		NewLevel:      after.Level,
		NewTitle:      after.Title,
	}
}
