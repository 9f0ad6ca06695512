/**
 * @description
 * Achievement evaluation and award logic. Awards always run inside the caller's
 * user-locked transaction so the earned flag, the point grant and the meta
 * cascade commit together.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toucanwin/rewards-service/internal/domain"
	"github.com/toucanwin/rewards-service/internal/store"
)

// ErrUnknownAchievement is returned for an id that is not in any catalog.
var ErrUnknownAchievement = errors.New("unknown achievement")

// ErrMetaAchievement is returned when a caller tries to award a meta item
// directly; those unlock only by completing the rest of their family.
var ErrMetaAchievement = errors.New("meta achievements cannot be awarded directly")

// predicateMatches applies an item's comparison operator to a counter value.
func predicateMatches(item domain.Achievement, snapshot domain.CounterSnapshot) bool {
	value := snapshot.Value(item.Counter)
	switch item.Compare {
	case domain.CompareExact:
		return value == item.Threshold
	case domain.CompareAtLeast:
		return value >= item.Threshold
	default:
		return false
	}
}

// earnedSet loads the ids already earned in a family.
func earnedSet(ctx context.Context, tx store.Repository, userID uuid.UUID, family domain.AchievementFamily) (map[string]bool, error) {
	states, err := tx.ListAchievementStates(ctx, userID, family)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(states))
	for _, state := range states {
		if state.Earned {
			earned[state.AchievementID] = true
		}
	}
	return earned, nil
}

// awardOne marks a single achievement earned and grants its point bonus.
// It reports false when the item was already earned (no points granted).
func awardOne(ctx context.Context, tx store.Repository, userID uuid.UUID, item domain.Achievement, today time.Time) (bool, int64, error) {
	newlyEarned, err := tx.MarkAchievementEarned(ctx, userID, item.Family, item.ID, dayOf(today))
	if err != nil {
		return false, 0, fmt.Errorf("mark achievement earned: %w", err)
	}
	if !newlyEarned {
		return false, 0, nil
	}

	points := item.PointsValue
	if item.Family == domain.FamilyBadge {
		points = badgeAwardPoints
	}
	if _, err := tx.AddPoints(ctx, userID, points); err != nil {
		return false, 0, fmt.Errorf("grant achievement points: %w", err)
	}
	return true, points, nil
}

// awardWithMeta awards one item and, when that completes the rest of its
// family, awards the family's meta item in the same operation.
func awardWithMeta(ctx context.Context, tx store.Repository, userID uuid.UUID, item domain.Achievement, today time.Time) ([]domain.AwardedAchievement, int64, error) {
	newlyEarned, points, err := awardOne(ctx, tx, userID, item, today)
	if err != nil {
		return nil, 0, err
	}
	if !newlyEarned {
		return nil, 0, nil
	}

	awarded := []domain.AwardedAchievement{{
		ID:          item.ID,
		Family:      item.Family,
		Name:        item.Name,
		PointsValue: points,
	}}
	total := points

	if item.Meta {
		return awarded, total, nil
	}

	catalog := catalogFor(item.Family)
	earned, err := earnedSet(ctx, tx, userID, item.Family)
	if err != nil {
		return nil, 0, err
	}
	// Meta fires when everything except the meta item itself is earned.
	if len(earned) != len(catalog)-1 {
		return awarded, total, nil
	}

	for _, candidate := range catalog {
		if !candidate.Meta || earned[candidate.ID] {
			continue
		}
		metaEarned, metaPoints, err := awardOne(ctx, tx, userID, candidate, today)
		if err != nil {
			return nil, 0, err
		}
		if metaEarned {
			awarded = append(awarded, domain.AwardedAchievement{
				ID:          candidate.ID,
				Family:      candidate.Family,
				Name:        candidate.Name,
				PointsValue: metaPoints,
			})
			total += metaPoints
		}
	}
	return awarded, total, nil
}

// evaluateAchievements checks every not-yet-earned item keyed to the action
// against the counter snapshot and awards all matches, meta cascades included.
func evaluateAchievements(ctx context.Context, tx store.Repository, userID uuid.UUID, action string, snapshot domain.CounterSnapshot, today time.Time) ([]domain.AwardedAchievement, int64, error) {
	var awarded []domain.AwardedAchievement
	var totalPoints int64

	for _, family := range []domain.AchievementFamily{domain.FamilyStar, domain.FamilyBadge} {
		earned, err := earnedSet(ctx, tx, userID, family)
		if err != nil {
			return nil, 0, err
		}
		for _, item := range catalogFor(family) {
			if item.Meta || item.Action != action || earned[item.ID] {
				continue
			}
			if !predicateMatches(item, snapshot) {
				continue
			}
			items, points, err := awardWithMeta(ctx, tx, userID, item, today)
			if err != nil {
				return nil, 0, err
			}
			awarded = append(awarded, items...)
			totalPoints += points
			for _, a := range items {
				earned[a.ID] = true
			}
		}
	}
	return awarded, totalPoints, nil
}
