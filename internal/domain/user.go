/**
 * @description
 * This file defines the core user-facing domain models for the rewards-service:
 * the user account, the derived level information, and both streak tracks
 * (daily bonus and participation).
 *
 * @notes
 * - `Points` is the single source of truth for a user's level. Level and title are
 *   always derived from the point total and never stored independently, so they
 *   can never drift out of sync.
 * - Monetary amounts are stored as `int64` in cents to avoid floating-point
 *   inaccuracies.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserAccount represents a single rewards member. One row per user; every engine
// in the service mutates this record under the per-user lock.
type UserAccount struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LevelTier is one entry of the static level curve. MinPoints is strictly
// increasing across the table; the last tier has no upper bound.
type LevelTier struct {
	Level     int    `json:"level"`
	MinPoints int64  `json:"min_points"`
	Title     string `json:"title"`
}

// LevelInfo is the derived view of a point total against the level curve.
// At max level PointsToNextLevel is 0 and the "next" fields equal the current
// tier's, so a progress bar reads 100%.
type LevelInfo struct {
	Level                 int    `json:"level"`
	Title                 string `json:"title"`
	Points                int64  `json:"points"`
	PointsToNextLevel     int64  `json:"points_to_next_level"`
	MinPointsCurrentLevel int64  `json:"min_points_current_level"`
	MinPointsNextLevel    int64  `json:"min_points_next_level"`
}

// LevelUp reports a level transition caused by a point delta.
type LevelUp struct {
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	NewTitle      string `json:"new_title"`
}

// DailyBonusState tracks the daily login bonus streak for one user.
type DailyBonusState struct {
	UserID        uuid.UUID  `json:"user_id"`
	LastClaimDate *time.Time `json:"last_claim_date,omitempty"`
	CurrentStreak int        `json:"current_streak"`
}

// DailyBonusResult is returned from a claim attempt. A same-day re-claim is not
// an error: Success is false and AlreadyClaimed is true with no state mutated.
type DailyBonusResult struct {
	Success         bool     `json:"success"`
	AlreadyClaimed  bool     `json:"already_claimed,omitempty"`
	Points          int64    `json:"points,omitempty"`
	Streak          int      `json:"streak,omitempty"`
	StreakMilestone bool     `json:"streak_milestone,omitempty"`
	LevelUp         *LevelUp `json:"level_up,omitempty"`
}

// ParticipationStreak tracks consecutive days with at least one qualifying
// activity. LongestStreak is always >= CurrentStreak.
type ParticipationStreak struct {
	UserID                uuid.UUID  `json:"user_id"`
	CurrentStreak         int        `json:"current_streak"`
	LongestStreak         int        `json:"longest_streak"`
	LastParticipationDate *time.Time `json:"last_participation_date,omitempty"`
}

// ParticipationDay is one entry of the rolling streak history. Repeated
// activities on the same day merge into Activities without advancing the streak.
type ParticipationDay struct {
	Day        time.Time `json:"day"`
	Activities []string  `json:"activities"`
}

// MilestoneAward is one newly crossed streak milestone.
type MilestoneAward struct {
	Threshold int   `json:"threshold"`
	Points    int64 `json:"points"`
}

// ParticipationResult is returned from recording a participation event. When a
// streak jumps several thresholds at once every newly qualified milestone is
// awarded together, with their point values summed into MilestonePoints.
type ParticipationResult struct {
	CurrentStreak   int              `json:"current_streak"`
	LongestStreak   int              `json:"longest_streak"`
	Milestones      []MilestoneAward `json:"milestones,omitempty"`
	MilestonePoints int64            `json:"milestone_points"`
	LevelUp         *LevelUp         `json:"level_up,omitempty"`
}
