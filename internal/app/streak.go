/**
 * @description
 * The streak engine. Both streak tracks (daily bonus and participation) share
 * one continuity rule: a same-day repeat leaves the streak unchanged, a
 * consecutive day increments it, anything else resets it to one.
 *
 * @notes
 * - All date comparisons are calendar-day comparisons in UTC. Callers pass
 *   "today" explicitly so the rule stays deterministic and testable.
 * - Milestone checks use <= against the current streak so a streak that jumps
 *   several thresholds in one event collects every newly qualified milestone
 *   at once.
 */

package app

import (
	"time"

	"github.com/toucanwin/rewards-service/internal/domain"
)

// streakOutcome classifies a new event date against the last recorded one.
type streakOutcome int

const (
	streakSameDay streakOutcome = iota
	streakConsecutive
	streakReset
)

// dayOf truncates a timestamp to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// streakStep applies the shared continuity rule. A nil lastDate (first-ever
// event) counts as a reset to one.
func streakStep(lastDate *time.Time, today time.Time) streakOutcome {
	if lastDate == nil {
		return streakReset
	}
	last := dayOf(*lastDate)
	day := dayOf(today)
	switch {
	case last.Equal(day):
		return streakSameDay
	case last.AddDate(0, 0, 1).Equal(day):
		return streakConsecutive
	default:
		return streakReset
	}
}

// dailyBonusPoints computes the claim amount for a streak: the base amount with
// a multiplier that steps up every five consecutive days.
func dailyBonusPoints(basePoints int64, streak int) int64 {
	return basePoints * int64(streak/5+1)
}

// participationMilestones is the static milestone table, ascending by
// day-threshold. Each entry grants a one-time point bonus.
var participationMilestones = []domain.MilestoneAward{
	{Threshold: 3, Points: 25},
	{Threshold: 5, Points: 50},
	{Threshold: 7, Points: 75},
	{Threshold: 10, Points: 100},
	{Threshold: 14, Points: 150},
	{Threshold: 21, Points: 250},
	{Threshold: 30, Points: 400},
	{Threshold: 60, Points: 750},
	{Threshold: 100, Points: 1500},
}

// newMilestones returns every milestone with threshold <= streak that is not in
// the achieved set, in ascending order.
func newMilestones(streak int, achieved map[int]bool) []domain.MilestoneAward {
	var out []domain.MilestoneAward
	for _, m := range participationMilestones {
		if m.Threshold > streak {
			break
		}
		if achieved[m.Threshold] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// streakHistoryDays is the retention window for participation history.
const streakHistoryDays = 30
