/**
 * @description
 * This file defines the `Repository` interface, the contract for all data access
 * the rewards-service needs. Keeping the business logic behind this interface
 * decouples it from PostgreSQL and lets the service tests run against stubs.
 *
 * @notes
 * - Every mutation of a single user's economy (points, streaks, achievements,
 *   ledger) happens inside WithUserLock, which serializes the multi-step
 *   read-modify-write sequences per user while leaving cross-user operations
 *   fully parallel.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toucanwin/rewards-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// WithUserLock runs fn inside a transaction that holds an exclusive lock on
	// the user's account row. All repository calls made through the tx argument
	// see and mutate a consistent snapshot of that user's state.
	WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx Repository) error) error

	// User accounts
	CreateUserAccount(ctx context.Context, account *domain.UserAccount) error
	FindUserAccountByID(ctx context.Context, userID uuid.UUID) (*domain.UserAccount, error)
	// AddPoints applies a point delta (which may be negative) and returns the
	// resulting cumulative total, clamped at zero.
	AddPoints(ctx context.Context, userID uuid.UUID, delta int64) (int64, error)

	// Daily bonus streak
	GetDailyBonusState(ctx context.Context, userID uuid.UUID) (*domain.DailyBonusState, error)
	SaveDailyBonusState(ctx context.Context, state *domain.DailyBonusState) error

	// Participation streak
	GetParticipationStreak(ctx context.Context, userID uuid.UUID) (*domain.ParticipationStreak, error)
	SaveParticipationStreak(ctx context.Context, streak *domain.ParticipationStreak) error
	UpsertParticipationDay(ctx context.Context, userID uuid.UUID, day time.Time, activity string) error
	TrimParticipationHistory(ctx context.Context, userID uuid.UUID, keepDays int) error
	ListParticipationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ParticipationDay, error)
	GetAchievedMilestones(ctx context.Context, userID uuid.UUID) (map[int]bool, error)
	MarkMilestoneAchieved(ctx context.Context, userID uuid.UUID, threshold int) error

	// Achievements
	ListAchievementStates(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily) ([]domain.AchievementState, error)
	// MarkAchievementEarned flips the earned flag exactly once; it reports false
	// when the achievement was already earned.
	MarkAchievementEarned(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily, achievementID string, earnedDate time.Time) (bool, error)

	// Receipts
	CreateReceipt(ctx context.Context, receipt *domain.Receipt) error
	ListReceiptsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Receipt, error)

	// Lifetime counters feeding achievement predicates
	GetCounters(ctx context.Context, userID uuid.UUID) (*domain.CounterSnapshot, error)
	IncrementCounters(ctx context.Context, userID uuid.UUID, delta domain.CounterSnapshot) error
	// RecordStoreVisit / RecordCategoryShopped grow the distinct-value sets and
	// report whether the value was new for this user.
	RecordStoreVisit(ctx context.Context, userID uuid.UUID, storeKey string) (bool, error)
	RecordCategoryShopped(ctx context.Context, userID uuid.UUID, category string) (bool, error)

	// Bid-token ledger
	GetTokenLedger(ctx context.Context, userID uuid.UUID) (*domain.TokenLedger, error)
	CreditTokens(ctx context.Context, entry *domain.TokenTransaction) (*domain.TokenLedger, error)
	// DebitTokens returns ErrInsufficientTokens, with no mutation, when the
	// amount exceeds the current balance.
	DebitTokens(ctx context.Context, entry *domain.TokenTransaction) (*domain.TokenLedger, error)
	ListTokenTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TokenTransaction, error)
	GetLedgerAnalytics(ctx context.Context, userID uuid.UUID) (*domain.LedgerAnalytics, error)
}
