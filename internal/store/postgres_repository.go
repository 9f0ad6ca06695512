/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed to persist user accounts, streak state,
 * achievements, receipts, lifetime counters and the bid-token ledger.
 *
 * @dependencies
 * - context, time, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toucanwin/rewards-service/internal/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrInsufficientTokens  = errors.New("insufficient tokens")
	ErrAchievementNotFound = errors.New("achievement not found")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// method works identically inside and outside a user-locked transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithUserLock opens a transaction, takes an exclusive row lock on the user's
// account, and runs fn with a transaction-bound repository. The lock serializes
// every multi-step mutation of one user's economy.
func (r *PostgresRepository) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin user transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM user_accounts WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrUserNotFound
		}
		return fmt.Errorf("lock user account: %w", err)
	}

	if err := fn(ctx, &PostgresRepository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateUserAccount inserts a new rewards member.
func (r *PostgresRepository) CreateUserAccount(ctx context.Context, account *domain.UserAccount) error {
	query := `
		INSERT INTO user_accounts (id, username, points, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, account.ID, account.Username, account.Points)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserAlreadyExists
	}
	return nil
}

// FindUserAccountByID retrieves a user account by its ID.
func (r *PostgresRepository) FindUserAccountByID(ctx context.Context, userID uuid.UUID) (*domain.UserAccount, error) {
	var account domain.UserAccount
	query := `SELECT id, username, points, created_at, updated_at FROM user_accounts WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&account.ID, &account.Username, &account.Points, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

// AddPoints applies a point delta and returns the new cumulative total. The
// total is clamped at zero so a correcting deduction can never go negative.
func (r *PostgresRepository) AddPoints(ctx context.Context, userID uuid.UUID, delta int64) (int64, error) {
	var points int64
	query := `
		UPDATE user_accounts
		SET points = GREATEST(points + $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING points
	`
	err := r.db.QueryRow(ctx, query, userID, delta).Scan(&points)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return points, nil
}

// GetDailyBonusState returns the daily bonus streak state, or a zero state when
// the user has never claimed.
func (r *PostgresRepository) GetDailyBonusState(ctx context.Context, userID uuid.UUID) (*domain.DailyBonusState, error) {
	state := domain.DailyBonusState{UserID: userID}
	query := `SELECT last_claim_date, current_streak FROM daily_bonus_states WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&state.LastClaimDate, &state.CurrentStreak)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	return &state, nil
}

// SaveDailyBonusState upserts the daily bonus streak state.
func (r *PostgresRepository) SaveDailyBonusState(ctx context.Context, state *domain.DailyBonusState) error {
	query := `
		INSERT INTO daily_bonus_states (user_id, last_claim_date, current_streak)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			last_claim_date = EXCLUDED.last_claim_date,
			current_streak = EXCLUDED.current_streak
	`
	_, err := r.db.Exec(ctx, query, state.UserID, state.LastClaimDate, state.CurrentStreak)
	return err
}

// GetParticipationStreak returns the participation streak state, or a zero
// state for a user with no history.
func (r *PostgresRepository) GetParticipationStreak(ctx context.Context, userID uuid.UUID) (*domain.ParticipationStreak, error) {
	streak := domain.ParticipationStreak{UserID: userID}
	query := `SELECT current_streak, longest_streak, last_participation_date FROM participation_streaks WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&streak.CurrentStreak, &streak.LongestStreak, &streak.LastParticipationDate)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	return &streak, nil
}

// SaveParticipationStreak upserts the participation streak state.
func (r *PostgresRepository) SaveParticipationStreak(ctx context.Context, streak *domain.ParticipationStreak) error {
	query := `
		INSERT INTO participation_streaks (user_id, current_streak, longest_streak, last_participation_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_participation_date = EXCLUDED.last_participation_date
	`
	_, err := r.db.Exec(ctx, query, streak.UserID, streak.CurrentStreak, streak.LongestStreak, streak.LastParticipationDate)
	return err
}

// UpsertParticipationDay records an activity for a calendar day, merging into
// the day's activity set when the day already exists.
func (r *PostgresRepository) UpsertParticipationDay(ctx context.Context, userID uuid.UUID, day time.Time, activity string) error {
	query := `
		INSERT INTO participation_days (user_id, day, activities)
		VALUES ($1, $2, ARRAY[$3])
		ON CONFLICT (user_id, day) DO UPDATE SET
			activities = (
				SELECT ARRAY(SELECT DISTINCT unnest(participation_days.activities || EXCLUDED.activities))
			)
	`
	_, err := r.db.Exec(ctx, query, userID, day, activity)
	return err
}

// TrimParticipationHistory deletes all but the most recent keepDays entries.
func (r *PostgresRepository) TrimParticipationHistory(ctx context.Context, userID uuid.UUID, keepDays int) error {
	query := `
		DELETE FROM participation_days
		WHERE user_id = $1 AND day NOT IN (
			SELECT day FROM participation_days WHERE user_id = $1 ORDER BY day DESC LIMIT $2
		)
	`
	_, err := r.db.Exec(ctx, query, userID, keepDays)
	return err
}

// ListParticipationHistory returns history entries newest-first.
func (r *PostgresRepository) ListParticipationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ParticipationDay, error) {
	query := `SELECT day, activities FROM participation_days WHERE user_id = $1 ORDER BY day DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.ParticipationDay
	for rows.Next() {
		var entry domain.ParticipationDay
		if err := rows.Scan(&entry.Day, &entry.Activities); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// GetAchievedMilestones returns the set of streak thresholds already awarded.
func (r *PostgresRepository) GetAchievedMilestones(ctx context.Context, userID uuid.UUID) (map[int]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT threshold FROM streak_milestones WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	achieved := make(map[int]bool)
	for rows.Next() {
		var threshold int
		if err := rows.Scan(&threshold); err != nil {
			return nil, err
		}
		achieved[threshold] = true
	}
	return achieved, rows.Err()
}

// MarkMilestoneAchieved records a milestone as awarded; re-marking is a no-op.
func (r *PostgresRepository) MarkMilestoneAchieved(ctx context.Context, userID uuid.UUID, threshold int) error {
	query := `
		INSERT INTO streak_milestones (user_id, threshold, achieved_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, threshold) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, threshold)
	return err
}

// ListAchievementStates returns the earned achievements for one family.
// Catalog items without a row are simply not yet earned.
func (r *PostgresRepository) ListAchievementStates(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily) ([]domain.AchievementState, error) {
	query := `
		SELECT achievement_id, earned, earned_date
		FROM achievement_states
		WHERE user_id = $1 AND family = $2
	`
	rows, err := r.db.Query(ctx, query, userID, string(family))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.AchievementState
	for rows.Next() {
		state := domain.AchievementState{UserID: userID, Family: family}
		if err := rows.Scan(&state.AchievementID, &state.Earned, &state.EarnedDate); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// MarkAchievementEarned flips the earned flag exactly once. It reports false
// when the achievement was already earned, which makes awards idempotent.
func (r *PostgresRepository) MarkAchievementEarned(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily, achievementID string, earnedDate time.Time) (bool, error) {
	query := `
		INSERT INTO achievement_states (user_id, achievement_id, family, earned, earned_date)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, userID, achievementID, string(family), earnedDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CreateReceipt stores an accepted receipt. Receipts are immutable and
// append-only.
func (r *PostgresRepository) CreateReceipt(ctx context.Context, receipt *domain.Receipt) error {
	items, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("marshal receipt items: %w", err)
	}
	query := `
		INSERT INTO receipts (id, user_id, store_name, store_category, is_partner, items, total_cents, receipt_date, points_earned, tokens_earned, health_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err = r.db.Exec(ctx, query,
		receipt.ID, receipt.UserID, receipt.StoreName, receipt.StoreCategory, receipt.IsPartner,
		items, receipt.TotalCents, receipt.ReceiptDate, receipt.PointsEarned, receipt.TokensEarned, receipt.HealthScore,
	)
	return err
}

// ListReceiptsByUserID returns the user's receipt history, newest-first.
func (r *PostgresRepository) ListReceiptsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Receipt, error) {
	query := `
		SELECT id, user_id, store_name, store_category, is_partner, items, total_cents, receipt_date, points_earned, tokens_earned, health_score, created_at
		FROM receipts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []domain.Receipt
	for rows.Next() {
		var receipt domain.Receipt
		var items []byte
		err := rows.Scan(
			&receipt.ID, &receipt.UserID, &receipt.StoreName, &receipt.StoreCategory, &receipt.IsPartner,
			&items, &receipt.TotalCents, &receipt.ReceiptDate, &receipt.PointsEarned, &receipt.TokensEarned,
			&receipt.HealthScore, &receipt.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &receipt.Items); err != nil {
			return nil, fmt.Errorf("unmarshal receipt items: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// GetCounters assembles the lifetime counter snapshot. The distinct-store and
// distinct-category counts come from their set tables.
func (r *PostgresRepository) GetCounters(ctx context.Context, userID uuid.UUID) (*domain.CounterSnapshot, error) {
	snapshot := domain.CounterSnapshot{}
	query := `
		SELECT receipts_uploaded, total_spend_cents, daily_bonus_claims, participations,
		       healthy_receipts, auction_bids_placed, auctions_won, missions_completed
		FROM user_counters
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&snapshot.ReceiptsUploaded, &snapshot.TotalSpendCents, &snapshot.DailyBonusClaims,
		&snapshot.Participations, &snapshot.HealthyReceipts, &snapshot.AuctionBidsPlaced,
		&snapshot.AuctionsWon, &snapshot.MissionsCompleted,
	)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	setsQuery := `
		SELECT
			(SELECT COUNT(*) FROM user_stores WHERE user_id = $1),
			(SELECT COUNT(*) FROM user_categories WHERE user_id = $1)
	`
	if err := r.db.QueryRow(ctx, setsQuery, userID).Scan(&snapshot.UniqueStores, &snapshot.CategoriesShopped); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// IncrementCounters adds the non-zero fields of delta to the stored counters.
func (r *PostgresRepository) IncrementCounters(ctx context.Context, userID uuid.UUID, delta domain.CounterSnapshot) error {
	query := `
		INSERT INTO user_counters (user_id, receipts_uploaded, total_spend_cents, daily_bonus_claims, participations, healthy_receipts, auction_bids_placed, auctions_won, missions_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			receipts_uploaded = user_counters.receipts_uploaded + EXCLUDED.receipts_uploaded,
			total_spend_cents = user_counters.total_spend_cents + EXCLUDED.total_spend_cents,
			daily_bonus_claims = user_counters.daily_bonus_claims + EXCLUDED.daily_bonus_claims,
			participations = user_counters.participations + EXCLUDED.participations,
			healthy_receipts = user_counters.healthy_receipts + EXCLUDED.healthy_receipts,
			auction_bids_placed = user_counters.auction_bids_placed + EXCLUDED.auction_bids_placed,
			auctions_won = user_counters.auctions_won + EXCLUDED.auctions_won,
			missions_completed = user_counters.missions_completed + EXCLUDED.missions_completed
	`
	_, err := r.db.Exec(ctx, query, userID,
		delta.ReceiptsUploaded, delta.TotalSpendCents, delta.DailyBonusClaims, delta.Participations,
		delta.HealthyReceipts, delta.AuctionBidsPlaced, delta.AuctionsWon, delta.MissionsCompleted,
	)
	return err
}

// RecordStoreVisit adds a store to the user's distinct-store set and reports
// whether it was new.
func (r *PostgresRepository) RecordStoreVisit(ctx context.Context, userID uuid.UUID, storeKey string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_stores (user_id, store_key) VALUES ($1, $2)
		ON CONFLICT (user_id, store_key) DO NOTHING
	`, userID, storeKey)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordCategoryShopped adds a category to the user's distinct-category set and
// reports whether it was new.
func (r *PostgresRepository) RecordCategoryShopped(ctx context.Context, userID uuid.UUID, category string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_categories (user_id, category) VALUES ($1, $2)
		ON CONFLICT (user_id, category) DO NOTHING
	`, userID, category)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetTokenLedger returns the user's ledger summary, or a zero ledger when no
// tokens have moved yet.
func (r *PostgresRepository) GetTokenLedger(ctx context.Context, userID uuid.UUID) (*domain.TokenLedger, error) {
	ledger := domain.TokenLedger{UserID: userID}
	query := `SELECT balance, total_earned, total_spent FROM token_ledgers WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&ledger.Balance, &ledger.TotalEarned, &ledger.TotalSpent)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	return &ledger, nil
}

// CreditTokens applies an earn to the ledger and appends the transaction entry
// with its balance snapshot.
func (r *PostgresRepository) CreditTokens(ctx context.Context, entry *domain.TokenTransaction) (*domain.TokenLedger, error) {
	ledger := domain.TokenLedger{UserID: entry.UserID}
	query := `
		INSERT INTO token_ledgers (user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = token_ledgers.balance + EXCLUDED.balance,
			total_earned = token_ledgers.total_earned + EXCLUDED.total_earned
		RETURNING balance, total_earned, total_spent
	`
	err := r.db.QueryRow(ctx, query, entry.UserID, entry.Amount).Scan(&ledger.Balance, &ledger.TotalEarned, &ledger.TotalSpent)
	if err != nil {
		return nil, err
	}

	entry.BalanceAfter = ledger.Balance
	if err := r.appendTokenTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// DebitTokens applies a spend. The guarded UPDATE only matches when the balance
// covers the amount, so an overdraft is rejected with no mutation at all.
func (r *PostgresRepository) DebitTokens(ctx context.Context, entry *domain.TokenTransaction) (*domain.TokenLedger, error) {
	ledger := domain.TokenLedger{UserID: entry.UserID}
	query := `
		UPDATE token_ledgers
		SET balance = balance - $2, total_spent = total_spent + $2
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance, total_earned, total_spent
	`
	err := r.db.QueryRow(ctx, query, entry.UserID, entry.Amount).Scan(&ledger.Balance, &ledger.TotalEarned, &ledger.TotalSpent)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInsufficientTokens
		}
		return nil, err
	}

	entry.BalanceAfter = ledger.Balance
	if err := r.appendTokenTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *PostgresRepository) appendTokenTransaction(ctx context.Context, entry *domain.TokenTransaction) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}
	query := `
		INSERT INTO token_transactions (id, user_id, type, amount, reason, metadata, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Type, entry.Amount, entry.Reason, metadata, entry.BalanceAfter, entry.CreatedAt,
	)
	return err
}

// ListTokenTransactions returns ledger entries newest-first, truncated to limit
// for display. The full history stays in the table for analytics.
func (r *PostgresRepository) ListTokenTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TokenTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, reason, metadata, balance_after, created_at
		FROM token_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.TokenTransaction
	for rows.Next() {
		var entry domain.TokenTransaction
		var metadata []byte
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.Type, &entry.Amount, &entry.Reason, &metadata, &entry.BalanceAfter, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
			}
		}
		transactions = append(transactions, entry)
	}
	return transactions, rows.Err()
}

// GetLedgerAnalytics aggregates the full transaction history: earned-by-source,
// spent-by-purpose, monthly UTC earning buckets, and the average tokens per
// processed receipt.
func (r *PostgresRepository) GetLedgerAnalytics(ctx context.Context, userID uuid.UUID) (*domain.LedgerAnalytics, error) {
	ledger, err := r.GetTokenLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	analytics := &domain.LedgerAnalytics{
		UserID:         userID,
		Balance:        ledger.Balance,
		TotalEarned:    ledger.TotalEarned,
		TotalSpent:     ledger.TotalSpent,
		EarnedBySource: make(map[string]int64),
		SpentByPurpose: make(map[string]int64),
	}

	rows, err := r.db.Query(ctx, `
		SELECT type, reason, SUM(amount)
		FROM token_transactions
		WHERE user_id = $1
		GROUP BY type, reason
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var txType, reason string
		var total int64
		if err := rows.Scan(&txType, &reason, &total); err != nil {
			return nil, err
		}
		switch txType {
		case domain.TokenTxEarned:
			analytics.EarnedBySource[reason] = total
		case domain.TokenTxSpent:
			analytics.SpentByPurpose[reason] = total
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	monthRows, err := r.db.Query(ctx, `
		SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month, SUM(amount)
		FROM token_transactions
		WHERE user_id = $1 AND type = $2
		GROUP BY month
		ORDER BY month
	`, userID, domain.TokenTxEarned)
	if err != nil {
		return nil, err
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var bucket domain.MonthlyEarning
		if err := monthRows.Scan(&bucket.Month, &bucket.Earned); err != nil {
			return nil, err
		}
		analytics.MonthlyEarnings = append(analytics.MonthlyEarnings, bucket)
	}
	if err := monthRows.Err(); err != nil {
		return nil, err
	}

	// Average is computed only over receipt-processing earnings.
	var avg *float64
	err = r.db.QueryRow(ctx, `
		SELECT AVG(amount)
		FROM token_transactions
		WHERE user_id = $1 AND type = $2 AND reason = $3
	`, userID, domain.TokenTxEarned, domain.TokenSourceReceiptProcessing).Scan(&avg)
	if err != nil {
		return nil, err
	}
	if avg != nil {
		analytics.AvgTokensPerReceipt = *avg
	}
	return analytics, nil
}
