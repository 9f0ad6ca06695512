/**
 * @description
 * This file contains the core business logic for the rewards-service. The
 * `Service` struct orchestrates the level, streak, achievement, receipt economy
 * and bid-token ledger engines, coordinating between the database
 * repository, the extraction client and the message broker.
 *
 * Key features:
 * - Every mutation of one user's economy runs inside a user-locked transaction,
 *   so the multi-step read-modify-write sequences are serialized per user.
 * - Side effects (RabbitMQ events) are published only after a successful
 *   commit; a rejected operation leaves no observable partial state.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/extraction, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/toucanwin/rewards-service/internal/domain"
	"github.com/toucanwin/rewards-service/internal/store"
	"github.com/toucanwin/rewards-service/pkg/extraction"
	"github.com/toucanwin/rewards-service/pkg/rabbitmq"
)

// ErrInvalidAmount rejects non-positive ledger amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// Options carries the tunable economy parameters, loaded from config.
type Options struct {
	DailyBonusBasePoints int64
	FraudRejectThreshold float64
	DailyCapCents        int64
	LedgerDisplayLimit   int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		DailyBonusBasePoints: 10,
		FraudRejectThreshold: DefaultFraudRejectThreshold,
		DailyCapCents:        100000, // $1,000
		LedgerDisplayLimit:   50,
	}
}

// Extractor is the upstream receipt extraction collaborator.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (*domain.StructuredReceipt, []string, error)
}

// Service provides the core business logic for the rewards economy.
type Service struct {
	repo      store.Repository
	extractor Extractor
	events    rabbitmq.Publisher
	opts      Options
}

// NewService creates a new rewards service instance.
func NewService(repo store.Repository, extractor Extractor, producer rabbitmq.Publisher, opts Options) *Service {
	if opts.DailyBonusBasePoints <= 0 {
		opts.DailyBonusBasePoints = 10
	}
	if opts.FraudRejectThreshold <= 0 {
		opts.FraudRejectThreshold = DefaultFraudRejectThreshold
	}
	if opts.LedgerDisplayLimit <= 0 {
		opts.LedgerDisplayLimit = 50
	}
	return &Service{
		repo:      repo,
		extractor: extractor,
		events:    producer,
		opts:      opts,
	}
}

// CreateUserAccount provisions a rewards member. Called by the signup flow of
// the identity service; everything else assumes the account exists.
func (s *Service) CreateUserAccount(ctx context.Context, userID uuid.UUID, username string) (*domain.UserAccount, error) {
	account := &domain.UserAccount{ID: userID, Username: username}
	if err := s.repo.CreateUserAccount(ctx, account); err != nil {
		return nil, err
	}
	return s.repo.FindUserAccountByID(ctx, userID)
}

// GetLevelInfo derives the level view for a user's current point total.
func (s *Service) GetLevelInfo(ctx context.Context, userID uuid.UUID) (*domain.LevelInfo, error) {
	account, err := s.repo.FindUserAccountByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := LevelForPoints(account.Points)
	return &info, nil
}

// ProcessReceiptImage routes an uploaded image through the extraction service
// and then applies the structured result. Extraction is a single awaited call;
// a failure surfaces improvement suggestions and nothing is stored.
func (s *Service) ProcessReceiptImage(ctx context.Context, userID uuid.UUID, imageURL string) (*domain.ReceiptResult, error) {
	if s.extractor == nil {
		return nil, errors.New("extraction service not configured")
	}
	structured, suggestions, err := s.extractor.Extract(ctx, imageURL)
	if err != nil {
		if errors.Is(err, extraction.ErrPoorQuality) {
			return &domain.ReceiptResult{
				Success: false,
				Error:   "extraction_failed",
				Issues:  suggestions,
			}, nil
		}
		return nil, fmt.Errorf("extract receipt: %w", err)
	}
	return s.ApplyReceipt(ctx, userID, *structured)
}

// ApplyReceipt runs the full receipt economy pipeline: fraud gate, store and
// item classification, bonus stacking, persistence, point/token credits,
// counter updates and achievement re-evaluation, all inside one user lock.
func (s *Service) ApplyReceipt(ctx context.Context, userID uuid.UUID, structured domain.StructuredReceipt) (*domain.ReceiptResult, error) {
	now := time.Now().UTC()

	// 1. Validation and fraud gates. A rejected receipt is never stored and
	// grants nothing. A non-positive total is a hard validation failure on
	// top of its risk contribution, since base rewards derive from it.
	assessment := AssessReceipt(structured, now, s.opts.DailyCapCents)
	if structured.TotalCents <= 0 {
		log.Printf("level=info component=service msg=\"receipt rejected\" user_id=%s reason=invalid_total", userID)
		return &domain.ReceiptResult{
			Success:   false,
			Error:     "invalid_total",
			RiskLevel: assessment.Level,
			Issues:    assessment.Issues,
		}, nil
	}
	if assessment.Score >= s.opts.FraudRejectThreshold {
		log.Printf("level=info component=service msg=\"receipt rejected\" user_id=%s risk=%s score=%.2f", userID, assessment.Level, assessment.Score)
		return &domain.ReceiptResult{
			Success:   false,
			Error:     "receipt_rejected",
			RiskLevel: assessment.Level,
			Issues:    assessment.Issues,
		}, nil
	}

	// 2. Classification and bonus stacking (pure).
	storeInfo, categoryMultiplier := ClassifyStore(structured.StoreName)
	items := ClassifyItems(structured.Items)
	avgHealth := AverageHealthScore(items)
	breakdown := StackBonuses(structured, storeInfo, categoryMultiplier, items)

	result := &domain.ReceiptResult{
		Success:         true,
		PointsEarned:    breakdown.TotalPoints,
		BidTokensEarned: breakdown.TotalTokens,
		StoreInfo:       &storeInfo,
		HealthScore:     avgHealth,
		Breakdown:       &breakdown,
	}
	var pending []pendingEvent

	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		account, err := tx.FindUserAccountByID(ctx, userID)
		if err != nil {
			return err
		}
		pointsBefore := account.Points

		// 3. Store the receipt record (append-only).
		receipt := &domain.Receipt{
			ID:            uuid.New(),
			UserID:        userID,
			StoreName:     structured.StoreName,
			StoreCategory: storeInfo.Category,
			IsPartner:     storeInfo.IsPartner,
			Items:         structured.Items,
			TotalCents:    structured.TotalCents,
			ReceiptDate:   structured.Date,
			PointsEarned:  breakdown.TotalPoints,
			TokensEarned:  breakdown.TotalTokens,
			HealthScore:   avgHealth,
		}
		if err := tx.CreateReceipt(ctx, receipt); err != nil {
			return fmt.Errorf("store receipt: %w", err)
		}
		result.ReceiptID = &receipt.ID

		// 4. Credit points and tokens.
		pointsAfter, err := tx.AddPoints(ctx, userID, breakdown.TotalPoints)
		if err != nil {
			return fmt.Errorf("credit points: %w", err)
		}
		if breakdown.TotalTokens > 0 {
			entry := &domain.TokenTransaction{
				ID:        uuid.New(),
				UserID:    userID,
				Type:      domain.TokenTxEarned,
				Amount:    breakdown.TotalTokens,
				Reason:    domain.TokenSourceReceiptProcessing,
				Metadata:  map[string]string{"receipt_id": receipt.ID.String()},
				CreatedAt: now,
			}
			if _, err := tx.CreditTokens(ctx, entry); err != nil {
				return fmt.Errorf("credit tokens: %w", err)
			}
		}

		// 5. Update lifetime counters.
		healthy := avgHealth > healthBonusFloor
		delta := domain.CounterSnapshot{ReceiptsUploaded: 1, TotalSpendCents: structured.TotalCents}
		if healthy {
			delta.HealthyReceipts = 1
		}
		if err := tx.IncrementCounters(ctx, userID, delta); err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
		if _, err := tx.RecordStoreVisit(ctx, userID, normalizeName(structured.StoreName)); err != nil {
			return fmt.Errorf("record store visit: %w", err)
		}
		if _, err := tx.RecordCategoryShopped(ctx, userID, storeInfo.Category); err != nil {
			return fmt.Errorf("record category: %w", err)
		}

		// 6. Re-evaluate achievements against the updated counters.
		snapshot, err := tx.GetCounters(ctx, userID)
		if err != nil {
			return fmt.Errorf("load counters: %w", err)
		}
		awarded, achievementPoints, err := evaluateAchievements(ctx, tx, userID, ActionUploadReceipt, *snapshot, now)
		if err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
		result.AchievementsAwarded = awarded
		pointsAfter += achievementPoints

		// 7. Resolve the overall level transition.
		result.LevelUp = ResolveLevelUp(pointsBefore, pointsAfter)
		result.NewLevel = LevelForPoints(pointsAfter).Level

		pending = s.collectEvents(userID, result.LevelUp, awarded)
		pending = append(pending, pendingEvent{
			routingKey: rabbitmq.RouteReceiptProcessed,
			body: rabbitmq.ReceiptProcessedEvent{
				UserID:       userID,
				ReceiptID:    receipt.ID,
				PointsEarned: breakdown.TotalPoints,
				TokensEarned: breakdown.TotalTokens,
				StoreName:    structured.StoreName,
				Timestamp:    now,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// ClaimDailyBonus applies the daily bonus continuity rule. A same-day re-claim
// is a non-error no-op; a consecutive-day claim extends the streak and every
// fifth day steps the multiplier up.
func (s *Service) ClaimDailyBonus(ctx context.Context, userID uuid.UUID, today time.Time) (*domain.DailyBonusResult, error) {
	result := &domain.DailyBonusResult{}
	var pending []pendingEvent
	now := today.UTC()

	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		state, err := tx.GetDailyBonusState(ctx, userID)
		if err != nil {
			return err
		}

		switch streakStep(state.LastClaimDate, now) {
		case streakSameDay:
			result.Success = false
			result.AlreadyClaimed = true
			result.Streak = state.CurrentStreak
			return nil
		case streakConsecutive:
			state.CurrentStreak++
		case streakReset:
			state.CurrentStreak = 1
		}

		claimDay := dayOf(now)
		state.LastClaimDate = &claimDay
		if err := tx.SaveDailyBonusState(ctx, state); err != nil {
			return fmt.Errorf("save daily bonus state: %w", err)
		}

		account, err := tx.FindUserAccountByID(ctx, userID)
		if err != nil {
			return err
		}
		pointsBefore := account.Points

		points := dailyBonusPoints(s.opts.DailyBonusBasePoints, state.CurrentStreak)
		pointsAfter, err := tx.AddPoints(ctx, userID, points)
		if err != nil {
			return fmt.Errorf("credit daily bonus: %w", err)
		}

		if err := tx.IncrementCounters(ctx, userID, domain.CounterSnapshot{DailyBonusClaims: 1}); err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
		snapshot, err := tx.GetCounters(ctx, userID)
		if err != nil {
			return fmt.Errorf("load counters: %w", err)
		}
		snapshot.DailyBonusStreak = int64(state.CurrentStreak)
		awarded, achievementPoints, err := evaluateAchievements(ctx, tx, userID, ActionDailyLogin, *snapshot, now)
		if err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
		pointsAfter += achievementPoints

		result.Success = true
		result.Points = points
		result.Streak = state.CurrentStreak
		result.StreakMilestone = state.CurrentStreak%5 == 0
		result.LevelUp = ResolveLevelUp(pointsBefore, pointsAfter)

		pending = s.collectEvents(userID, result.LevelUp, awarded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// RecordParticipation records a qualifying activity for the day, advances the
// participation streak per the continuity rule, and awards every newly crossed
// milestone in one response.
func (s *Service) RecordParticipation(ctx context.Context, userID uuid.UUID, activityType string, today time.Time) (*domain.ParticipationResult, error) {
	result := &domain.ParticipationResult{}
	var pending []pendingEvent
	now := today.UTC()

	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		streak, err := tx.GetParticipationStreak(ctx, userID)
		if err != nil {
			return err
		}

		newDay := false
		switch streakStep(streak.LastParticipationDate, now) {
		case streakSameDay:
			// Same-day repeat: merge the activity, streak unchanged.
		case streakConsecutive:
			streak.CurrentStreak++
			newDay = true
		case streakReset:
			streak.CurrentStreak = 1
			newDay = true
		}
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
		day := dayOf(now)
		streak.LastParticipationDate = &day
		if err := tx.SaveParticipationStreak(ctx, streak); err != nil {
			return fmt.Errorf("save participation streak: %w", err)
		}

		if err := tx.UpsertParticipationDay(ctx, userID, day, activityType); err != nil {
			return fmt.Errorf("record participation day: %w", err)
		}
		if err := tx.TrimParticipationHistory(ctx, userID, streakHistoryDays); err != nil {
			return fmt.Errorf("trim participation history: %w", err)
		}

		account, err := tx.FindUserAccountByID(ctx, userID)
		if err != nil {
			return err
		}
		pointsBefore := account.Points
		pointsAfter := pointsBefore

		// Milestones use <= against the current streak so a jump collects
		// every newly qualified threshold at once.
		achieved, err := tx.GetAchievedMilestones(ctx, userID)
		if err != nil {
			return fmt.Errorf("load milestones: %w", err)
		}
		milestones := newMilestones(streak.CurrentStreak, achieved)
		for _, m := range milestones {
			if err := tx.MarkMilestoneAchieved(ctx, userID, m.Threshold); err != nil {
				return fmt.Errorf("mark milestone: %w", err)
			}
			result.MilestonePoints += m.Points
		}
		if result.MilestonePoints > 0 {
			pointsAfter, err = tx.AddPoints(ctx, userID, result.MilestonePoints)
			if err != nil {
				return fmt.Errorf("credit milestone points: %w", err)
			}
		}

		if newDay {
			if err := tx.IncrementCounters(ctx, userID, domain.CounterSnapshot{Participations: 1}); err != nil {
				return fmt.Errorf("update counters: %w", err)
			}
		}
		snapshot, err := tx.GetCounters(ctx, userID)
		if err != nil {
			return fmt.Errorf("load counters: %w", err)
		}
		snapshot.ParticipationStreak = int64(streak.CurrentStreak)
		awarded, achievementPoints, err := evaluateAchievements(ctx, tx, userID, ActionRecordParticipation, *snapshot, now)
		if err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
		pointsAfter += achievementPoints

		result.CurrentStreak = streak.CurrentStreak
		result.LongestStreak = streak.LongestStreak
		result.Milestones = milestones
		result.LevelUp = ResolveLevelUp(pointsBefore, pointsAfter)

		pending = s.collectEvents(userID, result.LevelUp, awarded)
		for _, m := range milestones {
			pending = append(pending, pendingEvent{
				routingKey: rabbitmq.RouteStreakMilestone,
				body: map[string]interface{}{
					"user_id":   userID,
					"threshold": m.Threshold,
					"points":    m.Points,
					"timestamp": now,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// AwardAchievement explicitly awards one achievement. Unknown ids error, and
// meta items are refused since they unlock only when the rest of their family
// is earned; re-awarding an earned item is a non-error no-op with points
// granted exactly once.
func (s *Service) AwardAchievement(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily, achievementID string) (*domain.AwardResult, error) {
	item := findAchievement(family, achievementID)
	if item == nil {
		return nil, ErrUnknownAchievement
	}
	if item.Meta {
		return nil, ErrMetaAchievement
	}

	result := &domain.AwardResult{}
	var pending []pendingEvent
	now := time.Now().UTC()

	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		account, err := tx.FindUserAccountByID(ctx, userID)
		if err != nil {
			return err
		}
		pointsBefore := account.Points

		awarded, points, err := awardWithMeta(ctx, tx, userID, *item, now)
		if err != nil {
			return err
		}
		if len(awarded) == 0 {
			result.Success = false
			result.AlreadyEarned = true
			return nil
		}

		result.Success = true
		result.Awarded = awarded
		result.PointsGranted = points
		result.LevelUp = ResolveLevelUp(pointsBefore, pointsBefore+points)

		pending = s.collectEvents(userID, result.LevelUp, awarded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// CheckAchievements evaluates the caller-supplied counter snapshot under an
// action key and awards everything that newly qualifies. Used by collaborating
// services (auctions, missions) that own their counters.
func (s *Service) CheckAchievements(ctx context.Context, userID uuid.UUID, action string, snapshot domain.CounterSnapshot) (*domain.AwardResult, error) {
	result := &domain.AwardResult{Success: true}
	var pending []pendingEvent
	now := time.Now().UTC()

	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		account, err := tx.FindUserAccountByID(ctx, userID)
		if err != nil {
			return err
		}
		pointsBefore := account.Points

		awarded, points, err := evaluateAchievements(ctx, tx, userID, action, snapshot, now)
		if err != nil {
			return err
		}
		result.Awarded = awarded
		result.PointsGranted = points
		result.LevelUp = ResolveLevelUp(pointsBefore, pointsBefore+points)

		pending = s.collectEvents(userID, result.LevelUp, awarded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// CreditBidTokens appends an earn transaction to the user's ledger.
func (s *Service) CreditBidTokens(ctx context.Context, userID uuid.UUID, amount int64, source string, metadata map[string]string) (*domain.LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	result := &domain.LedgerResult{}
	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		entry := &domain.TokenTransaction{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      domain.TokenTxEarned,
			Amount:    amount,
			Reason:    source,
			Metadata:  metadata,
			CreatedAt: time.Now().UTC(),
		}
		ledger, err := tx.CreditTokens(ctx, entry)
		if err != nil {
			return err
		}
		result.Success = true
		result.Balance = ledger.Balance
		result.Transaction = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DebitBidTokens appends a spend transaction. A spend exceeding the balance is
// rejected with required/available amounts and no mutation.
func (s *Service) DebitBidTokens(ctx context.Context, userID uuid.UUID, amount int64, purpose string, metadata map[string]string) (*domain.LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	result := &domain.LedgerResult{}
	var pending []pendingEvent
	err := s.repo.WithUserLock(ctx, userID, func(ctx context.Context, tx store.Repository) error {
		entry := &domain.TokenTransaction{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      domain.TokenTxSpent,
			Amount:    amount,
			Reason:    purpose,
			Metadata:  metadata,
			CreatedAt: time.Now().UTC(),
		}
		ledger, err := tx.DebitTokens(ctx, entry)
		if err != nil {
			if errors.Is(err, store.ErrInsufficientTokens) {
				current, lookupErr := tx.GetTokenLedger(ctx, userID)
				if lookupErr != nil {
					return lookupErr
				}
				result.Success = false
				result.Error = "insufficient_tokens"
				result.Required = amount
				result.Available = current.Balance
				result.Balance = current.Balance
				return nil
			}
			return err
		}
		result.Success = true
		result.Balance = ledger.Balance
		result.Transaction = entry

		pending = append(pending, pendingEvent{
			routingKey: rabbitmq.RouteTokensSpent,
			body: rabbitmq.TokensSpentEvent{
				UserID:    userID,
				Amount:    amount,
				Purpose:   purpose,
				Balance:   ledger.Balance,
				Timestamp: entry.CreatedAt,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// GetLedger returns the ledger summary plus the display-truncated transaction
// list, newest-first.
func (s *Service) GetLedger(ctx context.Context, userID uuid.UUID) (*domain.TokenLedger, []domain.TokenTransaction, error) {
	ledger, err := s.repo.GetTokenLedger(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	transactions, err := s.repo.ListTokenTransactions(ctx, userID, s.opts.LedgerDisplayLimit)
	if err != nil {
		return nil, nil, err
	}
	return ledger, transactions, nil
}

// GetLedgerAnalytics aggregates the full transaction history.
func (s *Service) GetLedgerAnalytics(ctx context.Context, userID uuid.UUID) (*domain.LedgerAnalytics, error) {
	return s.repo.GetLedgerAnalytics(ctx, userID)
}

// GetStreaks returns both streak tracks plus the rolling participation history.
func (s *Service) GetStreaks(ctx context.Context, userID uuid.UUID) (*domain.DailyBonusState, *domain.ParticipationStreak, []domain.ParticipationDay, error) {
	daily, err := s.repo.GetDailyBonusState(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	participation, err := s.repo.GetParticipationStreak(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	history, err := s.repo.ListParticipationHistory(ctx, userID, streakHistoryDays)
	if err != nil {
		return nil, nil, nil, err
	}
	return daily, participation, history, nil
}

// AchievementView pairs a catalog item with its per-user earned state.
type AchievementView struct {
	domain.Achievement
	Earned     bool       `json:"earned"`
	EarnedDate *time.Time `json:"earned_date,omitempty"`
}

// ListAchievements returns the family catalog overlaid with earned state,
// optionally filtered to earned/unearned or one category.
func (s *Service) ListAchievements(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily, filter, category string) ([]AchievementView, error) {
	catalog := catalogFor(family)
	if catalog == nil {
		return nil, fmt.Errorf("unknown achievement family %q", family)
	}
	states, err := s.repo.ListAchievementStates(ctx, userID, family)
	if err != nil {
		return nil, err
	}
	earnedDates := make(map[string]*time.Time, len(states))
	for _, state := range states {
		if state.Earned {
			earnedDates[state.AchievementID] = state.EarnedDate
		}
	}

	views := make([]AchievementView, 0, len(catalog))
	for _, item := range catalog {
		date, earned := earnedDates[item.ID]
		switch filter {
		case "earned":
			if !earned {
				continue
			}
		case "unearned":
			if earned {
				continue
			}
		}
		if category != "" && item.Category != category {
			continue
		}
		views = append(views, AchievementView{Achievement: item, Earned: earned, EarnedDate: date})
	}
	return views, nil
}

// GetAchievementProgress aggregates earned vs possible value for one family.
func (s *Service) GetAchievementProgress(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily) (*domain.AchievementProgress, error) {
	catalog := catalogFor(family)
	if catalog == nil {
		return nil, fmt.Errorf("unknown achievement family %q", family)
	}
	earned, err := earnedSet(ctx, s.repo, userID, family)
	if err != nil {
		return nil, err
	}

	progress := &domain.AchievementProgress{Family: family, TotalCount: len(catalog)}
	for _, item := range catalog {
		progress.TotalPossibleValue += item.PointsValue
		if earned[item.ID] {
			progress.EarnedCount++
			progress.TotalEarnedValue += item.PointsValue
		}
	}
	return progress, nil
}

// ListReceipts returns the user's receipt history, newest-first.
func (s *Service) ListReceipts(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Receipt, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListReceiptsByUserID(ctx, userID, limit)
}

// pendingEvent is an event staged during a transaction and published only
// after the commit succeeds.
type pendingEvent struct {
	routingKey string
	body       interface{}
}

func (s *Service) collectEvents(userID uuid.UUID, levelUp *domain.LevelUp, awarded []domain.AwardedAchievement) []pendingEvent {
	var events []pendingEvent
	now := time.Now().UTC()
	if levelUp != nil {
		events = append(events, pendingEvent{
			routingKey: rabbitmq.RouteLevelUp,
			body: rabbitmq.LevelUpEvent{
				UserID:        userID,
				PreviousLevel: levelUp.PreviousLevel,
				NewLevel:      levelUp.NewLevel,
				NewTitle:      levelUp.NewTitle,
				Timestamp:     now,
			},
		})
	}
	for _, item := range awarded {
		events = append(events, pendingEvent{
			routingKey: rabbitmq.RouteAchievementUnlocked,
			body: rabbitmq.AchievementUnlockedEvent{
				UserID:        userID,
				AchievementID: item.ID,
				Family:        string(item.Family),
				PointsValue:   item.PointsValue,
				Timestamp:     now,
			},
		})
	}
	return events
}

func (s *Service) publish(ctx context.Context, events []pendingEvent) {
	if s.events == nil {
		return
	}
	for _, event := range events {
		if err := s.events.Publish(ctx, rabbitmq.RewardsExchange, event.routingKey, event.body); err != nil {
			log.Printf("level=warn component=service msg=\"event publish failed\" routing_key=%s err=%v", event.routingKey, err)
		}
	}
}
