package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/toucanwin/rewards-service/internal/domain"
)

func newTestService(repo *memRepository) *Service {
	return NewService(repo, nil, nil, DefaultOptions())
}

func seedTestUser(repo *memRepository) uuid.UUID {
	userID := uuid.New()
	repo.seedUser(userID)
	return userID
}

func TestApplyReceiptPartnerGrocery(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	receiptDate := dayOf(time.Now().UTC().AddDate(0, 0, -1))
	result, err := service.ApplyReceipt(context.Background(), userID, domain.StructuredReceipt{
		StoreName:  "Whole Foods",
		TotalCents: 20000,
		Date:       &receiptDate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.BidTokensEarned != 230 {
		t.Fatalf("expected 230 tokens, got %d", result.BidTokensEarned)
	}
	if result.ReceiptID == nil {
		t.Fatal("expected a stored receipt id")
	}

	// First receipt unlocks the first-receipt star (25 points).
	foundFirstReceipt := false
	for _, a := range result.AchievementsAwarded {
		if a.ID == "star_first_receipt" {
			foundFirstReceipt = true
		}
	}
	if !foundFirstReceipt {
		t.Fatalf("expected star_first_receipt to be awarded, got %+v", result.AchievementsAwarded)
	}

	ledger, lookupErr := repo.GetTokenLedger(context.Background(), userID)
	if lookupErr != nil {
		t.Fatalf("unexpected error: %v", lookupErr)
	}
	if ledger.Balance != 230 || ledger.TotalEarned != 230 {
		t.Fatalf("expected ledger balance/earned 230/230, got %d/%d", ledger.Balance, ledger.TotalEarned)
	}

	account, _ := repo.FindUserAccountByID(context.Background(), userID)
	// Weekend bonus may apply depending on the receipt date; pin the date to a
	// known weekday instead of asserting an exact point total here.
	if account.Points < result.PointsEarned {
		t.Fatalf("expected at least %d points credited, got %d", result.PointsEarned, account.Points)
	}
}

func TestApplyReceiptNegativeTotalAlwaysRejected(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	receiptDate := dayOf(time.Now().UTC())
	result, err := service.ApplyReceipt(context.Background(), userID, domain.StructuredReceipt{
		StoreName:  "Whole Foods",
		TotalCents: -500,
		Date:       &receiptDate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection for a negative total")
	}
	if result.Error != "invalid_total" {
		t.Fatalf("expected error=invalid_total, got %q", result.Error)
	}

	// Nothing stored, nothing credited.
	if len(repo.receipts[userID]) != 0 {
		t.Fatalf("expected no stored receipts, got %d", len(repo.receipts[userID]))
	}
	account, _ := repo.FindUserAccountByID(context.Background(), userID)
	if account.Points != 0 {
		t.Fatalf("expected no points, got %d", account.Points)
	}
}

func TestApplyReceiptFraudScoreRejection(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	// Short name (+0.3) and missing date (+0.2) push the score to the 0.5
	// rejection threshold.
	result, err := service.ApplyReceipt(context.Background(), userID, domain.StructuredReceipt{
		StoreName:  "ab",
		TotalCents: 5000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected fraud rejection")
	}
	if result.Error != "receipt_rejected" {
		t.Fatalf("expected error=receipt_rejected, got %q", result.Error)
	}
	if result.RiskLevel != "medium" {
		t.Fatalf("expected medium risk, got %q", result.RiskLevel)
	}
	if len(result.Issues) != 2 {
		t.Fatalf("expected two contributing issues, got %v", result.Issues)
	}
}

func TestClaimDailyBonusContinuity(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	d1 := day(2026, time.May, 1)

	first, err := service.ClaimDailyBonus(ctx, userID, d1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Success || first.Streak != 1 || first.Points != 10 {
		t.Fatalf("expected first claim streak=1 points=10, got %+v", first)
	}

	// Same-day re-claim is a non-error no-op.
	repeat, err := service.ClaimDailyBonus(ctx, userID, d1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repeat.Success || !repeat.AlreadyClaimed {
		t.Fatalf("expected already-claimed result, got %+v", repeat)
	}
	if repeat.Streak != 1 {
		t.Fatalf("expected streak unchanged at 1, got %d", repeat.Streak)
	}

	// Consecutive days extend the streak; day five steps the multiplier.
	var last *domain.DailyBonusResult
	for i := 1; i <= 4; i++ {
		last, err = service.ClaimDailyBonus(ctx, userID, d1.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("unexpected error on day %d: %v", i+1, err)
		}
	}
	if last.Streak != 5 {
		t.Fatalf("expected streak 5, got %d", last.Streak)
	}
	if last.Points != 20 {
		t.Fatalf("expected doubled bonus (20) on day five, got %d", last.Points)
	}
	if !last.StreakMilestone {
		t.Fatal("expected day five to be a streak milestone")
	}

	// A gap resets to one.
	reset, err := service.ClaimDailyBonus(ctx, userID, d1.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reset.Streak != 1 || reset.Points != 10 {
		t.Fatalf("expected reset to streak=1 points=10, got %+v", reset)
	}
}

func TestRecordParticipationContinuityAndMilestones(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	start := day(2026, time.May, 1)

	var result *domain.ParticipationResult
	var err error
	for i := 0; i < 7; i++ {
		result, err = service.RecordParticipation(ctx, userID, "mission", start.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("unexpected error on day %d: %v", i+1, err)
		}
	}
	if result.CurrentStreak != 7 || result.LongestStreak != 7 {
		t.Fatalf("expected streak 7/7, got %d/%d", result.CurrentStreak, result.LongestStreak)
	}
	// Day seven crosses only the 7-day milestone; 3 and 5 were already taken.
	if len(result.Milestones) != 1 || result.Milestones[0].Threshold != 7 {
		t.Fatalf("expected the 7-day milestone, got %+v", result.Milestones)
	}
	if result.MilestonePoints != 75 {
		t.Fatalf("expected 75 milestone points, got %d", result.MilestonePoints)
	}

	// Same-day repeat merges the activity without advancing anything.
	repeat, err := service.RecordParticipation(ctx, userID, "auction", start.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repeat.CurrentStreak != 7 {
		t.Fatalf("expected streak unchanged at 7, got %d", repeat.CurrentStreak)
	}
	if len(repeat.Milestones) != 0 {
		t.Fatalf("expected no repeat milestones, got %+v", repeat.Milestones)
	}

	history, err := repo.ListParticipationHistory(ctx, userID, streakHistoryDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 7 {
		t.Fatalf("expected 7 history days, got %d", len(history))
	}
	if len(history[0].Activities) != 2 {
		t.Fatalf("expected merged activities on the latest day, got %v", history[0].Activities)
	}

	// A gap resets the streak but longest is retained.
	reset, err := service.RecordParticipation(ctx, userID, "mission", start.AddDate(0, 0, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reset.CurrentStreak != 1 || reset.LongestStreak != 7 {
		t.Fatalf("expected streak 1 with longest 7, got %d/%d", reset.CurrentStreak, reset.LongestStreak)
	}
}

func TestRecordParticipationMilestoneJumpCollectsAll(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	// Pre-seed a streak of 8 so the next consecutive day reads 9 with no
	// milestones banked yet.
	lastDay := day(2026, time.May, 8)
	repo.participation[userID] = &domain.ParticipationStreak{
		UserID:                userID,
		CurrentStreak:         8,
		LongestStreak:         8,
		LastParticipationDate: &lastDay,
	}

	result, err := service.RecordParticipation(ctx, userID, "mission", day(2026, time.May, 9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CurrentStreak != 9 {
		t.Fatalf("expected streak 9, got %d", result.CurrentStreak)
	}
	if len(result.Milestones) != 3 {
		t.Fatalf("expected milestones 3, 5 and 7 in one response, got %+v", result.Milestones)
	}
	if result.MilestonePoints != 150 {
		t.Fatalf("expected 150 milestone points, got %d", result.MilestonePoints)
	}
}

func TestAwardAchievementIdempotent(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	first, err := service.AwardAchievement(ctx, userID, domain.FamilyStar, "star_auction_winner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Success || first.PointsGranted != 100 {
		t.Fatalf("expected first award to grant 100 points, got %+v", first)
	}

	second, err := service.AwardAchievement(ctx, userID, domain.FamilyStar, "star_auction_winner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Success || !second.AlreadyEarned {
		t.Fatalf("expected already-earned result, got %+v", second)
	}

	account, _ := repo.FindUserAccountByID(ctx, userID)
	if account.Points != 100 {
		t.Fatalf("expected points credited exactly once (100), got %d", account.Points)
	}
}

func TestParticipationHistoryRetainsThirtyDays(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	start := day(2026, time.March, 1)
	for i := 0; i < 40; i++ {
		if _, err := service.RecordParticipation(ctx, userID, "mission", start.AddDate(0, 0, i)); err != nil {
			t.Fatalf("unexpected error on day %d: %v", i+1, err)
		}
	}

	_, participation, history, err := service.GetStreaks(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if participation.CurrentStreak != 40 {
		t.Fatalf("expected streak 40, got %d", participation.CurrentStreak)
	}
	if len(history) != 30 {
		t.Fatalf("expected history capped at 30 days, got %d", len(history))
	}
	newest := start.AddDate(0, 0, 39)
	if !history[0].Day.Equal(newest) {
		t.Fatalf("expected newest history day %s first, got %s", newest, history[0].Day)
	}
	oldest := start.AddDate(0, 0, 10)
	if !history[len(history)-1].Day.Equal(oldest) {
		t.Fatalf("expected oldest retained day %s, got %s", oldest, history[len(history)-1].Day)
	}
}

func TestAwardAchievementUnknownID(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	_, err := service.AwardAchievement(context.Background(), userID, domain.FamilyStar, "star_nonexistent")
	if !errors.Is(err, ErrUnknownAchievement) {
		t.Fatalf("expected ErrUnknownAchievement, got %v", err)
	}
}

func TestAwardAchievementRefusesMetaItems(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	tests := []struct {
		family domain.AchievementFamily
		id     string
	}{
		{domain.FamilyStar, "star_legend"},
		{domain.FamilyBadge, "badge_collector"},
	}
	for _, tt := range tests {
		if _, err := service.AwardAchievement(ctx, userID, tt.family, tt.id); !errors.Is(err, ErrMetaAchievement) {
			t.Fatalf("expected ErrMetaAchievement awarding %s, got %v", tt.id, err)
		}
	}

	account, err := repo.FindUserAccountByID(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Points != 0 {
		t.Fatalf("expected no points from refused awards, got %d", account.Points)
	}
}

func TestMetaAchievementTriggersOnNinthStar(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	var lastAward *domain.AwardResult
	for _, item := range starCatalog {
		if item.Meta {
			continue
		}
		result, err := service.AwardAchievement(ctx, userID, domain.FamilyStar, item.ID)
		if err != nil {
			t.Fatalf("unexpected error awarding %s: %v", item.ID, err)
		}
		lastAward = result
	}

	// The ninth non-meta star must carry the meta star in the same operation.
	if len(lastAward.Awarded) != 2 {
		t.Fatalf("expected the final award to include the meta star, got %+v", lastAward.Awarded)
	}
	foundLegend := false
	for _, a := range lastAward.Awarded {
		if a.ID == "star_legend" {
			foundLegend = true
			if a.PointsValue != 500 {
				t.Fatalf("expected the meta star to grant 500 points, got %d", a.PointsValue)
			}
		}
	}
	if !foundLegend {
		t.Fatalf("expected star_legend in the final award, got %+v", lastAward.Awarded)
	}
}

func TestCheckAchievementsExternalCounters(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	result, err := service.CheckAchievements(context.Background(), userID, ActionAuctionBid, domain.CounterSnapshot{
		AuctionBidsPlaced: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Awarded) != 1 || result.Awarded[0].ID != "badge_first_bid" {
		t.Fatalf("expected badge_first_bid, got %+v", result.Awarded)
	}
	if result.PointsGranted != badgeAwardPoints {
		t.Fatalf("expected %d points, got %d", badgeAwardPoints, result.PointsGranted)
	}
}

func TestExactCountPredicateDoesNotFirePastThreshold(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	// star_ten_receipts requires exactly 10 uploads; 11 must not unlock it.
	result, err := service.CheckAchievements(context.Background(), userID, ActionUploadReceipt, domain.CounterSnapshot{
		ReceiptsUploaded: 11,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range result.Awarded {
		if a.ID == "star_ten_receipts" {
			t.Fatalf("star_ten_receipts must not fire at 11 uploads, got %+v", result.Awarded)
		}
	}

	exact, err := service.CheckAchievements(context.Background(), userID, ActionUploadReceipt, domain.CounterSnapshot{
		ReceiptsUploaded: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, a := range exact.Awarded {
		if a.ID == "star_ten_receipts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected star_ten_receipts at exactly 10 uploads, got %+v", exact.Awarded)
	}
}

func TestTokenLedgerConservation(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	if _, err := service.CreditBidTokens(ctx, userID, 100, domain.TokenSourcePromotion, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.DebitBidTokens(ctx, userID, 40, domain.TokenPurposeAuctionBid, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.CreditBidTokens(ctx, userID, 15, domain.TokenSourceDailyBonus, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ledger, err := repo.GetTokenLedger(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.Balance != ledger.TotalEarned-ledger.TotalSpent {
		t.Fatalf("ledger conservation violated: balance=%d earned=%d spent=%d",
			ledger.Balance, ledger.TotalEarned, ledger.TotalSpent)
	}
	if ledger.Balance != 75 {
		t.Fatalf("expected balance 75, got %d", ledger.Balance)
	}

	// The display list runs newest-first and every entry snapshots the
	// balance the ledger held right after it was applied.
	_, transactions, err := service.GetLedger(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(transactions))
	}
	expected := []struct {
		txType       string
		amount       int64
		balanceAfter int64
	}{
		{domain.TokenTxEarned, 15, 75},
		{domain.TokenTxSpent, 40, 60},
		{domain.TokenTxEarned, 100, 100},
	}
	for i, want := range expected {
		got := transactions[i]
		if got.Type != want.txType || got.Amount != want.amount || got.BalanceAfter != want.balanceAfter {
			t.Fatalf("transaction %d: expected %s/%d/balance %d, got %s/%d/balance %d",
				i, want.txType, want.amount, want.balanceAfter, got.Type, got.Amount, got.BalanceAfter)
		}
	}
}

func TestDebitBidTokensInsufficient(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	if _, err := service.CreditBidTokens(ctx, userID, 30, domain.TokenSourcePromotion, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := service.DebitBidTokens(ctx, userID, 50, domain.TokenPurposeAuctionBid, nil)
	if err != nil {
		t.Fatalf("expected a non-error rejection, got %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection")
	}
	if result.Error != "insufficient_tokens" {
		t.Fatalf("expected error=insufficient_tokens, got %q", result.Error)
	}
	if result.Required != 50 || result.Available != 30 {
		t.Fatalf("expected required/available 50/30, got %d/%d", result.Required, result.Available)
	}

	// No mutation on rejection.
	ledger, _ := repo.GetTokenLedger(ctx, userID)
	if ledger.Balance != 30 || ledger.TotalSpent != 0 {
		t.Fatalf("expected untouched ledger, got balance=%d spent=%d", ledger.Balance, ledger.TotalSpent)
	}
}

func TestDebitBidTokensInvalidAmount(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)

	if _, err := service.DebitBidTokens(context.Background(), userID, 0, domain.TokenPurposeAuctionBid, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := service.CreditBidTokens(context.Background(), userID, -5, domain.TokenSourcePromotion, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListAchievementsFilters(t *testing.T) {
	repo := newMemRepository()
	userID := seedTestUser(repo)
	service := newTestService(repo)
	ctx := context.Background()

	if _, err := service.AwardAchievement(ctx, userID, domain.FamilyStar, "star_first_receipt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	earned, err := service.ListAchievements(ctx, userID, domain.FamilyStar, "earned", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(earned) != 1 || earned[0].ID != "star_first_receipt" {
		t.Fatalf("expected one earned star, got %+v", earned)
	}

	unearned, err := service.ListAchievements(ctx, userID, domain.FamilyStar, "unearned", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unearned) != len(starCatalog)-1 {
		t.Fatalf("expected %d unearned stars, got %d", len(starCatalog)-1, len(unearned))
	}

	progress, err := service.GetAchievementProgress(ctx, userID, domain.FamilyStar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progress.EarnedCount != 1 || progress.TotalCount != len(starCatalog) {
		t.Fatalf("expected progress 1/%d, got %d/%d", len(starCatalog), progress.EarnedCount, progress.TotalCount)
	}
}
