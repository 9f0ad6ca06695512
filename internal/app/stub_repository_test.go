package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/toucanwin/rewards-service/internal/domain"
	"github.com/toucanwin/rewards-service/internal/store"
)

// memRepository is an in-memory store.Repository for service tests. It is not
// safe for concurrent use; tests drive it from one goroutine.
type memRepository struct {
	accounts      map[uuid.UUID]*domain.UserAccount
	dailyBonus    map[uuid.UUID]*domain.DailyBonusState
	participation map[uuid.UUID]*domain.ParticipationStreak
	days          map[uuid.UUID][]domain.ParticipationDay
	milestones    map[uuid.UUID]map[int]bool
	achievements  map[uuid.UUID]map[string]domain.AchievementState
	receipts      map[uuid.UUID][]domain.Receipt
	counters      map[uuid.UUID]*domain.CounterSnapshot
	stores        map[uuid.UUID]map[string]bool
	categories    map[uuid.UUID]map[string]bool
	ledgers       map[uuid.UUID]*domain.TokenLedger
	transactions  map[uuid.UUID][]domain.TokenTransaction
}

func newMemRepository() *memRepository {
	return &memRepository{
		accounts:      make(map[uuid.UUID]*domain.UserAccount),
		dailyBonus:    make(map[uuid.UUID]*domain.DailyBonusState),
		participation: make(map[uuid.UUID]*domain.ParticipationStreak),
		days:          make(map[uuid.UUID][]domain.ParticipationDay),
		milestones:    make(map[uuid.UUID]map[int]bool),
		achievements:  make(map[uuid.UUID]map[string]domain.AchievementState),
		receipts:      make(map[uuid.UUID][]domain.Receipt),
		counters:      make(map[uuid.UUID]*domain.CounterSnapshot),
		stores:        make(map[uuid.UUID]map[string]bool),
		categories:    make(map[uuid.UUID]map[string]bool),
		ledgers:       make(map[uuid.UUID]*domain.TokenLedger),
		transactions:  make(map[uuid.UUID][]domain.TokenTransaction),
	}
}

func (m *memRepository) seedUser(userID uuid.UUID) {
	m.accounts[userID] = &domain.UserAccount{ID: userID, Username: "tester"}
}

func (m *memRepository) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx store.Repository) error) error {
	if _, ok := m.accounts[userID]; !ok {
		return store.ErrUserNotFound
	}
	return fn(ctx, m)
}

func (m *memRepository) CreateUserAccount(ctx context.Context, account *domain.UserAccount) error {
	if _, ok := m.accounts[account.ID]; ok {
		return store.ErrUserAlreadyExists
	}
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *memRepository) FindUserAccountByID(ctx context.Context, userID uuid.UUID) (*domain.UserAccount, error) {
	account, ok := m.accounts[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *memRepository) AddPoints(ctx context.Context, userID uuid.UUID, delta int64) (int64, error) {
	account, ok := m.accounts[userID]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	account.Points += delta
	if account.Points < 0 {
		account.Points = 0
	}
	return account.Points, nil
}

func (m *memRepository) GetDailyBonusState(ctx context.Context, userID uuid.UUID) (*domain.DailyBonusState, error) {
	if state, ok := m.dailyBonus[userID]; ok {
		copied := *state
		return &copied, nil
	}
	return &domain.DailyBonusState{UserID: userID}, nil
}

func (m *memRepository) SaveDailyBonusState(ctx context.Context, state *domain.DailyBonusState) error {
	copied := *state
	m.dailyBonus[state.UserID] = &copied
	return nil
}

func (m *memRepository) GetParticipationStreak(ctx context.Context, userID uuid.UUID) (*domain.ParticipationStreak, error) {
	if streak, ok := m.participation[userID]; ok {
		copied := *streak
		return &copied, nil
	}
	return &domain.ParticipationStreak{UserID: userID}, nil
}

func (m *memRepository) SaveParticipationStreak(ctx context.Context, streak *domain.ParticipationStreak) error {
	copied := *streak
	m.participation[streak.UserID] = &copied
	return nil
}

func (m *memRepository) UpsertParticipationDay(ctx context.Context, userID uuid.UUID, day time.Time, activity string) error {
	days := m.days[userID]
	for i := range days {
		if days[i].Day.Equal(day) {
			for _, existing := range days[i].Activities {
				if existing == activity {
					return nil
				}
			}
			days[i].Activities = append(days[i].Activities, activity)
			return nil
		}
	}
	m.days[userID] = append(days, domain.ParticipationDay{Day: day, Activities: []string{activity}})
	return nil
}

func (m *memRepository) TrimParticipationHistory(ctx context.Context, userID uuid.UUID, keepDays int) error {
	days := m.days[userID]
	sort.Slice(days, func(i, j int) bool { return days[i].Day.After(days[j].Day) })
	if len(days) > keepDays {
		days = days[:keepDays]
	}
	m.days[userID] = days
	return nil
}

func (m *memRepository) ListParticipationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ParticipationDay, error) {
	days := m.days[userID]
	sort.Slice(days, func(i, j int) bool { return days[i].Day.After(days[j].Day) })
	if len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

func (m *memRepository) GetAchievedMilestones(ctx context.Context, userID uuid.UUID) (map[int]bool, error) {
	out := make(map[int]bool, len(m.milestones[userID]))
	for threshold := range m.milestones[userID] {
		out[threshold] = true
	}
	return out, nil
}

func (m *memRepository) MarkMilestoneAchieved(ctx context.Context, userID uuid.UUID, threshold int) error {
	if m.milestones[userID] == nil {
		m.milestones[userID] = make(map[int]bool)
	}
	m.milestones[userID][threshold] = true
	return nil
}

func (m *memRepository) ListAchievementStates(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily) ([]domain.AchievementState, error) {
	var out []domain.AchievementState
	for _, state := range m.achievements[userID] {
		if state.Family == family {
			out = append(out, state)
		}
	}
	return out, nil
}

func (m *memRepository) MarkAchievementEarned(ctx context.Context, userID uuid.UUID, family domain.AchievementFamily, achievementID string, earnedDate time.Time) (bool, error) {
	if m.achievements[userID] == nil {
		m.achievements[userID] = make(map[string]domain.AchievementState)
	}
	if _, ok := m.achievements[userID][achievementID]; ok {
		return false, nil
	}
	date := earnedDate
	m.achievements[userID][achievementID] = domain.AchievementState{
		UserID:        userID,
		AchievementID: achievementID,
		Family:        family,
		Earned:        true,
		EarnedDate:    &date,
	}
	return true, nil
}

func (m *memRepository) CreateReceipt(ctx context.Context, receipt *domain.Receipt) error {
	m.receipts[receipt.UserID] = append(m.receipts[receipt.UserID], *receipt)
	return nil
}

func (m *memRepository) ListReceiptsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Receipt, error) {
	receipts := m.receipts[userID]
	if len(receipts) > limit {
		receipts = receipts[len(receipts)-limit:]
	}
	return receipts, nil
}

func (m *memRepository) GetCounters(ctx context.Context, userID uuid.UUID) (*domain.CounterSnapshot, error) {
	snapshot := domain.CounterSnapshot{}
	if stored, ok := m.counters[userID]; ok {
		snapshot = *stored
	}
	snapshot.UniqueStores = int64(len(m.stores[userID]))
	snapshot.CategoriesShopped = int64(len(m.categories[userID]))
	return &snapshot, nil
}

func (m *memRepository) IncrementCounters(ctx context.Context, userID uuid.UUID, delta domain.CounterSnapshot) error {
	current, ok := m.counters[userID]
	if !ok {
		current = &domain.CounterSnapshot{}
		m.counters[userID] = current
	}
	current.ReceiptsUploaded += delta.ReceiptsUploaded
	current.TotalSpendCents += delta.TotalSpendCents
	current.DailyBonusClaims += delta.DailyBonusClaims
	current.Participations += delta.Participations
	current.HealthyReceipts += delta.HealthyReceipts
	current.AuctionBidsPlaced += delta.AuctionBidsPlaced
	current.AuctionsWon += delta.AuctionsWon
	current.MissionsCompleted += delta.MissionsCompleted
	return nil
}

func (m *memRepository) RecordStoreVisit(ctx context.Context, userID uuid.UUID, storeKey string) (bool, error) {
	if m.stores[userID] == nil {
		m.stores[userID] = make(map[string]bool)
	}
	if m.stores[userID][storeKey] {
		return false, nil
	}
	m.stores[userID][storeKey] = true
	return true, nil
}

func (m *memRepository) RecordCategoryShopped(ctx context.Context, userID uuid.UUID, category string) (bool, error) {
	if m.categories[userID] == nil {
		m.categories[userID] = make(map[string]bool)
	}
	if m.categories[userID][category] {
		return false, nil
	}
	m.categories[userID][category] = true
	return true, nil
}

func (m *memRepository) GetTokenLedger(ctx context.Context, userID uuid.UUID) (*domain.TokenLedger, error) {
	if ledger, ok := m.ledgers[userID]; ok {
		copied := *ledger
		return &copied, nil
	}
	return &domain.TokenLedger{UserID: userID}, nil
}

func (m *memRepository) CreditTokens(ctx context.Context, entry *domain.TokenTransaction) (*domain.TokenLedger, error) {
	ledger, ok := m.ledgers[entry.UserID]
	if !ok {
		ledger = &domain.TokenLedger{UserID: entry.UserID}
		m.ledgers[entry.UserID] = ledger
	}
	ledger.TotalEarned += entry.Amount
	ledger.Balance += entry.Amount
	entry.BalanceAfter = ledger.Balance
	m.transactions[entry.UserID] = append(m.transactions[entry.UserID], *entry)
	copied := *ledger
	return &copied, nil
}

func (m *memRepository) DebitTokens(ctx context.Context, entry *domain.TokenTransaction) (*domain.TokenLedger, error) {
	ledger, ok := m.ledgers[entry.UserID]
	if !ok || ledger.Balance < entry.Amount {
		return nil, store.ErrInsufficientTokens
	}
	ledger.TotalSpent += entry.Amount
	ledger.Balance -= entry.Amount
	entry.BalanceAfter = ledger.Balance
	m.transactions[entry.UserID] = append(m.transactions[entry.UserID], *entry)
	copied := *ledger
	return &copied, nil
}

func (m *memRepository) ListTokenTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TokenTransaction, error) {
	transactions := m.transactions[userID]
	if len(transactions) > limit {
		transactions = transactions[len(transactions)-limit:]
	}
	// Newest-first, matching the Postgres ORDER BY created_at DESC.
	out := make([]domain.TokenTransaction, len(transactions))
	for i, entry := range transactions {
		out[len(transactions)-1-i] = entry
	}
	return out, nil
}

func (m *memRepository) GetLedgerAnalytics(ctx context.Context, userID uuid.UUID) (*domain.LedgerAnalytics, error) {
	analytics := &domain.LedgerAnalytics{}
	for _, tx := range m.transactions[userID] {
		switch tx.Type {
		case domain.TokenTxEarned:
			analytics.TotalEarned += tx.Amount
		case domain.TokenTxSpent:
			analytics.TotalSpent += tx.Amount
		}
	}
	return analytics, nil
}

var _ store.Repository = (*memRepository)(nil)
