// File: internal/monitor/monitor_test.go
package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpulse/watchlist-monitor/internal/fetcher"
	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/internal/notification"
	"github.com/blockpulse/watchlist-monitor/internal/storage"
)

var runClock = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// fakeStorage is an in-memory Storage for pipeline tests
type fakeStorage struct {
	mu            sync.Mutex
	items         []*models.WatchlistWithUser
	alerts        map[string]*models.TransactionAlert // user|hash
	checkpoints   map[string]time.Time
	expiredUsers  []string
	sweptUserIDs  []string
	failListItems bool
	failCreate    bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		alerts:      make(map[string]*models.TransactionAlert),
		checkpoints: make(map[string]time.Time),
	}
}

func (f *fakeStorage) Connect() error { return nil }
func (f *fakeStorage) Close() error   { return nil }
func (f *fakeStorage) Ping() error    { return nil }
func (f *fakeStorage) Migrate() error { return nil }

func (f *fakeStorage) ListWatchlistItems(ctx context.Context) ([]*models.WatchlistWithUser, error) {
	if f.failListItems {
		return nil, errors.New("list failed")
	}
	return f.items, nil
}

func (f *fakeStorage) AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error {
	return nil
}

func (f *fakeStorage) UpdateLastChecked(ctx context.Context, itemID string, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if current, ok := f.checkpoints[itemID]; !ok || !checkedAt.Before(current) {
		f.checkpoints[itemID] = checkedAt
	}
	return nil
}

func (f *fakeStorage) DeleteWatchlistByUsers(ctx context.Context, userIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweptUserIDs = append(f.sweptUserIDs, userIDs...)

	var kept []*models.WatchlistWithUser
	var deleted int64
	for _, entry := range f.items {
		swept := false
		for _, id := range userIDs {
			if entry.Item.UserID == id {
				swept = true
				break
			}
		}
		if swept {
			deleted++
		} else {
			kept = append(kept, entry)
		}
	}
	f.items = kept
	return deleted, nil
}

func (f *fakeStorage) CreateAlert(ctx context.Context, alert *models.TransactionAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("write failed")
	}
	key := alert.UserID + "|" + alert.TransactionHash
	if _, exists := f.alerts[key]; exists {
		return storage.ErrDuplicateAlert
	}
	f.alerts[key] = alert
	return nil
}

func (f *fakeStorage) ListAlertsByUser(ctx context.Context, userID string, limit int) ([]*models.TransactionAlert, error) {
	return nil, nil
}

func (f *fakeStorage) CountAlerts(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.alerts)), nil
}

func (f *fakeStorage) MarkAlertRead(ctx context.Context, alertID string) error { return nil }

func (f *fakeStorage) UpsertUser(ctx context.Context, user *models.User) error { return nil }

func (f *fakeStorage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return nil, nil
}

func (f *fakeStorage) ExpiredTrialUsers(ctx context.Context, now time.Time) ([]string, error) {
	return f.expiredUsers, nil
}

func (f *fakeStorage) GetStorageStats() (*storage.StorageStats, error) {
	return &storage.StorageStats{}, nil
}

// fakeFetcher returns canned transactions per address
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string][]models.Transaction
	failFor map[string]bool
	calls   int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:   make(map[string][]models.Transaction),
		failFor: make(map[string]bool),
	}
}

func (f *fakeFetcher) FetchTransactions(ctx context.Context, address string, chain models.Chain, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFor[address] {
		return nil, errors.New("indexer unavailable")
	}
	return f.pages[address], nil
}

// fakeNotifier records delivered alerts
type fakeNotifier struct {
	mu     sync.Mutex
	sent   []*models.TransactionAlert
	sentTo []string
}

func (f *fakeNotifier) NotifyTransaction(ctx context.Context, user *models.User, alert *models.TransactionAlert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, alert)
	f.sentTo = append(f.sentTo, user.ID)
}

func (f *fakeNotifier) GetStats() *notification.NotificationStats {
	return &notification.NotificationStats{}
}

func entryFor(itemID, userID, address string, lastChecked time.Time) *models.WatchlistWithUser {
	return &models.WatchlistWithUser{
		Item: models.WatchlistItem{
			ID:          itemID,
			UserID:      userID,
			Address:     address,
			Chain:       models.ChainEthereum,
			LastChecked: lastChecked,
		},
		User: models.User{
			ID:             userID,
			TelegramChatID: 1000,
		},
	}
}

func txAt(hash, from, to string, ts time.Time) models.Transaction {
	return models.Transaction{
		Hash:      hash,
		From:      from,
		To:        to,
		Value:     decimal.RequireFromString("1.5"),
		Timestamp: ts,
	}
}

func newTestMonitor(store storage.Storage, fetch fetcher.Fetcher, notifier notification.Notifier) *WatchlistMonitor {
	m := NewWatchlistMonitor(
		store,
		fetcher.NewRegistry(fetch, nil),
		notifier,
		nil,
		&Config{TxPageLimit: 10, RunTimeout: time.Minute},
	)
	return m.WithClock(func() time.Time { return runClock })
}

func TestRunCreatesAlertsForNewTransactions(t *testing.T) {
	const wallet = "0xAAAA567890123456789012345678901234567890"

	store := newFakeStorage()
	store.items = []*models.WatchlistWithUser{
		entryFor("item-1", "user-1", wallet, runClock.Add(-time.Hour)),
	}

	fetch := newFakeFetcher()
	fetch.pages[wallet] = []models.Transaction{
		// newer than the checkpoint: alert
		txAt("0xnew", "0x1111111111111111111111111111111111111111", wallet, runClock.Add(-10*time.Minute)),
		// older than the checkpoint: ignored
		txAt("0xold", wallet, "0x2222222222222222222222222222222222222222", runClock.Add(-2*time.Hour)),
	}

	notifier := &fakeNotifier{}
	m := newTestMonitor(store, fetch, notifier)

	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsChecked)
	assert.Equal(t, 1, result.AlertsCreated)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)

	alert, ok := store.alerts["user-1|0xnew"]
	require.True(t, ok, "Alert for the new transaction should be persisted")
	assert.Equal(t, models.AlertReceived, alert.Type, "Wallet is the recipient")
	assert.Equal(t, "1.5", alert.Value)

	_, ok = store.alerts["user-1|0xold"]
	assert.False(t, ok, "Transactions at or before the checkpoint must not alert")

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "user-1", notifier.sentTo[0])

	assert.True(t, store.checkpoints["item-1"].Equal(runClock), "Checkpoint advances to the run clock")
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	const wallet = "0xBBBB567890123456789012345678901234567890"

	store := newFakeStorage()
	fetch := newFakeFetcher()
	notifier := &fakeNotifier{}

	fetch.pages[wallet] = []models.Transaction{
		txAt("0xrepeat", "0x1111111111111111111111111111111111111111", wallet, runClock.Add(-5*time.Minute)),
	}

	// Both runs see the same page and the same stale checkpoint, as happens
	// when the checkpoint write races the indexer's view
	for i := 0; i < 2; i++ {
		store.items = []*models.WatchlistWithUser{
			entryFor("item-1", "user-1", wallet, runClock.Add(-time.Hour)),
		}
		m := newTestMonitor(store, fetch, notifier)
		result, err := m.Run(context.Background())
		require.NoError(t, err, "run %d", i)

		if i == 0 {
			assert.Equal(t, 1, result.AlertsCreated)
		} else {
			assert.Zero(t, result.AlertsCreated, "Second run must not re-alert")
			assert.Equal(t, 1, result.DuplicatesSkipped, "Duplicate must be counted, not silently dropped")
			assert.Equal(t, 1, result.Succeeded, "Duplicate skip still counts as success")
		}
	}

	assert.Len(t, store.alerts, 1)
	assert.Len(t, notifier.sent, 1, "User is notified exactly once per transaction")
}

func TestRunTokenFilter(t *testing.T) {
	const wallet = "0xCCCC567890123456789012345678901234567890"
	watchedToken := "0xDAC17F958D2EE523A2206206994597C13D831EC7"

	store := newFakeStorage()
	entry := entryFor("item-1", "user-1", wallet, runClock.Add(-time.Hour))
	entry.Item.TokenAddress = &watchedToken
	store.items = []*models.WatchlistWithUser{entry}

	matching := txAt("0xmatch", wallet, "0x1111111111111111111111111111111111111111", runClock.Add(-10*time.Minute))
	matching.TokenTransfers = []models.TokenTransfer{{
		// different casing than the watch entry
		ContractAddress: "0xdac17f958d2ee523a2206206994597c13d831ec7",
		Symbol:          "USDT",
		Amount:          decimal.RequireFromString("99"),
	}}

	nonMatching := txAt("0xother", wallet, "0x2222222222222222222222222222222222222222", runClock.Add(-9*time.Minute))
	nonMatching.TokenTransfers = []models.TokenTransfer{{
		ContractAddress: "0x9999999999999999999999999999999999999999",
		Symbol:          "OTHER",
		Amount:          decimal.RequireFromString("1"),
	}}

	plain := txAt("0xplain", wallet, "0x3333333333333333333333333333333333333333", runClock.Add(-8*time.Minute))

	fetch := newFakeFetcher()
	fetch.pages[wallet] = []models.Transaction{matching, nonMatching, plain}

	m := newTestMonitor(store, fetch, &fakeNotifier{})
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.AlertsCreated, "Only the matching token transfer alerts")

	alert := store.alerts["user-1|0xmatch"]
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertSent, alert.Type)
	require.NotNil(t, alert.TokenSymbol)
	assert.Equal(t, "USDT", *alert.TokenSymbol)
	require.NotNil(t, alert.TokenAmount)
	assert.Equal(t, "99", *alert.TokenAmount)
}

func TestRunIsolatesItemFailures(t *testing.T) {
	const walletA = "0xAAAA567890123456789012345678901234567890"
	const walletB = "0xBBBB567890123456789012345678901234567890"

	checkpointA := runClock.Add(-time.Hour)

	store := newFakeStorage()
	store.items = []*models.WatchlistWithUser{
		entryFor("item-a", "user-a", walletA, checkpointA),
		entryFor("item-b", "user-b", walletB, runClock.Add(-time.Hour)),
	}
	store.checkpoints["item-a"] = checkpointA

	fetch := newFakeFetcher()
	fetch.failFor[walletA] = true
	fetch.pages[walletB] = []models.Transaction{
		txAt("0xok", "0x1111111111111111111111111111111111111111", walletB, runClock.Add(-time.Minute)),
	}

	m := newTestMonitor(store, fetch, &fakeNotifier{})
	result, err := m.Run(context.Background())
	require.NoError(t, err,
		"Per-item failures are not fatal; a partial run still completes cleanly and exits zero")

	assert.Equal(t, 2, result.ItemsChecked)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.AlertsCreated)

	failures := result.Errors()
	require.Len(t, failures, 1)
	assert.Equal(t, walletA, failures[0].Address)

	// Item A holds its checkpoint so the failed window is retried next run
	assert.True(t, store.checkpoints["item-a"].Equal(checkpointA), "Failed item must not advance")
	assert.True(t, store.checkpoints["item-b"].Equal(runClock), "Healthy item advances")
}

func TestRunSweepsExpiredTrials(t *testing.T) {
	const walletExpired = "0xDDDD567890123456789012345678901234567890"
	const walletActive = "0xEEEE567890123456789012345678901234567890"

	store := newFakeStorage()
	store.expiredUsers = []string{"user-expired"}
	store.items = []*models.WatchlistWithUser{
		entryFor("item-expired", "user-expired", walletExpired, runClock.Add(-time.Hour)),
		entryFor("item-active", "user-active", walletActive, runClock.Add(-time.Hour)),
	}

	fetch := newFakeFetcher()
	fetch.pages[walletExpired] = []models.Transaction{
		txAt("0xghost", "0x1111111111111111111111111111111111111111", walletExpired, runClock.Add(-time.Minute)),
	}

	m := newTestMonitor(store, fetch, &fakeNotifier{})
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Cleanup)
	assert.Equal(t, 1, result.Cleanup.UsersExpired)
	assert.Equal(t, int64(1), result.Cleanup.ItemsDeleted)

	// The sweep runs before polling, so the expired user's wallet is never checked
	assert.Equal(t, 1, result.ItemsChecked)
	_, ok := store.alerts["user-expired|0xghost"]
	assert.False(t, ok, "Swept items must not produce alerts")
}

func TestRunListFailureIsFatal(t *testing.T) {
	store := newFakeStorage()
	store.failListItems = true

	m := newTestMonitor(store, newFakeFetcher(), &fakeNotifier{})
	result, err := m.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result, "A fatal run still returns a result shell")
	assert.Zero(t, result.ItemsChecked)
}

func TestRunWriteFailureSkipsNotification(t *testing.T) {
	const wallet = "0xFFFF567890123456789012345678901234567890"

	store := newFakeStorage()
	store.failCreate = true
	store.items = []*models.WatchlistWithUser{
		entryFor("item-1", "user-1", wallet, runClock.Add(-time.Hour)),
	}

	fetch := newFakeFetcher()
	fetch.pages[wallet] = []models.Transaction{
		txAt("0xfail", "0x1111111111111111111111111111111111111111", wallet, runClock.Add(-time.Minute)),
	}

	notifier := &fakeNotifier{}
	m := newTestMonitor(store, fetch, notifier)
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.AlertsCreated)
	assert.Empty(t, notifier.sent, "No notification without a persisted alert")
	// The write failure aborts that transaction only; the item still completes
	assert.Equal(t, 1, result.Succeeded)
}

func TestDeriveAlertType(t *testing.T) {
	const wallet = "0xAbC1234567890123456789012345678901234567"

	sent := txAt("0x1", wallet, "0x9999999999999999999999999999999999999999", runClock)
	received := txAt("0x2", "0x9999999999999999999999999999999999999999", wallet, runClock)
	contract := txAt("0x3", "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", runClock)
	// case differences between indexer and watch entry
	mixedCase := txAt("0x4", "0xABC1234567890123456789012345678901234567", "0x9999999999999999999999999999999999999999", runClock)

	assert.Equal(t, models.AlertSent, DeriveAlertType(&sent, wallet))
	assert.Equal(t, models.AlertReceived, DeriveAlertType(&received, wallet))
	assert.Equal(t, models.AlertContract, DeriveAlertType(&contract, wallet))
	assert.Equal(t, models.AlertSent, DeriveAlertType(&mixedCase, wallet))
}

func TestBuildAlertAssignsUniqueIDs(t *testing.T) {
	entry := entryFor("item-1", "user-1", "0xAAAA567890123456789012345678901234567890", runClock)
	tx := txAt("0xdups", "0x1111111111111111111111111111111111111111", entry.Item.Address, runClock)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		alert := BuildAlert(entry, &tx, runClock)
		require.NotEmpty(t, alert.ID)
		assert.False(t, seen[alert.ID], "Alert IDs must be unique")
		seen[alert.ID] = true
	}

	alert := BuildAlert(entry, &tx, runClock)
	assert.Equal(t, entry.User.ID, alert.UserID)
	assert.True(t, alert.CreatedAt.Equal(runClock))
	assert.Nil(t, alert.TokenAddress, "No token fields without transfers")
}
