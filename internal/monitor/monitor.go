// File: internal/monitor/monitor.go
package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/fetcher"
	"github.com/blockpulse/watchlist-monitor/internal/metrics"
	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/internal/notification"
	"github.com/blockpulse/watchlist-monitor/internal/storage"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// Config holds watchlist monitor configuration
type Config struct {
	TxPageLimit int           `json:"tx_page_limit"`
	RunTimeout  time.Duration `json:"run_timeout"`
}

// WatchlistMonitor runs the poll-dedup-notify pipeline over all watchlist
// items. Items are processed strictly sequentially; one item's failure is
// recorded and the run continues.
type WatchlistMonitor struct {
	storage  storage.Storage
	fetchers *fetcher.Registry
	notifier notification.Notifier
	metrics  *metrics.PrometheusMetrics
	config   *Config
	logger   *logrus.Logger

	// clock is captured once per run so filtering and checkpointing agree
	// on a single "now"
	clock func() time.Time
}

// RunResult summarizes one monitoring run
type RunResult struct {
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at"`
	Duration          time.Duration `json:"duration"`
	ItemsChecked      int           `json:"items_checked"`
	AlertsCreated     int           `json:"alerts_created"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	Succeeded         int           `json:"succeeded"`
	Failed            int           `json:"failed"`
	Cleanup           *SweepResult  `json:"cleanup,omitempty"`
	Items             []ItemResult  `json:"items"`
}

// ItemResult records the outcome for one watchlist item
type ItemResult struct {
	Address         string  `json:"address"`
	Chain           string  `json:"chain"`
	Label           string  `json:"label"`
	TokenAddress    *string `json:"token_address,omitempty"`
	NewTransactions int     `json:"new_transactions"`
	AlertsCreated   int     `json:"alerts_created"`
	Duplicates      int     `json:"duplicates,omitempty"`
	Error           string  `json:"error,omitempty"`
	Success         bool    `json:"success"`
}

// Errors returns the failed item results
func (r *RunResult) Errors() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if !item.Success {
			failed = append(failed, item)
		}
	}
	return failed
}

// NewWatchlistMonitor creates a new watchlist monitor
func NewWatchlistMonitor(
	store storage.Storage,
	fetchers *fetcher.Registry,
	notifier notification.Notifier,
	prom *metrics.PrometheusMetrics,
	config *Config,
) *WatchlistMonitor {
	return &WatchlistMonitor{
		storage:  store,
		fetchers: fetchers,
		notifier: notifier,
		metrics:  prom,
		config:   config,
		logger:   utils.GetLogger(),
		clock:    time.Now,
	}
}

// WithClock overrides the run clock
func (m *WatchlistMonitor) WithClock(clock func() time.Time) *WatchlistMonitor {
	m.clock = clock
	return m
}

// Run executes one full monitoring pass: trial sweep, then every watchlist
// item. The returned error is non-nil only for fatal failures (sweep or
// watchlist enumeration); per-item errors are reported in the result.
func (m *WatchlistMonitor) Run(ctx context.Context) (*RunResult, error) {
	now := m.clock()
	result := &RunResult{StartedAt: now}

	if m.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.RunTimeout)
		defer cancel()
	}

	m.logger.Info("Starting watchlist monitoring run")

	// Step 1: trial expiry sweep. A failure here is fatal: polling with
	// stale trial state would alert users who lost access.
	sweep, err := m.RunSweep(ctx, now)
	if err != nil {
		m.recordRun(result, "fatal")
		return result, err
	}
	result.Cleanup = sweep

	// Step 2: enumerate the watchlist
	items, err := m.storage.ListWatchlistItems(ctx)
	if err != nil {
		m.recordRun(result, "fatal")
		return result, utils.NewAppError(utils.ErrCodeDatabase, "Failed to enumerate watchlist", err.Error())
	}

	m.logger.Info("Watchlist loaded", "items", len(items))
	result.ItemsChecked = len(items)

	// Step 3: per-item fetch, filter, write, notify
	for _, entry := range items {
		itemResult := m.processItem(ctx, now, entry)
		result.Items = append(result.Items, itemResult)
		result.AlertsCreated += itemResult.AlertsCreated
		result.DuplicatesSkipped += itemResult.Duplicates

		if itemResult.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	result.FinishedAt = m.clock()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	status := "success"
	if result.Failed > 0 {
		status = "partial"
	}
	m.recordRun(result, status)

	m.logger.Info("Monitoring run complete",
		"duration", result.Duration,
		"items_checked", result.ItemsChecked,
		"alerts_created", result.AlertsCreated,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}

// processItem handles a single watchlist item. Any error is captured in the
// item result; the checkpoint advances only when the fetch succeeded, so a
// transient failure is retried from the same boundary next run.
func (m *WatchlistMonitor) processItem(ctx context.Context, now time.Time, entry *models.WatchlistWithUser) ItemResult {
	item := &entry.Item
	itemResult := ItemResult{
		Address:      item.Address,
		Chain:        string(item.Chain),
		Label:        item.Label,
		TokenAddress: item.TokenAddress,
	}

	m.logger.Debug("Checking watchlist item", "address", item.Address, "chain", item.Chain)

	chainFetcher, err := m.fetchers.ForChain(item.Chain)
	if err != nil {
		itemResult.Error = err.Error()
		return itemResult
	}

	fetchStart := time.Now()
	transactions, err := chainFetcher.FetchTransactions(ctx, item.Address, item.Chain, m.config.TxPageLimit)
	if m.metrics != nil {
		m.metrics.RecordFetch(string(item.Chain), time.Since(fetchStart), err)
	}
	if err != nil {
		m.logger.Warn("Transaction fetch failed",
			"address", item.Address, "chain", item.Chain, "error", err)
		itemResult.Error = err.Error()
		return itemResult
	}

	for _, tx := range transactions {
		// Only transactions strictly newer than the checkpoint count
		if !tx.Timestamp.After(item.LastChecked) {
			continue
		}

		// Token-scoped watches ignore transactions that do not move the token
		if item.WatchesToken() && !tx.HasTokenTransfer(item) {
			continue
		}

		itemResult.NewTransactions++

		alert := BuildAlert(entry, &tx, now)
		if err := m.storage.CreateAlert(ctx, alert); err != nil {
			if err == storage.ErrDuplicateAlert {
				m.logger.Debug("Duplicate alert skipped", "tx", tx.Hash, "user", entry.User.ID)
				itemResult.Duplicates++
				if m.metrics != nil {
					m.metrics.DuplicateAlertsSkippedTotal.Inc()
				}
				continue
			}
			// Abort this transaction only; the rest of the page still counts
			m.logger.Error("Failed to persist alert", "tx", tx.Hash, "error", err)
			continue
		}

		itemResult.AlertsCreated++
		if m.metrics != nil {
			m.metrics.AlertsCreatedTotal.Inc()
		}

		if m.notifier != nil {
			m.notifier.NotifyTransaction(ctx, &entry.User, alert)
		}
	}

	// Advance the checkpoint to the run clock. Held back on fetch failure
	// above; re-reading old transactions is harmless, losing them is not.
	if err := m.storage.UpdateLastChecked(ctx, item.ID, now); err != nil {
		m.logger.Warn("Failed to advance checkpoint", "item", item.ID, "error", err)
		itemResult.Error = err.Error()
		return itemResult
	}

	itemResult.Success = true
	return itemResult
}

func (m *WatchlistMonitor) recordRun(result *RunResult, status string) {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = m.clock()
		result.Duration = result.FinishedAt.Sub(result.StartedAt)
	}
	if m.metrics != nil {
		m.metrics.RecordRun(status, result.Duration)
		m.metrics.ItemsCheckedTotal.Add(float64(result.ItemsChecked))
	}
}
