// File: internal/monitor/sweep.go
package monitor

import (
	"context"
	"time"

	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// SweepResult summarizes a trial expiry sweep
type SweepResult struct {
	UsersExpired int   `json:"users_expired"`
	ItemsDeleted int64 `json:"items_deleted"`
}

// RunSweep removes the watchlist items of every user whose trial has ended.
// It runs before each monitoring pass so expired users stop receiving alerts
// on the same run their trial lapses.
func (m *WatchlistMonitor) RunSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	userIDs, err := m.storage.ExpiredTrialUsers(ctx, now)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to find expired trial users", err.Error())
	}

	result := &SweepResult{UsersExpired: len(userIDs)}
	if len(userIDs) == 0 {
		m.logger.Debug("No expired trial users")
		return result, nil
	}

	deleted, err := m.storage.DeleteWatchlistByUsers(ctx, userIDs)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to sweep expired watchlists", err.Error())
	}
	result.ItemsDeleted = deleted

	if m.metrics != nil {
		m.metrics.RecordSweep(result.UsersExpired, result.ItemsDeleted)
	}

	m.logger.Info("Trial expiry sweep complete",
		"users_expired", result.UsersExpired,
		"items_deleted", result.ItemsDeleted)

	return result, nil
}
