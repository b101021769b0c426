// File: internal/report/report_test.go
package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpulse/watchlist-monitor/internal/monitor"
)

func sampleResult() *monitor.RunResult {
	token := "0xdac17f958d2ee523a2206206994597c13d831ec7"
	started := time.Date(2026, 9, 1, 12, 30, 45, 0, time.UTC)

	return &monitor.RunResult{
		StartedAt:     started,
		FinishedAt:    started.Add(3200 * time.Millisecond),
		Duration:      3200 * time.Millisecond,
		ItemsChecked:  2,
		AlertsCreated: 3,
		Succeeded:     1,
		Failed:        1,
		Cleanup:       &monitor.SweepResult{UsersExpired: 1, ItemsDeleted: 2},
		Items: []monitor.ItemResult{
			{
				Address:         "0xabc1234567890123456789012345678901234567",
				Chain:           "ethereum",
				TokenAddress:    &token,
				NewTransactions: 3,
				AlertsCreated:   3,
				Success:         true,
			},
			{
				Address: "0xdef1234567890123456789012345678901234567",
				Chain:   "bsc",
				Error:   "indexer unavailable",
			},
		},
	}
}

func TestRender(t *testing.T) {
	md := Render(sampleResult())

	assert.Contains(t, md, "# Watchlist Monitoring Report")
	assert.Contains(t, md, "| Duration | 3.20s |")
	assert.Contains(t, md, "| Wallets Checked | 2 |")
	assert.Contains(t, md, "| Alerts Created | 3 |")
	assert.Contains(t, md, "| Successful | 1 |")
	assert.Contains(t, md, "| Failed | 1 |")

	assert.Contains(t, md, "## Cleanup")
	assert.Contains(t, md, "- Expired trial users: 1")
	assert.Contains(t, md, "- Watchlist items deleted: 2")

	assert.Contains(t, md, "### ✅ 0xabc1234567890123456789012345678901234567")
	assert.Contains(t, md, "- **Token Address:** 0xdac17f958d2ee523a2206206994597c13d831ec7")
	assert.Contains(t, md, "- **New Transactions:** 3")

	assert.Contains(t, md, "### ❌ 0xdef1234567890123456789012345678901234567")
	assert.Contains(t, md, "- **Error:** indexer unavailable")

	assert.Contains(t, md, "## Errors Encountered")
	assert.Contains(t, md, "- **0xdef1234567890123456789012345678901234567** (bsc): indexer unavailable")
}

func TestRenderEmptyWatchlist(t *testing.T) {
	result := &monitor.RunResult{
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}

	md := Render(result)
	assert.Contains(t, md, "*No wallets monitored*")
	assert.NotContains(t, md, "## Errors Encountered")
	assert.NotContains(t, md, "## Cleanup")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir)

	path, err := w.Write(sampleResult())
	require.NoError(t, err, "Write should create the directory and file")

	assert.Equal(t, filepath.Join(dir, "monitor_2026-09-01_12-30-45.md"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# Watchlist Monitoring Report")
}
