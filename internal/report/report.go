// File: internal/report/report.go
// Package report renders a markdown summary for each monitoring run and
// writes it under the configured report directory.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/monitor"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// Writer renders and persists run reports
type Writer struct {
	dir    string
	logger *logrus.Logger
}

// NewWriter creates a report writer targeting dir
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		logger: utils.GetLogger(),
	}
}

// Write renders the run result and writes it to
// <dir>/monitor_<YYYY-MM-DD_HH-MM-SS>.md, creating the directory if needed.
// Returns the path of the written file.
func (w *Writer) Write(result *monitor.RunResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", utils.NewAppError(utils.ErrCodeInternal, "Failed to create report directory", err.Error())
	}

	name := fmt.Sprintf("monitor_%s.md", result.StartedAt.UTC().Format("2006-01-02_15-04-05"))
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, []byte(Render(result)), 0o644); err != nil {
		return "", utils.NewAppError(utils.ErrCodeInternal, "Failed to write report", err.Error())
	}

	w.logger.Info("Run report written", "path", path)
	return path, nil
}

// Render produces the markdown body for a run result
func Render(result *monitor.RunResult) string {
	var b strings.Builder

	b.WriteString("# Watchlist Monitoring Report\n\n")
	fmt.Fprintf(&b, "**Date:** %s\n\n", result.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Duration | %.2fs |\n", result.Duration.Seconds())
	fmt.Fprintf(&b, "| Wallets Checked | %d |\n", result.ItemsChecked)
	fmt.Fprintf(&b, "| Alerts Created | %d |\n", result.AlertsCreated)
	fmt.Fprintf(&b, "| Successful | %d |\n", result.Succeeded)
	fmt.Fprintf(&b, "| Failed | %d |\n\n", result.Failed)

	if result.Cleanup != nil {
		b.WriteString("## Cleanup\n\n")
		fmt.Fprintf(&b, "- Expired trial users: %d\n", result.Cleanup.UsersExpired)
		fmt.Fprintf(&b, "- Watchlist items deleted: %d\n\n", result.Cleanup.ItemsDeleted)
	}

	b.WriteString("## Wallet Details\n\n")
	if len(result.Items) == 0 {
		b.WriteString("*No wallets monitored*\n\n")
	}
	for _, item := range result.Items {
		icon := "✅"
		if !item.Success {
			icon = "❌"
		}
		fmt.Fprintf(&b, "### %s %s\n\n", icon, item.Address)
		fmt.Fprintf(&b, "- **Chain:** %s\n", item.Chain)
		if item.TokenAddress != nil {
			fmt.Fprintf(&b, "- **Token Address:** %s\n", *item.TokenAddress)
		}
		if item.Success {
			fmt.Fprintf(&b, "- **New Transactions:** %d\n", item.NewTransactions)
			fmt.Fprintf(&b, "- **Alerts Created:** %d\n", item.AlertsCreated)
		} else {
			fmt.Fprintf(&b, "- **Error:** %s\n", item.Error)
		}
		b.WriteString("\n")
	}

	if failed := result.Errors(); len(failed) > 0 {
		b.WriteString("## Errors Encountered\n\n")
		for _, item := range failed {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", item.Address, item.Chain, item.Error)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*Report generated at %s*\n", result.FinishedAt.UTC().Format(time.RFC3339))

	return b.String()
}
