// File: internal/notification/logger.go
package notification

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// LogChannel writes alerts to the application log. Used for dry runs and as
// a fallback when no delivery channel is configured.
type LogChannel struct {
	logger *logrus.Logger
}

// NewLogChannel creates a log channel
func NewLogChannel() *LogChannel {
	return &LogChannel{logger: utils.GetLogger()}
}

// Name returns the channel identifier
func (l *LogChannel) Name() string {
	return "log"
}

// Send logs the alert
func (l *LogChannel) Send(ctx context.Context, user *models.User, alert *models.TransactionAlert) error {
	l.logger.WithFields(logrus.Fields{
		"user":   user.ID,
		"wallet": alert.WalletAddress,
		"chain":  alert.Chain,
		"tx":     alert.TransactionHash,
		"type":   alert.Type,
		"value":  alert.Value,
	}).Info("Transaction alert")
	return nil
}
