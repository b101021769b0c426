// File: internal/notification/notification.go
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/metrics"
	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// ErrSkipped is returned by a channel that chose not to deliver, e.g. the
// Telegram channel for a user with no linked chat. Not counted as a failure.
var ErrSkipped = utils.NewAppError(utils.ErrCodeNotification, "Notification skipped by channel", "")

// Notifier delivers transaction alerts to users. Delivery is best-effort:
// implementations log and count failures but never surface them to the
// polling loop.
type Notifier interface {
	NotifyTransaction(ctx context.Context, user *models.User, alert *models.TransactionAlert)
	GetStats() *NotificationStats
}

// Channel is a single delivery mechanism managed by the Manager
type Channel interface {
	Name() string
	Send(ctx context.Context, user *models.User, alert *models.TransactionAlert) error
}

// ManagerConfig holds notification manager configuration
type ManagerConfig struct {
	RetryAttempts       int           `json:"retry_attempts"`
	RetryDelay          time.Duration `json:"retry_delay"`
	NotificationTimeout time.Duration `json:"notification_timeout"`
	MaxConcurrent       int           `json:"max_concurrent"`
}

// NotificationStats provides notification statistics
type NotificationStats struct {
	TotalSent      uint64     `json:"total_sent"`
	TotalFailed    uint64     `json:"total_failed"`
	TotalSkipped   uint64     `json:"total_skipped"`
	ActiveChannels int        `json:"active_channels"`
	LastError      *string    `json:"last_error,omitempty"`
	LastErrorTime  *time.Time `json:"last_error_time,omitempty"`
}

// Manager fans alerts out to the enabled channels
type Manager struct {
	config   *ManagerConfig
	logger   *logrus.Logger
	channels []Channel
	metrics  *metrics.PrometheusMetrics

	mu    sync.Mutex
	stats NotificationStats
}

// NewManager creates a notification manager over the given channels
func NewManager(config *ManagerConfig, channels []Channel, prom *metrics.PrometheusMetrics) *Manager {
	return &Manager{
		config:   config,
		logger:   utils.GetLogger(),
		channels: channels,
		metrics:  prom,
	}
}

// NotifyTransaction delivers one alert on every channel, at most
// MaxConcurrent channels in flight at once. A failure on one channel does
// not stop the others, and no failure propagates to the caller.
func (m *Manager) NotifyTransaction(ctx context.Context, user *models.User, alert *models.TransactionAlert) {
	limit := m.config.MaxConcurrent
	if limit < 1 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for _, channel := range m.channels {
		wg.Add(1)
		sem <- struct{}{}
		go func(ch Channel) {
			defer wg.Done()
			defer func() { <-sem }()
			m.deliver(ctx, ch, user, alert)
		}(channel)
	}

	wg.Wait()
}

func (m *Manager) deliver(ctx context.Context, channel Channel, user *models.User, alert *models.TransactionAlert) {
	err := m.sendWithRetry(ctx, channel, user, alert)

	if err == ErrSkipped {
		m.recordSkip()
		return
	}

	if m.metrics != nil {
		m.metrics.RecordNotification(channel.Name(), err)
	}

	if err != nil {
		m.recordFailure(err)
		m.logger.Warn("Notification delivery failed",
			"channel", channel.Name(), "user", user.ID, "tx", alert.TransactionHash, "error", err)
		return
	}

	m.recordSuccess()
	m.logger.Debug("Notification delivered",
		"channel", channel.Name(), "user", user.ID, "tx", alert.TransactionHash)
}

func (m *Manager) sendWithRetry(ctx context.Context, channel Channel, user *models.User, alert *models.TransactionAlert) error {
	attempts := m.config.RetryAttempts + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.config.RetryDelay):
			}
		}

		sendCtx := ctx
		var cancel context.CancelFunc
		if m.config.NotificationTimeout > 0 {
			sendCtx, cancel = context.WithTimeout(ctx, m.config.NotificationTimeout)
		}

		lastErr = channel.Send(sendCtx, user, alert)
		if cancel != nil {
			cancel()
		}

		if lastErr == nil || lastErr == ErrSkipped {
			return lastErr
		}
	}

	return lastErr
}

// GetStats returns delivery statistics
func (m *Manager) GetStats() *NotificationStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	stats.ActiveChannels = len(m.channels)
	return &stats
}

func (m *Manager) recordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalSent++
}

func (m *Manager) recordSkip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalSkipped++
}

func (m *Manager) recordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalFailed++
	msg := err.Error()
	now := time.Now()
	m.stats.LastError = &msg
	m.stats.LastErrorTime = &now
}
