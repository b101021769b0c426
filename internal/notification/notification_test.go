// File: internal/notification/notification_test.go
package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpulse/watchlist-monitor/internal/models"
)

// stubChannel fails a configurable number of times before succeeding
type stubChannel struct {
	name      string
	failTimes int
	skip      bool
	calls     int
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Send(ctx context.Context, user *models.User, alert *models.TransactionAlert) error {
	c.calls++
	if c.skip {
		return ErrSkipped
	}
	if c.calls <= c.failTimes {
		return errors.New("delivery failed")
	}
	return nil
}

func testManager(channels ...Channel) *Manager {
	return NewManager(&ManagerConfig{
		RetryAttempts:       1,
		RetryDelay:          time.Millisecond,
		NotificationTimeout: time.Second,
	}, channels, nil)
}

func linkedUser() *models.User {
	return &models.User{ID: "user-1", TelegramChatID: 4242}
}

func TestNotifyTransactionSuccess(t *testing.T) {
	ch := &stubChannel{name: "stub"}
	m := testManager(ch)

	m.NotifyTransaction(context.Background(), linkedUser(), baseAlert())

	stats := m.GetStats()
	assert.Equal(t, uint64(1), stats.TotalSent)
	assert.Zero(t, stats.TotalFailed)
	assert.Equal(t, 1, ch.calls)
	assert.Equal(t, 1, stats.ActiveChannels)
}

func TestNotifyTransactionRetriesOnce(t *testing.T) {
	ch := &stubChannel{name: "stub", failTimes: 1}
	m := testManager(ch)

	m.NotifyTransaction(context.Background(), linkedUser(), baseAlert())

	assert.Equal(t, 2, ch.calls, "One retry after the initial failure")
	stats := m.GetStats()
	assert.Equal(t, uint64(1), stats.TotalSent)
	assert.Zero(t, stats.TotalFailed)
}

func TestNotifyTransactionExhaustsRetries(t *testing.T) {
	ch := &stubChannel{name: "stub", failTimes: 10}
	m := testManager(ch)

	m.NotifyTransaction(context.Background(), linkedUser(), baseAlert())

	assert.Equal(t, 2, ch.calls, "RetryAttempts+1 total attempts")
	stats := m.GetStats()
	assert.Zero(t, stats.TotalSent)
	assert.Equal(t, uint64(1), stats.TotalFailed)
	require.NotNil(t, stats.LastError)
	assert.Equal(t, "delivery failed", *stats.LastError)
}

func TestNotifyTransactionSkipNotCountedAsFailure(t *testing.T) {
	ch := &stubChannel{name: "stub", skip: true}
	m := testManager(ch)

	m.NotifyTransaction(context.Background(), linkedUser(), baseAlert())

	stats := m.GetStats()
	assert.Equal(t, uint64(1), stats.TotalSkipped)
	assert.Zero(t, stats.TotalFailed)
	assert.Zero(t, stats.TotalSent)
	assert.Equal(t, 1, ch.calls, "A skip is not retried")
}

// gaugedChannel tracks how many sends a group of channels has in flight
type gaugedChannel struct {
	name  string
	gauge *inFlightGauge
}

type inFlightGauge struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (c *gaugedChannel) Name() string { return c.name }

func (c *gaugedChannel) Send(ctx context.Context, user *models.User, alert *models.TransactionAlert) error {
	c.gauge.mu.Lock()
	c.gauge.active++
	if c.gauge.active > c.gauge.peak {
		c.gauge.peak = c.gauge.active
	}
	c.gauge.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	c.gauge.mu.Lock()
	c.gauge.active--
	c.gauge.mu.Unlock()
	return nil
}

func TestNotifyTransactionBoundsConcurrentDeliveries(t *testing.T) {
	gauge := &inFlightGauge{}
	channels := []Channel{
		&gaugedChannel{name: "a", gauge: gauge},
		&gaugedChannel{name: "b", gauge: gauge},
		&gaugedChannel{name: "c", gauge: gauge},
		&gaugedChannel{name: "d", gauge: gauge},
	}

	m := NewManager(&ManagerConfig{
		RetryAttempts:       0,
		RetryDelay:          time.Millisecond,
		NotificationTimeout: time.Second,
		MaxConcurrent:       2,
	}, channels, nil)

	m.NotifyTransaction(context.Background(), linkedUser(), baseAlert())

	stats := m.GetStats()
	assert.Equal(t, uint64(4), stats.TotalSent, "Every channel delivers")
	assert.LessOrEqual(t, gauge.peak, 2, "No more than MaxConcurrent sends in flight")
}

func TestNotifyTransactionFansOutToAllChannels(t *testing.T) {
	ok := &stubChannel{name: "ok"}
	broken := &stubChannel{name: "broken", failTimes: 10}
	m := testManager(ok, broken)

	m.NotifyTransaction(context.Background(), linkedUser(), baseAlert())

	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 2, broken.calls)

	stats := m.GetStats()
	assert.Equal(t, uint64(1), stats.TotalSent, "Healthy channel still delivers")
	assert.Equal(t, uint64(1), stats.TotalFailed)
	assert.Equal(t, 2, stats.ActiveChannels)
}
