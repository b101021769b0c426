// File: internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/blockpulse/watchlist-monitor/internal/models"
)

// ErrDuplicateAlert is returned by CreateAlert when an alert for the same
// (user, transaction hash) pair already exists. Callers treat it as an
// expected skip, not a failure.
var ErrDuplicateAlert = errors.New("alert already exists for user and transaction")

// Storage defines the interface for watchlist persistence operations
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Watchlist operations
	ListWatchlistItems(ctx context.Context) ([]*models.WatchlistWithUser, error)
	AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error
	UpdateLastChecked(ctx context.Context, itemID string, checkedAt time.Time) error
	DeleteWatchlistByUsers(ctx context.Context, userIDs []string) (int64, error)

	// Alert operations
	CreateAlert(ctx context.Context, alert *models.TransactionAlert) error
	ListAlertsByUser(ctx context.Context, userID string, limit int) ([]*models.TransactionAlert, error)
	CountAlerts(ctx context.Context) (int64, error)
	MarkAlertRead(ctx context.Context, alertID string) error

	// User operations
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ExpiredTrialUsers(ctx context.Context, now time.Time) ([]string, error)

	// Statistics
	GetStorageStats() (*StorageStats, error)
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string
	ConnectionString string
	MaxConnections   int
	MaxIdleTime      time.Duration
}

// StorageStats provides row counts for monitoring
type StorageStats struct {
	Users          int64     `json:"users"`
	WatchlistItems int64     `json:"watchlist_items"`
	Alerts         int64     `json:"alerts"`
	UnreadAlerts   int64     `json:"unread_alerts"`
	CollectedAt    time.Time `json:"collected_at"`
}

// StorageHealth describes storage connectivity
type StorageHealth struct {
	StorageType string            `json:"storage_type"`
	Healthy     bool              `json:"healthy"`
	Details     map[string]string `json:"details,omitempty"`
	LastPing    time.Time         `json:"last_ping"`
}
