// File: internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// SQLiteStorage implements Storage interface using SQLite
type SQLiteStorage struct {
	db         *sql.DB
	config     *StorageConfig
	logger     *logrus.Logger
	migrations []*Migration
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(config *StorageConfig) *SQLiteStorage {
	return &SQLiteStorage{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetSQLiteMigrations(),
	}
}

// Connect establishes database connection
func (s *SQLiteStorage) Connect() error {
	// Ensure directory exists
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable foreign keys", err.Error())
	}

	s.db = db
	s.logger.Info("SQLite database connected", "path", s.config.ConnectionString)

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("SQLite database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStorage) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *SQLiteStorage) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	s.logger.Info("Starting database migrations")

	for _, migration := range s.migrations {
		s.logger.Info("Applying migration", "version", migration.Version, "description", migration.Description)

		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version),
				err.Error())
		}
	}

	s.logger.Info("Database migrations completed")
	return nil
}

// ListWatchlistItems returns all watchlist items joined with their owners
func (s *SQLiteStorage) ListWatchlistItems(ctx context.Context) ([]*models.WatchlistWithUser, error) {
	query := `
		SELECT w.id, w.user_id, w.address, w.chain, w.token_address, w.label,
		       w.last_checked, w.created_at,
		       u.email, u.username, u.is_premium, u.trial_ends_at,
		       u.telegram_username, u.telegram_chat_id
		FROM watchlist_items w
		JOIN users u ON u.id = w.user_id
		ORDER BY w.created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query watchlist items", err.Error())
	}
	defer rows.Close()

	var items []*models.WatchlistWithUser
	for rows.Next() {
		entry, err := scanWatchlistWithUser(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan watchlist item", err.Error())
		}
		items = append(items, entry)
	}

	return items, rows.Err()
}

// AddWatchlistItem inserts a new watchlist entry
func (s *SQLiteStorage) AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error {
	query := `
		INSERT INTO watchlist_items (id, user_id, address, chain, token_address, label, last_checked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.UserID, models.NormalizeAddress(item.Address, item.Chain), string(item.Chain),
		item.TokenAddress, item.Label, item.LastChecked, item.CreatedAt)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to add watchlist item", err.Error())
	}

	return nil
}

// UpdateLastChecked advances an item's checkpoint. The checkpoint never
// moves backward: a stale timestamp is a silent no-op.
func (s *SQLiteStorage) UpdateLastChecked(ctx context.Context, itemID string, checkedAt time.Time) error {
	query := `UPDATE watchlist_items SET last_checked = ? WHERE id = ? AND last_checked <= ?`

	_, err := s.db.ExecContext(ctx, query, checkedAt, itemID, checkedAt)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to update last checked", err.Error())
	}

	return nil
}

// DeleteWatchlistByUsers deletes all watchlist items owned by the given users
func (s *SQLiteStorage) DeleteWatchlistByUsers(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(userIDs))
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM watchlist_items WHERE user_id IN (%s)", strings.Join(placeholders, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete watchlist items", err.Error())
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get rows affected", err.Error())
	}

	return deleted, nil
}

// CreateAlert inserts a transaction alert. Returns ErrDuplicateAlert when an
// alert for the same (user, transaction hash) already exists.
func (s *SQLiteStorage) CreateAlert(ctx context.Context, alert *models.TransactionAlert) error {
	query := `
		INSERT INTO transaction_alerts
		(id, user_id, wallet_address, chain, transaction_hash, type,
		 from_address, to_address, value, token_address, token_symbol, token_amount, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		alert.ID, alert.UserID, alert.WalletAddress, string(alert.Chain), alert.TransactionHash,
		string(alert.Type), alert.FromAddress, alert.ToAddress, alert.Value,
		alert.TokenAddress, alert.TokenSymbol, alert.TokenAmount, alert.IsRead, alert.CreatedAt)

	if err != nil {
		// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_UNIQUE in the message
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateAlert
		}
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create alert", err.Error())
	}

	return nil
}

// ListAlertsByUser returns a user's alerts, newest first
func (s *SQLiteStorage) ListAlertsByUser(ctx context.Context, userID string, limit int) ([]*models.TransactionAlert, error) {
	query := `
		SELECT id, user_id, wallet_address, chain, transaction_hash, type,
		       from_address, to_address, value, token_address, token_symbol, token_amount, is_read, created_at
		FROM transaction_alerts WHERE user_id = ?
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query alerts", err.Error())
	}
	defer rows.Close()

	var alerts []*models.TransactionAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan alert", err.Error())
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// CountAlerts returns the total number of stored alerts
func (s *SQLiteStorage) CountAlerts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transaction_alerts").Scan(&count)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count alerts", err.Error())
	}
	return count, nil
}

// MarkAlertRead marks a single alert as read
func (s *SQLiteStorage) MarkAlertRead(ctx context.Context, alertID string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE transaction_alerts SET is_read = TRUE WHERE id = ?", alertID)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to mark alert read", err.Error())
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to get rows affected", err.Error())
	}
	if affected == 0 {
		return utils.NewAppError(utils.ErrCodeNotFound, "Alert not found", alertID)
	}

	return nil
}

// UpsertUser inserts or updates a user record
func (s *SQLiteStorage) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, is_premium, trial_ends_at, telegram_username, telegram_chat_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			username = excluded.username,
			is_premium = excluded.is_premium,
			trial_ends_at = excluded.trial_ends_at,
			telegram_username = excluded.telegram_username,
			telegram_chat_id = excluded.telegram_chat_id
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.IsPremium, user.TrialEndsAt,
		user.TelegramUsername, user.TelegramChatID)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to upsert user", err.Error())
	}

	return nil
}

// GetUser retrieves a user by ID
func (s *SQLiteStorage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, email, username, is_premium, trial_ends_at, telegram_username, telegram_chat_id
		FROM users WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user models.User
	var trialEndsAt sql.NullTime

	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.IsPremium,
		&trialEndsAt, &user.TelegramUsername, &user.TelegramChatID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get user", err.Error())
	}

	if trialEndsAt.Valid {
		user.TrialEndsAt = &trialEndsAt.Time
	}

	return &user, nil
}

// ExpiredTrialUsers returns IDs of non-premium users whose trial lapsed at or before now
func (s *SQLiteStorage) ExpiredTrialUsers(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id FROM users
		WHERE is_premium = FALSE AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?
	`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query expired trial users", err.Error())
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan user ID", err.Error())
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}

// GetStorageStats returns row counts
func (s *SQLiteStorage) GetStorageStats() (*StorageStats, error) {
	stats := &StorageStats{CollectedAt: time.Now()}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM users", &stats.Users},
		{"SELECT COUNT(*) FROM watchlist_items", &stats.WatchlistItems},
		{"SELECT COUNT(*) FROM transaction_alerts", &stats.Alerts},
		{"SELECT COUNT(*) FROM transaction_alerts WHERE is_read = FALSE", &stats.UnreadAlerts},
	}

	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to collect storage stats", err.Error())
		}
	}

	return stats, nil
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWatchlistWithUser(row scanner) (*models.WatchlistWithUser, error) {
	var entry models.WatchlistWithUser
	var chain string
	var tokenAddress sql.NullString
	var trialEndsAt sql.NullTime

	err := row.Scan(
		&entry.Item.ID, &entry.Item.UserID, &entry.Item.Address, &chain,
		&tokenAddress, &entry.Item.Label, &entry.Item.LastChecked, &entry.Item.CreatedAt,
		&entry.User.Email, &entry.User.Username, &entry.User.IsPremium, &trialEndsAt,
		&entry.User.TelegramUsername, &entry.User.TelegramChatID)

	if err != nil {
		return nil, err
	}

	entry.Item.Chain = models.Chain(chain)
	entry.User.ID = entry.Item.UserID
	if tokenAddress.Valid {
		entry.Item.TokenAddress = &tokenAddress.String
	}
	if trialEndsAt.Valid {
		entry.User.TrialEndsAt = &trialEndsAt.Time
	}

	return &entry, nil
}

func scanAlert(row scanner) (*models.TransactionAlert, error) {
	var alert models.TransactionAlert
	var chain, alertType string
	var tokenAddress, tokenSymbol, tokenAmount sql.NullString

	err := row.Scan(
		&alert.ID, &alert.UserID, &alert.WalletAddress, &chain, &alert.TransactionHash, &alertType,
		&alert.FromAddress, &alert.ToAddress, &alert.Value,
		&tokenAddress, &tokenSymbol, &tokenAmount, &alert.IsRead, &alert.CreatedAt)

	if err != nil {
		return nil, err
	}

	alert.Chain = models.Chain(chain)
	alert.Type = models.AlertType(alertType)
	if tokenAddress.Valid {
		alert.TokenAddress = &tokenAddress.String
	}
	if tokenSymbol.Valid {
		alert.TokenSymbol = &tokenSymbol.String
	}
	if tokenAmount.Valid {
		alert.TokenAmount = &tokenAmount.String
	}

	return &alert, nil
}
