// File: internal/storage/migrations.go
package storage

// Migration represents a database migration
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL DEFAULT '',
					username TEXT NOT NULL DEFAULT '',
					is_premium BOOLEAN NOT NULL DEFAULT FALSE,
					trial_ends_at DATETIME,
					telegram_username TEXT NOT NULL DEFAULT '',
					telegram_chat_id INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_users_trial ON users(is_premium, trial_ends_at);
			`,
		},
		{
			Version:     "002",
			Description: "Create watchlist_items table",
			SQL: `
				CREATE TABLE IF NOT EXISTS watchlist_items (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					address TEXT NOT NULL,
					chain TEXT NOT NULL,
					token_address TEXT,
					label TEXT NOT NULL DEFAULT '',
					last_checked DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist_items(user_id);
				CREATE INDEX IF NOT EXISTS idx_watchlist_address ON watchlist_items(address, chain);
			`,
		},
		{
			Version:     "003",
			Description: "Create transaction_alerts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS transaction_alerts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					wallet_address TEXT NOT NULL,
					chain TEXT NOT NULL,
					transaction_hash TEXT NOT NULL,
					type TEXT NOT NULL,
					from_address TEXT NOT NULL DEFAULT '',
					to_address TEXT NOT NULL DEFAULT '',
					value TEXT NOT NULL DEFAULT '0',
					token_address TEXT,
					token_symbol TEXT,
					token_amount TEXT,
					is_read BOOLEAN NOT NULL DEFAULT FALSE,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_user_tx ON transaction_alerts(user_id, transaction_hash);
				CREATE INDEX IF NOT EXISTS idx_alerts_wallet ON transaction_alerts(wallet_address, chain);
				CREATE INDEX IF NOT EXISTS idx_alerts_unread ON transaction_alerts(user_id, is_read);
			`,
		},
	}
}

// GetPostgreSQLMigrations returns PostgreSQL migration scripts
func GetPostgreSQLMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL DEFAULT '',
					username TEXT NOT NULL DEFAULT '',
					is_premium BOOLEAN NOT NULL DEFAULT FALSE,
					trial_ends_at TIMESTAMPTZ,
					telegram_username TEXT NOT NULL DEFAULT '',
					telegram_chat_id BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_users_trial ON users(is_premium, trial_ends_at);
			`,
		},
		{
			Version:     "002",
			Description: "Create watchlist_items table",
			SQL: `
				CREATE TABLE IF NOT EXISTS watchlist_items (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					address TEXT NOT NULL,
					chain TEXT NOT NULL,
					token_address TEXT,
					label TEXT NOT NULL DEFAULT '',
					last_checked TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist_items(user_id);
				CREATE INDEX IF NOT EXISTS idx_watchlist_address ON watchlist_items(address, chain);
			`,
		},
		{
			Version:     "003",
			Description: "Create transaction_alerts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS transaction_alerts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					wallet_address TEXT NOT NULL,
					chain TEXT NOT NULL,
					transaction_hash TEXT NOT NULL,
					type TEXT NOT NULL,
					from_address TEXT NOT NULL DEFAULT '',
					to_address TEXT NOT NULL DEFAULT '',
					value TEXT NOT NULL DEFAULT '0',
					token_address TEXT,
					token_symbol TEXT,
					token_amount TEXT,
					is_read BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_user_tx ON transaction_alerts(user_id, transaction_hash);
				CREATE INDEX IF NOT EXISTS idx_alerts_wallet ON transaction_alerts(wallet_address, chain);
				CREATE INDEX IF NOT EXISTS idx_alerts_unread ON transaction_alerts(user_id, is_read);
			`,
		},
	}
}
