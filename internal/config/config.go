// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Indexer       IndexerConfig      `mapstructure:"indexer"`
	Solana        SolanaConfig       `mapstructure:"solana"`
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// IndexerConfig contains the EVM transaction indexer API configuration
type IndexerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TxPageLimit    int           `mapstructure:"tx_page_limit"`
}

// SolanaConfig contains the Solana token-transfer API configuration
type SolanaConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MonitorConfig contains watchlist monitoring configuration
type MonitorConfig struct {
	RunTimeout   time.Duration `mapstructure:"run_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"` // serve mode only
	ReportDir    string        `mapstructure:"report_dir"`
	EnableReport bool          `mapstructure:"enable_report"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Enabled                    bool          `mapstructure:"enabled"`
	TelegramBotToken           string        `mapstructure:"telegram_bot_token"`
	EnableTelegram             bool          `mapstructure:"enable_telegram"`
	WebhookURL                 string        `mapstructure:"webhook_url"`
	EnableWebhook              bool          `mapstructure:"enable_webhook"`
	RetryAttempts              int           `mapstructure:"retry_attempts"`
	RetryDelay                 time.Duration `mapstructure:"retry_delay"`
	NotificationTimeout        time.Duration `mapstructure:"notification_timeout"`
	MaxConcurrentNotifications int           `mapstructure:"max_concurrent_notifications"`
}

// ServerConfig contains HTTP status server configuration (serve mode)
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./internal/config")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("WATCHLIST_MONITOR")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Storage.ConnectionString = dbURL
	}
	if apiKey := os.Getenv("MORALIS_API_KEY"); apiKey != "" {
		config.Indexer.APIKey = apiKey
	}
	if botToken := os.Getenv("TELEGRAM_BOT_TOKEN"); botToken != "" {
		config.Notifications.TelegramBotToken = botToken
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "watchlist-monitor")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Storage defaults
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.connection_string", "./data/watchlist.db")
	viper.SetDefault("storage.max_connections", 25)
	viper.SetDefault("storage.max_idle_time", "15m")

	// Indexer defaults
	viper.SetDefault("indexer.base_url", "https://deep-index.moralis.io/api/v2.2")
	viper.SetDefault("indexer.request_timeout", "30s")
	viper.SetDefault("indexer.tx_page_limit", 10)

	// Solana defaults
	viper.SetDefault("solana.base_url", "https://solana-gateway.moralis.io")
	viper.SetDefault("solana.request_timeout", "30s")

	// Monitor defaults
	viper.SetDefault("monitor.run_timeout", "10m")
	viper.SetDefault("monitor.poll_interval", "5m")
	viper.SetDefault("monitor.report_dir", "./logs")
	viper.SetDefault("monitor.enable_report", true)

	// Notification defaults. Telegram stays off until a bot token is
	// configured; the log channel carries dry runs.
	viper.SetDefault("notifications.enabled", true)
	viper.SetDefault("notifications.enable_telegram", false)
	viper.SetDefault("notifications.enable_webhook", false)
	viper.SetDefault("notifications.retry_attempts", 1)
	viper.SetDefault("notifications.retry_delay", "2s")
	viper.SetDefault("notifications.notification_timeout", "15s")
	viper.SetDefault("notifications.max_concurrent_notifications", 4)

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required")
	}
	if c.Indexer.BaseURL == "" {
		return fmt.Errorf("indexer base URL is required")
	}
	if c.Indexer.TxPageLimit <= 0 {
		return fmt.Errorf("indexer transaction page limit must be positive")
	}
	if c.Monitor.RunTimeout <= 0 {
		return fmt.Errorf("monitor run timeout must be positive")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor poll interval must be positive")
	}
	if c.Notifications.Enabled && c.Notifications.EnableTelegram && c.Notifications.TelegramBotToken == "" {
		return fmt.Errorf("telegram bot token is required when telegram notifications are enabled")
	}
	if c.Notifications.EnableWebhook && c.Notifications.WebhookURL == "" {
		return fmt.Errorf("webhook URL is required when webhook notifications are enabled")
	}
	return nil
}
