// File: cmd/monitor/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blockpulse/watchlist-monitor/internal/config"
	"github.com/blockpulse/watchlist-monitor/internal/fetcher"
	"github.com/blockpulse/watchlist-monitor/internal/metrics"
	"github.com/blockpulse/watchlist-monitor/internal/monitor"
	"github.com/blockpulse/watchlist-monitor/internal/notification"
	"github.com/blockpulse/watchlist-monitor/internal/report"
	"github.com/blockpulse/watchlist-monitor/internal/server"
	"github.com/blockpulse/watchlist-monitor/internal/storage"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application wires the monitor's components together
type Application struct {
	config         *config.Config
	logger         *logrus.Logger
	storage        storage.Storage
	fetchers       *fetcher.Registry
	notification   *notification.Manager
	metricsManager *metrics.Manager
	monitor        *monitor.WatchlistMonitor
	reports        *report.Writer
	server         *server.HTTPServer
	ctx            context.Context
	cancel         context.CancelFunc

	runMu    sync.Mutex
	inFlight bool
	lastRun  *monitor.RunResult
}

// NewApplication creates a new application instance. withServer controls
// whether the HTTP status server is built (serve mode only).
func NewApplication(cfg *config.Config, withServer bool) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(withServer); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger = utils.GetLogger()
	app.logger.Info("Logger initialized",
		"level", logCfg.Level,
		"format", logCfg.Format,
		"output", logCfg.Output)

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents(withServer bool) error {
	app.logger.Info("Initializing application components")

	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.initializeFetchers()

	if withServer {
		app.metricsManager = metrics.NewManager()
	}

	if err := app.initializeNotification(); err != nil {
		return fmt.Errorf("failed to initialize notification: %w", err)
	}

	app.initializeMonitor()

	if app.config.Monitor.EnableReport {
		app.reports = report.NewWriter(app.config.Monitor.ReportDir)
	}

	if withServer {
		if err := app.initializeServer(); err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
	}

	app.logger.Info("All components initialized successfully")
	return nil
}

// initializeStorage initializes the storage layer
func (app *Application) initializeStorage() error {
	app.logger.Info("Initializing storage layer", "type", app.config.Storage.Type)

	store, err := storage.NewStorage(&app.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	app.storage = store

	if err := app.storage.Connect(); err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	if err := app.storage.Migrate(); err != nil {
		return fmt.Errorf("failed to run storage migrations: %w", err)
	}

	app.logger.Info("Storage layer initialized successfully")
	return nil
}

// initializeFetchers builds the per-chain-family transaction fetchers
func (app *Application) initializeFetchers() {
	evm := fetcher.NewEVMFetcher(&fetcher.EVMConfig{
		BaseURL:        app.config.Indexer.BaseURL,
		APIKey:         app.config.Indexer.APIKey,
		RequestTimeout: app.config.Indexer.RequestTimeout,
	})

	var solana fetcher.Fetcher
	if app.config.Solana.BaseURL != "" {
		solana = fetcher.NewSolanaFetcher(&fetcher.SolanaConfig{
			BaseURL:        app.config.Solana.BaseURL,
			APIKey:         app.config.Solana.APIKey,
			RequestTimeout: app.config.Solana.RequestTimeout,
		})
	}

	app.fetchers = fetcher.NewRegistry(evm, solana)
}

// initializeNotification initializes the notification manager and channels
func (app *Application) initializeNotification() error {
	if !app.config.Notifications.Enabled {
		app.logger.Info("Notifications disabled")
		return nil
	}

	app.logger.Info("Initializing notification manager")

	var channels []notification.Channel

	if app.config.Notifications.EnableTelegram {
		telegram, err := notification.NewTelegramChannel(app.config.Notifications.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("failed to create telegram channel: %w", err)
		}
		channels = append(channels, telegram)
	}

	if app.config.Notifications.EnableWebhook {
		channels = append(channels, notification.NewWebhookChannel(
			app.config.Notifications.WebhookURL,
			app.config.Notifications.NotificationTimeout,
		))
	}

	if len(channels) == 0 {
		channels = append(channels, notification.NewLogChannel())
	}

	managerCfg := &notification.ManagerConfig{
		RetryAttempts:       app.config.Notifications.RetryAttempts,
		RetryDelay:          app.config.Notifications.RetryDelay,
		NotificationTimeout: app.config.Notifications.NotificationTimeout,
		MaxConcurrent:       app.config.Notifications.MaxConcurrentNotifications,
	}

	app.notification = notification.NewManager(managerCfg, channels, app.prometheusMetrics())

	app.logger.Info("Notification manager initialized successfully", "channels", len(channels))
	return nil
}

// initializeMonitor initializes the watchlist monitor
func (app *Application) initializeMonitor() {
	monitorCfg := &monitor.Config{
		TxPageLimit: app.config.Indexer.TxPageLimit,
		RunTimeout:  app.config.Monitor.RunTimeout,
	}

	var notifier notification.Notifier
	if app.notification != nil {
		notifier = app.notification
	}

	app.monitor = monitor.NewWatchlistMonitor(
		app.storage,
		app.fetchers,
		notifier,
		app.prometheusMetrics(),
		monitorCfg,
	)
}

// initializeServer initializes the HTTP status server
func (app *Application) initializeServer() error {
	app.logger.Info("Initializing HTTP server")

	serverCfg := &server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
	}

	var notifier notification.Notifier
	if app.notification != nil {
		notifier = app.notification
	}

	srv, err := server.NewHTTPServer(serverCfg, app.storage, app, notifier, app.metricsManager)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	app.server = srv

	app.logger.Info("HTTP server initialized successfully")
	return nil
}

func (app *Application) prometheusMetrics() *metrics.PrometheusMetrics {
	if app.metricsManager == nil {
		return nil
	}
	return app.metricsManager.GetPrometheusMetrics()
}

// RunOnce executes a single monitoring run and writes the report
func (app *Application) RunOnce(ctx context.Context) (*monitor.RunResult, error) {
	result, err := app.monitor.Run(ctx)

	app.runMu.Lock()
	app.lastRun = result
	app.runMu.Unlock()

	if result != nil && app.reports != nil {
		if _, reportErr := app.reports.Write(result); reportErr != nil {
			app.logger.Error("Failed to write run report", "error", reportErr)
		}
	}

	return result, err
}

// LastRun returns the most recent run result
func (app *Application) LastRun() *monitor.RunResult {
	app.runMu.Lock()
	defer app.runMu.Unlock()
	return app.lastRun
}

// InFlight reports whether a run is currently executing
func (app *Application) InFlight() bool {
	app.runMu.Lock()
	defer app.runMu.Unlock()
	return app.inFlight
}

// TriggerRun executes a run if none is in flight
func (app *Application) TriggerRun(ctx context.Context) (*monitor.RunResult, error) {
	if !app.beginRun() {
		return nil, fmt.Errorf("a monitoring run is already in progress")
	}
	defer app.endRun()

	return app.RunOnce(ctx)
}

func (app *Application) beginRun() bool {
	app.runMu.Lock()
	defer app.runMu.Unlock()
	if app.inFlight {
		return false
	}
	app.inFlight = true
	return true
}

func (app *Application) endRun() {
	app.runMu.Lock()
	app.inFlight = false
	app.runMu.Unlock()
}

// Serve runs the monitor on a schedule with the status server attached
func (app *Application) Serve() error {
	app.logger.Info("Starting watchlist monitor",
		"version", AppVersion,
		"environment", app.config.App.Environment,
		"poll_interval", app.config.Monitor.PollInterval)

	if app.server != nil {
		if err := app.server.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	ticker := time.NewTicker(app.config.Monitor.PollInterval)
	defer ticker.Stop()

	// First run happens immediately, not after one interval
	app.scheduledRun()

	for {
		select {
		case <-app.ctx.Done():
			return nil
		case <-ticker.C:
			app.scheduledRun()
		}
	}
}

// scheduledRun executes a ticker-driven run, skipping the tick if the
// previous run is still going
func (app *Application) scheduledRun() {
	if !app.beginRun() {
		app.logger.Warn("Previous run still in flight, skipping tick")
		return
	}
	defer app.endRun()

	if _, err := app.RunOnce(app.ctx); err != nil {
		app.logger.Error("Monitoring run failed", "error", err)
	}
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	app.logger.Info("Stopping watchlist monitor")

	app.cancel()

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			app.logger.Error("Failed to stop HTTP server", "error", err)
		}
	}

	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.Error("Failed to close storage", "error", err)
		}
	}

	app.logger.Info("Watchlist monitor stopped successfully")
	return nil
}

// CLI Commands

// rootCmd runs one monitoring pass and exits
var rootCmd = &cobra.Command{
	Use:     "watchlist-monitor",
	Short:   "Crypto watchlist transaction monitor",
	Long:    `Polls watched wallet addresses across chains, records new transaction alerts, and notifies users via Telegram.`,
	Version: AppVersion,
	RunE:    runOnce,
}

// runOnce executes a single monitoring run
func runOnce(cmd *cobra.Command, args []string) error {
	app, err := buildApplication(false)
	if err != nil {
		return err
	}
	defer app.Stop()

	result, err := app.TriggerRun(app.ctx)
	if err != nil {
		return fmt.Errorf("monitoring run failed: %w", err)
	}

	fmt.Printf("Checked %d items, created %d alerts (%d succeeded, %d failed)\n",
		result.ItemsChecked, result.AlertsCreated, result.Succeeded, result.Failed)

	// Per-item failures are reported above but do not fail the run; only a
	// fatal error (sweep or watchlist enumeration) yields a non-zero exit.
	return nil
}

// serveCmd runs the monitor continuously with the status server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor on a schedule with the HTTP status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApplication(true)
		if err != nil {
			return err
		}

		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			errChan <- app.Serve()
		}()

		select {
		case err := <-errChan:
			app.Stop()
			return err
		case <-signalChan:
			fmt.Println("\nReceived shutdown signal, stopping...")
			return app.Stop()
		}
	},
}

// sweepCmd runs only the trial expiry sweep
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove watchlist items of users with expired trials",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApplication(false)
		if err != nil {
			return err
		}
		defer app.Stop()

		result, err := app.monitor.RunSweep(app.ctx, time.Now())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		fmt.Printf("Expired trial users: %d, watchlist items deleted: %d\n",
			result.UsersExpired, result.ItemsDeleted)
		return nil
	},
}

// versionCmd prints the version number
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Watchlist Monitor %s\n", AppVersion)
	},
}

// configCmd groups configuration management commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)
		fmt.Printf("Indexer: %s\n", cfg.Indexer.BaseURL)
		fmt.Printf("Poll interval: %s\n", cfg.Monitor.PollInterval)

		return nil
	},
}

// buildApplication loads config and wires the application
func buildApplication(withServer bool) (*Application, error) {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := NewApplication(cfg, withServer)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return app, nil
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
