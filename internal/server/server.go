// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/metrics"
	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/internal/monitor"
	"github.com/blockpulse/watchlist-monitor/internal/notification"
	"github.com/blockpulse/watchlist-monitor/internal/storage"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `json:"port"`
	Host          string        `json:"host"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableHealth  bool          `json:"enable_health"`
}

// Runner exposes the monitoring loop to the HTTP surface
type Runner interface {
	LastRun() *monitor.RunResult
	InFlight() bool
	TriggerRun(ctx context.Context) (*monitor.RunResult, error)
}

// HTTPServer serves health, stats, watchlist and alert endpoints alongside
// the Prometheus scrape target
type HTTPServer struct {
	config         *ServerConfig
	server         *http.Server
	router         *mux.Router
	storage        storage.Storage
	runner         Runner
	notification   notification.Notifier
	metricsManager *metrics.Manager
	logger         *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	config *ServerConfig,
	store storage.Storage,
	runner Runner,
	notifier notification.Notifier,
	metricsManager *metrics.Manager,
) (*HTTPServer, error) {

	server := &HTTPServer{
		config:         config,
		storage:        store,
		runner:         runner,
		notification:   notifier,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
	}

	server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server, nil
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
		api.HandleFunc("/health/detailed", s.detailedHealthHandler).Methods("GET")
	}

	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
		api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	}

	// Watchlist endpoints
	api.HandleFunc("/watchlist", s.listWatchlistHandler).Methods("GET")
	api.HandleFunc("/watchlist", s.addWatchlistHandler).Methods("POST")

	// Alert endpoints
	api.HandleFunc("/alerts/{userID}", s.listAlertsHandler).Methods("GET")
	api.HandleFunc("/alerts/{id}/read", s.markAlertReadHandler).Methods("POST")

	// Monitor endpoints
	api.HandleFunc("/monitor/status", s.monitorStatusHandler).Methods("GET")
	api.HandleFunc("/monitor/run", s.triggerRunHandler).Methods("POST")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server",
		"address", s.server.Addr,
		"metrics_enabled", s.config.EnableMetrics)

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			errChan <- err
		}
	}()

	// Surface immediate binding errors to the caller
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Middleware

// loggingMiddleware logs HTTP requests
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remote_ip", r.RemoteAddr)
	})
}

// corsMiddleware handles CORS
func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// detailedHealthHandler returns per-component health
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	storageHealthy := s.storage.Ping() == nil

	status := "healthy"
	code := http.StatusOK
	if !storageHealthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"components": map[string]interface{}{
			"storage":        storageHealthy,
			"monitor_active": s.runner != nil && s.runner.InFlight(),
		},
	}

	s.writeJSON(w, code, health)
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	storageStats, err := s.storage.GetStorageStats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve storage stats", err)
		return
	}

	stats := map[string]interface{}{
		"timestamp": time.Now(),
		"storage":   storageStats,
	}
	if s.notification != nil {
		stats["notifications"] = s.notification.GetStats()
	}
	if s.metricsManager != nil {
		stats["uptime"] = s.metricsManager.Uptime().String()
	}
	if s.runner != nil {
		stats["last_run"] = s.runner.LastRun()
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// Watchlist Handlers

// listWatchlistHandler lists all watchlist items with their owners
func (s *HTTPServer) listWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListWatchlistItems(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve watchlist", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// addWatchlistHandler adds a watchlist item
func (s *HTTPServer) addWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string  `json:"user_id"`
		Address      string  `json:"address"`
		Chain        string  `json:"chain"`
		TokenAddress *string `json:"token_address,omitempty"`
		Label        string  `json:"label"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	chain, ok := models.ParseChain(req.Chain)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "Unsupported chain", fmt.Errorf("unknown chain %q", req.Chain))
		return
	}

	now := time.Now().UTC()
	item := &models.WatchlistItem{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Address:      models.NormalizeAddress(req.Address, chain),
		Chain:        chain,
		TokenAddress: req.TokenAddress,
		Label:        req.Label,
		LastChecked:  now,
		CreatedAt:    now,
	}
	if err := item.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid watchlist item", err)
		return
	}

	if err := s.storage.AddWatchlistItem(r.Context(), item); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to add watchlist item", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Watchlist item added successfully",
		"id":      item.ID,
	})
}

// Alert Handlers

// listAlertsHandler lists recent alerts for a user
func (s *HTTPServer) listAlertsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userID"]

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	alerts, err := s.storage.ListAlertsByUser(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve alerts", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"limit":  limit,
		"total":  len(alerts),
	})
}

// markAlertReadHandler marks an alert as read
func (s *HTTPServer) markAlertReadHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	alertID := vars["id"]

	if err := s.storage.MarkAlertRead(r.Context(), alertID); err != nil {
		if utils.IsCode(err, utils.ErrCodeNotFound) {
			s.writeError(w, http.StatusNotFound, "Alert not found", err)
		} else {
			s.writeError(w, http.StatusInternalServerError, "Failed to mark alert read", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Alert marked as read",
		"alert_id": alertID,
	})
}

// Monitor Handlers

// monitorStatusHandler reports the last run and whether one is in flight
func (s *HTTPServer) monitorStatusHandler(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Monitor is not attached", nil)
		return
	}

	status := map[string]interface{}{
		"in_flight": s.runner.InFlight(),
		"last_run":  s.runner.LastRun(),
		"timestamp": time.Now(),
	}

	s.writeJSON(w, http.StatusOK, status)
}

// triggerRunHandler starts a run outside the regular schedule
func (s *HTTPServer) triggerRunHandler(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Monitor is not attached", nil)
		return
	}
	if s.runner.InFlight() {
		s.writeError(w, http.StatusConflict, "A run is already in progress", nil)
		return
	}

	result, err := s.runner.TriggerRun(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Monitoring run failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Monitoring run complete",
		"result":  result,
	})
}

// Utility Methods

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		s.logger.Error("HTTP error",
			"status", status,
			"message", message,
			"error", err)
	}

	s.writeJSON(w, status, errorResponse)
}
