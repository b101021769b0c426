// File: internal/metrics/prometheus.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the watchlist monitor
type PrometheusMetrics struct {
	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	ItemsCheckedTotal  prometheus.Counter
	LastRunTimestamp   prometheus.Gauge

	// Alert metrics
	AlertsCreatedTotal          prometheus.Counter
	DuplicateAlertsSkippedTotal prometheus.Counter

	// Fetch metrics
	FetchErrorsTotal *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec

	// Notification metrics
	NotificationsSentTotal    *prometheus.CounterVec
	NotificationFailuresTotal *prometheus.CounterVec

	// Sweep metrics
	WatchlistItemsSweptTotal prometheus.Counter
	TrialUsersExpiredTotal   prometheus.Counter
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_runs_total",
				Help: "Total number of monitoring runs",
			},
			[]string{"status"},
		),

		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "watchlist_run_duration_seconds",
				Help:    "Time spent on a full monitoring run",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),

		ItemsCheckedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watchlist_items_checked_total",
				Help: "Total number of watchlist items checked",
			},
		),

		LastRunTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watchlist_last_run_timestamp_seconds",
				Help: "Unix timestamp of the last completed run",
			},
		),

		AlertsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watchlist_alerts_created_total",
				Help: "Total number of transaction alerts created",
			},
		),

		DuplicateAlertsSkippedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watchlist_duplicate_alerts_skipped_total",
				Help: "Total number of alerts skipped due to the uniqueness constraint",
			},
		),

		FetchErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_fetch_errors_total",
				Help: "Total number of transaction fetch errors",
			},
			[]string{"chain"},
		),

		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watchlist_fetch_duration_seconds",
				Help:    "Time spent fetching transactions per item",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chain"},
		),

		NotificationsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_notifications_sent_total",
				Help: "Total number of notifications delivered",
			},
			[]string{"channel"},
		),

		NotificationFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchlist_notification_failures_total",
				Help: "Total number of notification delivery failures",
			},
			[]string{"channel"},
		),

		WatchlistItemsSweptTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watchlist_items_swept_total",
				Help: "Total number of watchlist items removed by the trial expiry sweep",
			},
		),

		TrialUsersExpiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watchlist_trial_users_expired_total",
				Help: "Total number of users whose trial expiry triggered a sweep",
			},
		),
	}
}

// RecordRun records the outcome and duration of a monitoring run
func (p *PrometheusMetrics) RecordRun(status string, duration time.Duration) {
	p.RunsTotal.WithLabelValues(status).Inc()
	p.RunDuration.Observe(duration.Seconds())
	p.LastRunTimestamp.SetToCurrentTime()
}

// RecordFetch records a per-item fetch attempt
func (p *PrometheusMetrics) RecordFetch(chain string, duration time.Duration, err error) {
	p.FetchDuration.WithLabelValues(chain).Observe(duration.Seconds())
	if err != nil {
		p.FetchErrorsTotal.WithLabelValues(chain).Inc()
	}
}

// RecordNotification records a delivery attempt on a channel
func (p *PrometheusMetrics) RecordNotification(channel string, err error) {
	if err != nil {
		p.NotificationFailuresTotal.WithLabelValues(channel).Inc()
		return
	}
	p.NotificationsSentTotal.WithLabelValues(channel).Inc()
}

// RecordSweep records the result of a trial expiry sweep
func (p *PrometheusMetrics) RecordSweep(usersExpired int, itemsDeleted int64) {
	p.TrialUsersExpiredTotal.Add(float64(usersExpired))
	p.WatchlistItemsSweptTotal.Add(float64(itemsDeleted))
}
