// File: internal/notification/webhook.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// WebhookChannel POSTs alerts as JSON to a configured endpoint
type WebhookChannel struct {
	url        string
	httpClient *http.Client
}

// WebhookPayload defines the webhook payload structure
type WebhookPayload struct {
	Source    string                   `json:"source"`
	Type      string                   `json:"type"`
	Timestamp time.Time                `json:"timestamp"`
	UserID    string                   `json:"user_id"`
	Alert     *models.TransactionAlert `json:"alert"`
}

// NewWebhookChannel creates a webhook channel
func NewWebhookChannel(url string, timeout time.Duration) *WebhookChannel {
	return &WebhookChannel{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Name returns the channel identifier
func (w *WebhookChannel) Name() string {
	return "webhook"
}

// Send POSTs the alert to the webhook endpoint
func (w *WebhookChannel) Send(ctx context.Context, user *models.User, alert *models.TransactionAlert) error {
	payload := WebhookPayload{
		Source:    "watchlist-monitor",
		Type:      "transaction_alert",
		Timestamp: time.Now(),
		UserID:    user.ID,
		Alert:     alert,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeNotification, "Failed to marshal webhook payload", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeNotification, "Failed to build webhook request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeNotification, "Webhook request failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return utils.NewAppError(utils.ErrCodeNotification,
			fmt.Sprintf("Webhook returned status %d", resp.StatusCode), string(snippet))
	}

	return nil
}
