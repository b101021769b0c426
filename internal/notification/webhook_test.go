// File: internal/notification/webhook_test.go
package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSend(t *testing.T) {
	var received WebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, 5*time.Second)
	assert.Equal(t, "webhook", ch.Name())

	alert := baseAlert()
	err := ch.Send(context.Background(), linkedUser(), alert)
	require.NoError(t, err)

	assert.Equal(t, "watchlist-monitor", received.Source)
	assert.Equal(t, "transaction_alert", received.Type)
	assert.Equal(t, "user-1", received.UserID)
	require.NotNil(t, received.Alert)
	assert.Equal(t, alert.TransactionHash, received.Alert.TransactionHash)
}

func TestWebhookSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, 5*time.Second)
	err := ch.Send(context.Background(), linkedUser(), baseAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
