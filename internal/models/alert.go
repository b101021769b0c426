// File: internal/models/alert.go
package models

import (
	"time"

	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// AlertType classifies a transaction relative to the watched address
type AlertType string

const (
	AlertSent     AlertType = "sent"
	AlertReceived AlertType = "received"
	AlertContract AlertType = "contract"
)

// TransactionAlert is one surfaced transaction. Alerts are write-once:
// uniqueness on (user_id, transaction_hash) is enforced by storage, and a
// violation means the transaction was already surfaced to this user.
type TransactionAlert struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	WalletAddress   string    `json:"wallet_address"`
	Chain           Chain     `json:"chain"`
	TransactionHash string    `json:"transaction_hash"`
	Type            AlertType `json:"type"`
	FromAddress     string    `json:"from_address"`
	ToAddress       string    `json:"to_address"`
	Value           string    `json:"value"`
	TokenAddress    *string   `json:"token_address,omitempty"`
	TokenSymbol     *string   `json:"token_symbol,omitempty"`
	TokenAmount     *string   `json:"token_amount,omitempty"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks required alert fields
func (a *TransactionAlert) Validate() error {
	if a.UserID == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Alert user ID is required", "")
	}
	if a.TransactionHash == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Alert transaction hash is required", "")
	}
	if !a.Chain.Valid() {
		return utils.NewAppError(utils.ErrCodeValidation, "Unsupported chain", string(a.Chain))
	}
	switch a.Type {
	case AlertSent, AlertReceived, AlertContract:
	default:
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid alert type", string(a.Type))
	}
	return nil
}
