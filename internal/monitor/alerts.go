// File: internal/monitor/alerts.go
package monitor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blockpulse/watchlist-monitor/internal/models"
)

// DeriveAlertType classifies a transaction relative to the watched address.
// Address casing varies between indexers, so comparisons are case-insensitive.
func DeriveAlertType(tx *models.Transaction, watchedAddress string) models.AlertType {
	if strings.EqualFold(tx.From, watchedAddress) {
		return models.AlertSent
	}
	if strings.EqualFold(tx.To, watchedAddress) {
		return models.AlertReceived
	}
	return models.AlertContract
}

// BuildAlert converts a fetched transaction into a persistable alert for the
// item's owner. Token fields come from the first token transfer when present.
func BuildAlert(entry *models.WatchlistWithUser, tx *models.Transaction, now time.Time) *models.TransactionAlert {
	alert := &models.TransactionAlert{
		ID:              uuid.New().String(),
		UserID:          entry.User.ID,
		WalletAddress:   entry.Item.Address,
		Chain:           entry.Item.Chain,
		TransactionHash: tx.Hash,
		Type:            DeriveAlertType(tx, entry.Item.Address),
		FromAddress:     tx.From,
		ToAddress:       tx.To,
		Value:           tx.Value.String(),
		CreatedAt:       now,
	}

	if transfer := tx.FirstTokenTransfer(); transfer != nil {
		contract := transfer.ContractAddress
		symbol := transfer.Symbol
		amount := transfer.Amount.String()
		alert.TokenAddress = &contract
		alert.TokenSymbol = &symbol
		alert.TokenAmount = &amount
	}

	return alert
}
