// File: internal/models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenTransfer is one token movement inside a fetched transaction
type TokenTransfer struct {
	ContractAddress string          `json:"contract_address"`
	Symbol          string          `json:"symbol"`
	Amount          decimal.Decimal `json:"amount"`
}

// Transaction is the normalized shape returned by the chain fetchers
type Transaction struct {
	Hash           string          `json:"hash"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	Value          decimal.Decimal `json:"value"` // native units, not wei
	Timestamp      time.Time       `json:"timestamp"`
	TokenTransfers []TokenTransfer `json:"token_transfers,omitempty"`
}

// HasTokenTransfer reports whether any transfer touches the given token
// contract, case-insensitively
func (t *Transaction) HasTokenTransfer(item *WatchlistItem) bool {
	for _, transfer := range t.TokenTransfers {
		if item.MatchesToken(transfer.ContractAddress) {
			return true
		}
	}
	return false
}

// FirstTokenTransfer returns the first transfer entry, or nil
func (t *Transaction) FirstTokenTransfer() *TokenTransfer {
	if len(t.TokenTransfers) == 0 {
		return nil
	}
	return &t.TokenTransfers[0]
}
