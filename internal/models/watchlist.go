// File: internal/models/watchlist.go
package models

import (
	"strings"
	"time"

	"github.com/blockpulse/watchlist-monitor/pkg/utils"
	"github.com/ethereum/go-ethereum/common"
)

// WatchlistItem is one watched (address, chain, optional token) tuple.
// LastChecked is the checkpoint: only transactions strictly newer than it
// produce alerts, and the poller is the only writer that advances it.
type WatchlistItem struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Address      string    `json:"address"`
	Chain        Chain     `json:"chain"`
	TokenAddress *string   `json:"token_address,omitempty"`
	Label        string    `json:"label"`
	LastChecked  time.Time `json:"last_checked"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is the subset of account state the monitor reads
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	IsPremium        bool       `json:"is_premium"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	TelegramUsername string     `json:"telegram_username,omitempty"`
	TelegramChatID   int64      `json:"telegram_chat_id,omitempty"`
}

// WatchlistWithUser pairs a watchlist item with its owning user
type WatchlistWithUser struct {
	Item WatchlistItem `json:"item"`
	User User          `json:"user"`
}

// TrialExpired reports whether the user's trial window has lapsed at now
func (u *User) TrialExpired(now time.Time) bool {
	if u.IsPremium || u.TrialEndsAt == nil {
		return false
	}
	return !u.TrialEndsAt.After(now)
}

// TelegramLinked reports whether notifications can be delivered to the user
func (u *User) TelegramLinked() bool {
	return u.TelegramChatID != 0
}

// WatchesToken reports whether alerts are restricted to a single token
func (w *WatchlistItem) WatchesToken() bool {
	return w.TokenAddress != nil && *w.TokenAddress != ""
}

// MatchesToken compares a token contract address against the watched token,
// case-insensitively
func (w *WatchlistItem) MatchesToken(contractAddress string) bool {
	if !w.WatchesToken() {
		return true
	}
	return strings.EqualFold(*w.TokenAddress, contractAddress)
}

// Validate checks the watchlist item fields
func (w *WatchlistItem) Validate() error {
	if w.UserID == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Watchlist item user ID is required", "")
	}
	if !w.Chain.Valid() {
		return utils.NewAppError(utils.ErrCodeValidation, "Unsupported chain", string(w.Chain))
	}
	if !ValidAddress(w.Address, w.Chain) {
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid address for chain", w.Address)
	}
	if w.WatchesToken() && w.Chain.IsEVM() && !common.IsHexAddress(*w.TokenAddress) {
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid token address", *w.TokenAddress)
	}
	return nil
}

// ValidAddress checks an account address against the chain's format. EVM
// addresses must carry the 0x prefix; the indexer and explorer links both
// expect it, and IsHexAddress alone would let prefix-less hex through.
func ValidAddress(address string, chain Chain) bool {
	if chain == ChainSolana {
		return validSolanaAddress(address)
	}
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// base58 alphabet used by Solana addresses (no 0, O, I, l)
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func validSolanaAddress(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}
	for _, r := range address {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

// NormalizeAddress lowercases EVM addresses for storage and comparison.
// Solana addresses are case-sensitive and stored as-is.
func NormalizeAddress(address string, chain Chain) string {
	if chain == ChainSolana {
		return address
	}
	return strings.ToLower(address)
}
