// File: internal/fetcher/evm.go
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// nativeDecimals is the wei exponent shared by all supported EVM chains
const nativeDecimals = 18

// EVMConfig holds EVM indexer client configuration
type EVMConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// EVMFetcher fetches wallet transaction history from a Moralis-style REST indexer
type EVMFetcher struct {
	config     *EVMConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// evmHistoryResponse is the wire shape of the wallet history endpoint
type evmHistoryResponse struct {
	Result []evmTransaction `json:"result"`
}

type evmTransaction struct {
	Hash           string        `json:"hash"`
	FromAddress    string        `json:"from_address"`
	ToAddress      string        `json:"to_address"`
	Value          string        `json:"value"` // wei
	BlockTimestamp string        `json:"block_timestamp"`
	ERC20Transfers []evmTransfer `json:"erc20_transfers"`
}

type evmTransfer struct {
	Address        string `json:"address"` // token contract
	TokenSymbol    string `json:"token_symbol"`
	ValueFormatted string `json:"value_formatted"`
}

// NewEVMFetcher creates a new EVM indexer client
func NewEVMFetcher(config *EVMConfig) *EVMFetcher {
	return &EVMFetcher{
		config:     config,
		httpClient: newHTTPClient(config.RequestTimeout),
		logger:     utils.GetLogger(),
	}
}

// FetchTransactions returns the most recent transactions for an address
func (f *EVMFetcher) FetchTransactions(ctx context.Context, address string, chain models.Chain, limit int) ([]models.Transaction, error) {
	endpoint := fmt.Sprintf("%s/wallets/%s/history", f.config.BaseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeFetch, "Failed to build indexer request", err.Error())
	}

	q := req.URL.Query()
	q.Set("chain", chain.HexChainID())
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	if f.config.APIKey != "" {
		req.Header.Set("X-API-Key", f.config.APIKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeFetch, "Indexer request failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, utils.NewAppError(utils.ErrCodeFetch,
			fmt.Sprintf("Indexer returned status %d", resp.StatusCode), string(body))
	}

	var payload evmHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeFetch, "Failed to decode indexer response", err.Error())
	}

	transactions := make([]models.Transaction, 0, len(payload.Result))
	for _, raw := range payload.Result {
		tx, err := raw.normalize()
		if err != nil {
			f.logger.Warn("Skipping malformed transaction", "hash", raw.Hash, "error", err)
			continue
		}
		transactions = append(transactions, tx)
	}

	f.logger.Debug("Fetched wallet transactions",
		"address", address, "chain", chain, "count", len(transactions))

	return transactions, nil
}

func (raw *evmTransaction) normalize() (models.Transaction, error) {
	ts, err := time.Parse(time.RFC3339, raw.BlockTimestamp)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("bad block timestamp %q: %w", raw.BlockTimestamp, err)
	}

	value, err := FormatWei(raw.Value, nativeDecimals)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("bad value %q: %w", raw.Value, err)
	}

	tx := models.Transaction{
		Hash:      raw.Hash,
		From:      raw.FromAddress,
		To:        raw.ToAddress,
		Value:     value,
		Timestamp: ts,
	}

	for _, transfer := range raw.ERC20Transfers {
		amount, err := decimal.NewFromString(transfer.ValueFormatted)
		if err != nil {
			amount = decimal.Zero
		}
		tx.TokenTransfers = append(tx.TokenTransfers, models.TokenTransfer{
			ContractAddress: transfer.Address,
			Symbol:          transfer.TokenSymbol,
			Amount:          amount,
		})
	}

	return tx, nil
}

// FormatWei converts a raw integer amount into native units with six decimal
// places, matching the formatting the alert consumers expect
func FormatWei(raw string, decimals int32) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Shift(-decimals).Round(6), nil
}
