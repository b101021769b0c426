// File: internal/fetcher/solana.go
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// SolanaConfig holds Solana transfer API client configuration
type SolanaConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// SolanaFetcher fetches token transfers from a Solana gateway API. Each
// transfer is surfaced as one transaction carrying a single token transfer.
type SolanaFetcher struct {
	config     *SolanaConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

type solanaTransferResponse struct {
	Result []solanaTransfer `json:"result"`
}

type solanaTransfer struct {
	Signature      string `json:"signature"`
	FromAddress    string `json:"from_address"`
	ToAddress      string `json:"to_address"`
	TokenAddress   string `json:"token_address"`
	TokenSymbol    string `json:"token_symbol"`
	Amount         string `json:"amount"`
	BlockTimestamp string `json:"block_timestamp"`
}

// NewSolanaFetcher creates a new Solana transfer API client
func NewSolanaFetcher(config *SolanaConfig) *SolanaFetcher {
	return &SolanaFetcher{
		config:     config,
		httpClient: newHTTPClient(config.RequestTimeout),
		logger:     utils.GetLogger(),
	}
}

// FetchTransactions returns recent token transfers for a Solana account
func (f *SolanaFetcher) FetchTransactions(ctx context.Context, address string, chain models.Chain, limit int) ([]models.Transaction, error) {
	endpoint := fmt.Sprintf("%s/account/mainnet/%s/transfers", f.config.BaseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeFetch, "Failed to build Solana request", err.Error())
	}

	q := req.URL.Query()
	q.Set("limit", fmt.Sprintf("%d", limit))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	if f.config.APIKey != "" {
		req.Header.Set("X-API-Key", f.config.APIKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeFetch, "Solana request failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, utils.NewAppError(utils.ErrCodeFetch,
			fmt.Sprintf("Solana API returned status %d", resp.StatusCode), string(body))
	}

	var payload solanaTransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeFetch, "Failed to decode Solana response", err.Error())
	}

	transactions := make([]models.Transaction, 0, len(payload.Result))
	for _, raw := range payload.Result {
		ts, err := time.Parse(time.RFC3339, raw.BlockTimestamp)
		if err != nil {
			f.logger.Warn("Skipping transfer with bad timestamp",
				"signature", raw.Signature, "timestamp", raw.BlockTimestamp)
			continue
		}

		amount, err := decimal.NewFromString(raw.Amount)
		if err != nil {
			amount = decimal.Zero
		}

		transactions = append(transactions, models.Transaction{
			Hash:      raw.Signature,
			From:      raw.FromAddress,
			To:        raw.ToAddress,
			Value:     amount,
			Timestamp: ts,
			TokenTransfers: []models.TokenTransfer{{
				ContractAddress: raw.TokenAddress,
				Symbol:          raw.TokenSymbol,
				Amount:          amount,
			}},
		})
	}

	f.logger.Debug("Fetched Solana transfers", "address", address, "count", len(transactions))

	return transactions, nil
}
