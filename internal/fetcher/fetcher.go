// File: internal/fetcher/fetcher.go
package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/blockpulse/watchlist-monitor/internal/models"
	"github.com/blockpulse/watchlist-monitor/pkg/utils"
)

// Fetcher retrieves recent transactions for a watched address. Implementations
// return a bounded page of the most recent activity; ordering is not
// guaranteed and callers filter by timestamp, not position.
type Fetcher interface {
	FetchTransactions(ctx context.Context, address string, chain models.Chain, limit int) ([]models.Transaction, error)
}

// Registry routes a chain to the fetcher for its chain family
type Registry struct {
	evm    Fetcher
	solana Fetcher
}

// NewRegistry creates a fetcher registry
func NewRegistry(evm, solana Fetcher) *Registry {
	return &Registry{evm: evm, solana: solana}
}

// ForChain returns the fetcher responsible for the given chain
func (r *Registry) ForChain(chain models.Chain) (Fetcher, error) {
	switch {
	case chain == models.ChainSolana:
		if r.solana == nil {
			return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Solana fetcher not configured", "")
		}
		return r.solana, nil
	case chain.IsEVM():
		if r.evm == nil {
			return nil, utils.NewAppError(utils.ErrCodeConfiguration, "EVM fetcher not configured", "")
		}
		return r.evm, nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeValidation, "No fetcher for chain", string(chain))
	}
}

// newHTTPClient builds the pooled HTTP client shared by the REST fetchers
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}
