// File: internal/fetcher/solana_test.go
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpulse/watchlist-monitor/internal/models"
)

const solanaTransfersFixture = `{
	"result": [
		{
			"signature": "5Sig111",
			"from_address": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
			"to_address": "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
			"token_address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			"token_symbol": "USDC",
			"amount": "42.5",
			"block_timestamp": "2026-08-30T11:00:00Z"
		},
		{
			"signature": "5Sig222",
			"from_address": "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
			"to_address": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
			"token_address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			"token_symbol": "USDC",
			"amount": "1",
			"block_timestamp": "bad"
		}
	]
}`

func TestSolanaFetchTransactions(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, solanaTransfersFixture)
	}))
	defer server.Close()

	f := NewSolanaFetcher(&SolanaConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	})

	txs, err := f.FetchTransactions(context.Background(), "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", models.ChainSolana, 10)
	require.NoError(t, err)

	assert.Equal(t, "/account/mainnet/9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM/transfers", gotPath)

	// The bad-timestamp transfer is dropped
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "5Sig111", tx.Hash)
	assert.Equal(t, "42.5", tx.Value.String())
	require.Len(t, tx.TokenTransfers, 1)
	assert.Equal(t, "USDC", tx.TokenTransfers[0].Symbol)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", tx.TokenTransfers[0].ContractAddress)
}

func TestRegistryForChain(t *testing.T) {
	evm := NewEVMFetcher(&EVMConfig{BaseURL: "http://localhost", RequestTimeout: time.Second})
	solana := NewSolanaFetcher(&SolanaConfig{BaseURL: "http://localhost", RequestTimeout: time.Second})

	registry := NewRegistry(evm, solana)

	got, err := registry.ForChain(models.ChainEthereum)
	require.NoError(t, err)
	assert.Same(t, evm, got.(*EVMFetcher))

	got, err = registry.ForChain(models.ChainSolana)
	require.NoError(t, err)
	assert.Same(t, solana, got.(*SolanaFetcher))

	_, err = registry.ForChain(models.Chain("dogecoin"))
	assert.Error(t, err, "Unknown chain has no fetcher")

	// A registry without a Solana client rejects Solana items instead of panicking
	partial := NewRegistry(evm, nil)
	_, err = partial.ForChain(models.ChainSolana)
	assert.Error(t, err)
}
