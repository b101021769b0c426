// File: internal/models/chain.go
package models

import "strings"

// Chain identifies a supported blockchain network
type Chain string

const (
	ChainEthereum  Chain = "ethereum"
	ChainBSC       Chain = "bsc"
	ChainPolygon   Chain = "polygon"
	ChainBase      Chain = "base"
	ChainOptimism  Chain = "optimism"
	ChainArbitrum  Chain = "arbitrum"
	ChainAvalanche Chain = "avalanche"
	ChainFantom    Chain = "fantom"
	ChainSolana    Chain = "solana"
)

// ChainInfo describes display metadata for a chain
type ChainInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Explorer string `json:"explorer"`
}

// chainIDs maps chain names to EVM hex chain IDs used by the indexer API
var chainIDs = map[Chain]string{
	ChainEthereum:  "0x1",
	ChainBSC:       "0x38",
	ChainPolygon:   "0x89",
	ChainBase:      "0x2105",
	ChainOptimism:  "0xa",
	ChainArbitrum:  "0xa4b1",
	ChainAvalanche: "0xa86a",
	ChainFantom:    "0xfa",
}

var chainInfo = map[Chain]ChainInfo{
	ChainEthereum:  {Name: "Ethereum", Symbol: "ETH", Explorer: "https://etherscan.io"},
	ChainBSC:       {Name: "BSC", Symbol: "BNB", Explorer: "https://bscscan.com"},
	ChainPolygon:   {Name: "Polygon", Symbol: "MATIC", Explorer: "https://polygonscan.com"},
	ChainBase:      {Name: "Base", Symbol: "ETH", Explorer: "https://basescan.org"},
	ChainOptimism:  {Name: "Optimism", Symbol: "ETH", Explorer: "https://optimistic.etherscan.io"},
	ChainArbitrum:  {Name: "Arbitrum", Symbol: "ETH", Explorer: "https://arbiscan.io"},
	ChainAvalanche: {Name: "Avalanche", Symbol: "AVAX", Explorer: "https://snowtrace.io"},
	ChainFantom:    {Name: "Fantom", Symbol: "FTM", Explorer: "https://ftmscan.com"},
	ChainSolana:    {Name: "Solana", Symbol: "SOL", Explorer: "https://solscan.io"},
}

// ParseChain normalizes a chain name, accepting common aliases
func ParseChain(name string) (Chain, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ethereum", "eth":
		return ChainEthereum, true
	case "bsc", "bnb", "binance":
		return ChainBSC, true
	case "polygon", "matic":
		return ChainPolygon, true
	case "base", "basechain":
		return ChainBase, true
	case "optimism", "op":
		return ChainOptimism, true
	case "arbitrum", "arb":
		return ChainArbitrum, true
	case "avalanche", "avax":
		return ChainAvalanche, true
	case "fantom", "ftm":
		return ChainFantom, true
	case "solana", "sol":
		return ChainSolana, true
	}
	return "", false
}

// Valid reports whether the chain is supported
func (c Chain) Valid() bool {
	_, ok := chainInfo[c]
	return ok
}

// IsEVM reports whether the chain uses the EVM address and indexer family
func (c Chain) IsEVM() bool {
	_, ok := chainIDs[c]
	return ok
}

// HexChainID returns the EVM hex chain ID understood by the indexer API.
// Returns "0x1" for unknown chains, matching the upstream client behavior.
func (c Chain) HexChainID() string {
	if id, ok := chainIDs[c]; ok {
		return id
	}
	return "0x1"
}

// Info returns display metadata for the chain
func (c Chain) Info() ChainInfo {
	if info, ok := chainInfo[c]; ok {
		return info
	}
	return ChainInfo{Name: "Unknown", Symbol: "ETH", Explorer: "https://etherscan.io"}
}

// TxURL returns the explorer link for a transaction hash
func (c Chain) TxURL(hash string) string {
	return c.Info().Explorer + "/tx/" + hash
}

func (c Chain) String() string {
	return string(c)
}
