// Package chain provides read access to the supported blockchain networks.
// The Client interface is the boundary the verifier depends on; the ethclient
// implementation lives behind it so verification logic stays testable without
// an RPC endpoint.
package chain

import (
	"context"
	"math/big"

	"github.com/medichain-payments/internal/domain/shared"
)

// TxInfo is the normalized view of an on-chain transaction
type TxInfo struct {
	Hash string
	// From is the recovered sender address, lowercase hex
	From string
	// To is nil for contract-creation transactions
	To    *string
	Value *big.Int
	Data  []byte
}

// LogEntry is one receipt log
type LogEntry struct {
	// Address is the emitting contract, lowercase hex
	Address string
	// Topics are the indexed event fields, topic 0 being the event signature
	Topics [][]byte
	Data   []byte
}

// ReceiptInfo is the normalized view of a transaction receipt
type ReceiptInfo struct {
	// Success is false for reverted transactions
	Success     bool
	BlockNumber int64
	GasUsed     int64
	Logs        []LogEntry
}

// Client reads transaction state from a blockchain network. Implementations
// return (nil, nil) when a transaction or receipt does not exist, and
// ChainUnavailableError when the RPC endpoint cannot be reached.
type Client interface {
	GetTransaction(ctx context.Context, network shared.Network, hash string) (*TxInfo, error)
	GetReceipt(ctx context.Context, network shared.Network, hash string) (*ReceiptInfo, error)
	GetBlockNumber(ctx context.Context, network shared.Network) (int64, error)
	GetTokenDecimals(ctx context.Context, network shared.Network, contractAddress string) (int32, error)
}

// TokenRegistry resolves the known token contract for a (network, currency)
// pair. Registry data comes from configuration, never from the caller.
type TokenRegistry struct {
	contracts map[shared.Network]map[shared.Currency]string
}

// NewTokenRegistry builds a registry from configured contract addresses,
// keyed by network name then currency symbol
func NewTokenRegistry(contracts map[string]map[string]string) *TokenRegistry {
	registry := make(map[shared.Network]map[shared.Currency]string, len(contracts))
	for network, byCurrency := range contracts {
		entry := make(map[shared.Currency]string, len(byCurrency))
		for currency, address := range byCurrency {
			if address == "" {
				continue
			}
			entry[shared.Currency(currency)] = normalizeHex(address)
		}
		registry[shared.Network(network)] = entry
	}
	return &TokenRegistry{contracts: registry}
}

// ContractFor returns the token contract address for the pair, lowercase hex
func (r *TokenRegistry) ContractFor(network shared.Network, currency shared.Currency) (string, bool) {
	byCurrency, ok := r.contracts[network]
	if !ok {
		return "", false
	}
	address, ok := byCurrency[currency]
	return address, ok
}
