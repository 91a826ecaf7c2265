package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/domain/shared"
)

// erc20DecimalsSelector is the 4-byte selector of decimals()
var erc20DecimalsSelector = []byte{0x31, 0x3c, 0xe5, 0x67}

type networkConn struct {
	client  *ethclient.Client
	chainID *big.Int
}

// EthClient implements Client over go-ethereum's RPC client, one dialed
// connection per configured network
type EthClient struct {
	conns  map[shared.Network]*networkConn
	logger *slog.Logger
}

// NewEthClient dials every configured network and caches each chain ID for
// sender recovery
func NewEthClient(ctx context.Context, logger *slog.Logger, cfg *config.ChainConfig) (*EthClient, error) {
	conns := make(map[shared.Network]*networkConn, len(cfg.Networks))
	for name, networkCfg := range cfg.Networks {
		client, err := ethclient.DialContext(ctx, networkCfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s RPC: %w", name, err)
		}

		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read chain ID for %s: %w", name, err)
		}

		conns[shared.Network(name)] = &networkConn{client: client, chainID: chainID}
		logger.Info("Connected to chain RPC", "network", name, "chain_id", chainID.String())
	}

	return &EthClient{conns: conns, logger: logger}, nil
}

// GetTransaction fetches a transaction and recovers its sender. Returns
// (nil, nil) when the hash is unknown to the network.
func (c *EthClient) GetTransaction(ctx context.Context, network shared.Network, hash string) (*TxInfo, error) {
	conn, err := c.conn(network)
	if err != nil {
		return nil, err
	}

	tx, _, err := conn.client.TransactionByHash(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, shared.ChainUnavailableError{Network: string(network), Err: err}
	}

	sender, err := types.Sender(types.LatestSignerForChainID(conn.chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender for %s: %w", hash, err)
	}

	info := &TxInfo{
		Hash:  tx.Hash().Hex(),
		From:  normalizeHex(sender.Hex()),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	if to := tx.To(); to != nil {
		addr := normalizeHex(to.Hex())
		info.To = &addr
	}
	return info, nil
}

// GetReceipt fetches a transaction receipt. Returns (nil, nil) when no
// receipt exists yet.
func (c *EthClient) GetReceipt(ctx context.Context, network shared.Network, hash string) (*ReceiptInfo, error) {
	conn, err := c.conn(network)
	if err != nil {
		return nil, err
	}

	receipt, err := conn.client.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, shared.ChainUnavailableError{Network: string(network), Err: err}
	}

	info := &ReceiptInfo{
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
		BlockNumber: receipt.BlockNumber.Int64(),
		GasUsed:     int64(receipt.GasUsed),
	}
	for _, log := range receipt.Logs {
		entry := LogEntry{
			Address: normalizeHex(log.Address.Hex()),
			Data:    log.Data,
		}
		for _, topic := range log.Topics {
			entry.Topics = append(entry.Topics, topic.Bytes())
		}
		info.Logs = append(info.Logs, entry)
	}
	return info, nil
}

// GetBlockNumber returns the current block height of the network
func (c *EthClient) GetBlockNumber(ctx context.Context, network shared.Network) (int64, error) {
	conn, err := c.conn(network)
	if err != nil {
		return 0, err
	}

	height, err := conn.client.BlockNumber(ctx)
	if err != nil {
		return 0, shared.ChainUnavailableError{Network: string(network), Err: err}
	}
	return int64(height), nil
}

// GetTokenDecimals calls decimals() on a token contract
func (c *EthClient) GetTokenDecimals(ctx context.Context, network shared.Network, contractAddress string) (int32, error) {
	conn, err := c.conn(network)
	if err != nil {
		return 0, err
	}

	contract := common.HexToAddress(contractAddress)
	result, err := conn.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: erc20DecimalsSelector,
	}, nil)
	if err != nil {
		return 0, shared.ChainUnavailableError{Network: string(network), Err: err}
	}
	if len(result) == 0 {
		return 0, fmt.Errorf("empty decimals() response from %s on %s", contractAddress, network)
	}

	decimals := new(big.Int).SetBytes(result)
	if !decimals.IsInt64() || decimals.Int64() > 77 {
		return 0, fmt.Errorf("implausible decimals() response from %s on %s", contractAddress, network)
	}
	return int32(decimals.Int64()), nil
}

// Close releases all RPC connections
func (c *EthClient) Close() {
	for _, conn := range c.conns {
		conn.client.Close()
	}
}

func (c *EthClient) conn(network shared.Network) (*networkConn, error) {
	conn, ok := c.conns[network]
	if !ok {
		return nil, shared.UnsupportedNetworkError{Network: string(network)}
	}
	return conn, nil
}

func normalizeHex(s string) string {
	return strings.ToLower(s)
}
