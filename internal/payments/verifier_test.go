package payments

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/platform/chain"
)

type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) GetTransaction(ctx context.Context, network shared.Network, hash string) (*chain.TxInfo, error) {
	args := m.Called(ctx, network, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.TxInfo), args.Error(1)
}

func (m *MockChainClient) GetReceipt(ctx context.Context, network shared.Network, hash string) (*chain.ReceiptInfo, error) {
	args := m.Called(ctx, network, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.ReceiptInfo), args.Error(1)
}

func (m *MockChainClient) GetBlockNumber(ctx context.Context, network shared.Network) (int64, error) {
	args := m.Called(ctx, network)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChainClient) GetTokenDecimals(ctx context.Context, network shared.Network, contractAddress string) (int32, error) {
	args := m.Called(ctx, network, contractAddress)
	return args.Get(0).(int32), args.Error(1)
}

const (
	testHash     = "0x7a3f9c5b1d8e2f4a6c0b9d8e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a"
	testSender   = "0x9fc3da866e7df3a1c57fa8b7273cd83ebd1117f9"
	usdcContract = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
)

func testNetworks() map[string]config.NetworkConfig {
	return map[string]config.NetworkConfig{
		"ethereum": {
			RPCURL:                "http://localhost:8545",
			RequiredConfirmations: 12,
			TokenContracts:        map[string]string{"USDC": usdcContract},
		},
	}
}

func newTestVerifier(client chain.Client) *Verifier {
	registry := chain.NewTokenRegistry(map[string]map[string]string{
		"ethereum": {"USDC": usdcContract},
	})
	return NewVerifier(testLogger(), client, registry, testNetworks())
}

// addressTopic builds the 32-byte indexed topic for an address
func addressTopic(addr string) []byte {
	raw, _ := hex.DecodeString(addr[2:])
	topic := make([]byte, 32)
	copy(topic[12:], raw)
	return topic
}

// amountData encodes a token amount as the 32-byte event data word
func amountData(amount *big.Int) []byte {
	data := make([]byte, 32)
	amount.FillBytes(data)
	return data
}

func nativeClaim(amount string) Claim {
	return Claim{
		Hash:        testHash,
		FromAddress: testSender,
		Amount:      decimal.RequireFromString(amount),
		Network:     shared.NetworkEthereum,
		Currency:    shared.CurrencyETH,
	}
}

func tokenClaim(amount string) Claim {
	claim := nativeClaim(amount)
	claim.Currency = shared.CurrencyUSDC
	return claim
}

func confirmedReceipt(logs []chain.LogEntry) *chain.ReceiptInfo {
	return &chain.ReceiptInfo{
		Success:     true,
		BlockNumber: 100,
		GasUsed:     21000,
		Logs:        logs,
	}
}

func TestVerifier_NativePayment(t *testing.T) {
	// 0.05 ETH in wei
	value, _ := new(big.Int).SetString("50000000000000000", 10)

	tests := []struct {
		name       string
		claim      Claim
		tx         *chain.TxInfo
		receipt    *chain.ReceiptInfo
		head       int64
		wantErr    error
		wantConfs  int64
		wantBlock  int64
	}{
		{
			name:      "exact amount verifies",
			claim:     nativeClaim("0.05"),
			tx:        &chain.TxInfo{Hash: testHash, From: testSender, Value: value},
			receipt:   confirmedReceipt(nil),
			head:      111,
			wantConfs: 12,
			wantBlock: 100,
		},
		{
			name:    "amount mismatch fails",
			claim:   nativeClaim("0.06"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, Value: value},
			receipt: confirmedReceipt(nil),
			head:    111,
			wantErr: shared.VerificationFailedError{},
		},
		{
			name:    "sender mismatch fails",
			claim:   nativeClaim("0.05"),
			tx:      &chain.TxInfo{Hash: testHash, From: "0x1111111111111111111111111111111111111111", Value: value},
			receipt: confirmedReceipt(nil),
			head:    111,
			wantErr: shared.VerificationFailedError{},
		},
		{
			name:    "missing transaction fails closed",
			claim:   nativeClaim("0.05"),
			tx:      nil,
			wantErr: shared.VerificationFailedError{},
		},
		{
			name:    "reverted receipt fails",
			claim:   nativeClaim("0.05"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, Value: value},
			receipt: &chain.ReceiptInfo{Success: false, BlockNumber: 100, GasUsed: 21000},
			head:    111,
			wantErr: shared.VerificationFailedError{},
		},
		{
			name:    "missing receipt fails closed",
			claim:   nativeClaim("0.05"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, Value: value},
			receipt: nil,
			wantErr: shared.VerificationFailedError{},
		},
		{
			name:    "insufficient confirmations fails",
			claim:   nativeClaim("0.05"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, Value: value},
			receipt: confirmedReceipt(nil),
			head:    105,
			wantErr: shared.VerificationFailedError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockChainClient{}
			if tt.tx == nil {
				client.On("GetTransaction", mock.Anything, shared.NetworkEthereum, testHash).Return(nil, nil)
			} else {
				client.On("GetTransaction", mock.Anything, shared.NetworkEthereum, testHash).Return(tt.tx, nil)
			}
			if tt.receipt == nil {
				client.On("GetReceipt", mock.Anything, shared.NetworkEthereum, testHash).Return(nil, nil).Maybe()
			} else {
				client.On("GetReceipt", mock.Anything, shared.NetworkEthereum, testHash).Return(tt.receipt, nil).Maybe()
			}
			client.On("GetBlockNumber", mock.Anything, shared.NetworkEthereum).Return(tt.head, nil).Maybe()

			verified, err := newTestVerifier(client).VerifyPayment(context.Background(), tt.claim)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, verified)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantConfs, verified.Confirmations)
			assert.Equal(t, tt.wantBlock, verified.BlockNumber)
		})
	}
}

func TestVerifier_TokenPayment(t *testing.T) {
	contract := usdcContract
	transferLog := func(amount *big.Int) chain.LogEntry {
		return chain.LogEntry{
			Address: contract,
			Topics: [][]byte{
				transferEventTopic,
				addressTopic(testSender),
				addressTopic("0x2222222222222222222222222222222222222222"),
			},
			Data: amountData(amount),
		}
	}

	tests := []struct {
		name    string
		claim   Claim
		tx      *chain.TxInfo
		logs    []chain.LogEntry
		wantErr bool
	}{
		{
			name:  "exact token amount verifies",
			claim: tokenClaim("10"),
			tx:    &chain.TxInfo{Hash: testHash, From: testSender, To: &contract},
			logs:  []chain.LogEntry{transferLog(big.NewInt(10000000))},
		},
		{
			// 9.999999 vs 10.00 differs by exactly 1e-6, within tolerance
			name:  "amount within tolerance verifies",
			claim: tokenClaim("10"),
			tx:    &chain.TxInfo{Hash: testHash, From: testSender, To: &contract},
			logs:  []chain.LogEntry{transferLog(big.NewInt(9999999))},
		},
		{
			name:    "amount beyond tolerance fails",
			claim:   tokenClaim("10"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, To: &contract},
			logs:    []chain.LogEntry{transferLog(big.NewInt(9990000))},
			wantErr: true,
		},
		{
			name:    "transaction not targeting token contract fails",
			claim:   tokenClaim("10"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, To: strPtr("0x3333333333333333333333333333333333333333")},
			logs:    []chain.LogEntry{transferLog(big.NewInt(10000000))},
			wantErr: true,
		},
		{
			name:    "receipt without transfer event fails closed",
			claim:   tokenClaim("10"),
			tx:      &chain.TxInfo{Hash: testHash, From: testSender, To: &contract},
			logs:    nil,
			wantErr: true,
		},
		{
			name:  "transfer from another sender fails",
			claim: tokenClaim("10"),
			tx:    &chain.TxInfo{Hash: testHash, From: testSender, To: &contract},
			logs: []chain.LogEntry{{
				Address: contract,
				Topics: [][]byte{
					transferEventTopic,
					addressTopic("0x4444444444444444444444444444444444444444"),
					addressTopic("0x2222222222222222222222222222222222222222"),
				},
				Data: amountData(big.NewInt(10000000)),
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockChainClient{}
			client.On("GetTransaction", mock.Anything, shared.NetworkEthereum, testHash).Return(tt.tx, nil)
			client.On("GetReceipt", mock.Anything, shared.NetworkEthereum, testHash).Return(confirmedReceipt(tt.logs), nil)
			client.On("GetBlockNumber", mock.Anything, shared.NetworkEthereum).Return(int64(120), nil)
			client.On("GetTokenDecimals", mock.Anything, shared.NetworkEthereum, contract).Return(int32(6), nil).Maybe()

			verified, err := newTestVerifier(client).VerifyPayment(context.Background(), tt.claim)

			if tt.wantErr {
				assert.ErrorIs(t, err, shared.VerificationFailedError{})
				assert.Nil(t, verified)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, verified)
		})
	}
}

func TestVerifier_RejectsIncompatiblePair(t *testing.T) {
	client := &MockChainClient{}

	claim := nativeClaim("0.05")
	claim.Currency = shared.CurrencyMATIC

	verified, err := newTestVerifier(client).VerifyPayment(context.Background(), claim)

	assert.Nil(t, verified)
	var pairErr shared.IncompatiblePairError
	assert.ErrorAs(t, err, &pairErr)
	client.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifier_PropagatesChainUnavailable(t *testing.T) {
	client := &MockChainClient{}
	client.On("GetTransaction", mock.Anything, shared.NetworkEthereum, testHash).
		Return(nil, shared.ChainUnavailableError{Network: "ethereum", Err: errors.New("connection refused")})

	verified, err := newTestVerifier(client).VerifyPayment(context.Background(), nativeClaim("0.05"))

	assert.Nil(t, verified)
	assert.ErrorIs(t, err, shared.ChainUnavailableError{})
}

func strPtr(s string) *string {
	return &s
}
