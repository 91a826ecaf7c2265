package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medichain-payments/internal/domain/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("returns on first success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, testLogger(), 3, time.Millisecond, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient chain errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, testLogger(), 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return shared.ChainUnavailableError{Network: "ethereum", Err: errors.New("connection refused")}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		chainErr := shared.ChainUnavailableError{Network: "ethereum", Err: errors.New("timeout")}
		err := WithRetry(ctx, testLogger(), 3, time.Millisecond, func() error {
			calls++
			return chainErr
		})
		assert.Error(t, err)
		assert.ErrorIs(t, err, shared.ChainUnavailableError{})
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry verification outcomes", func(t *testing.T) {
		calls := 0
		finalErr := shared.VerificationFailedError{Hash: "0xdeadbeef", Reason: "sender mismatch"}
		err := WithRetry(ctx, testLogger(), 3, time.Millisecond, func() error {
			calls++
			return finalErr
		})
		assert.ErrorIs(t, err, finalErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := WithRetry(cancelCtx, testLogger(), 3, time.Minute, func() error {
			calls++
			return shared.ChainUnavailableError{Network: "ethereum", Err: errors.New("timeout")}
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestTokenRegistry_ContractFor(t *testing.T) {
	registry := NewTokenRegistry(map[string]map[string]string{
		"ethereum": {
			"USDC": "0xA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48",
			"USDT": "",
		},
		"polygon": {
			"USDC": "0x2791bca1f2de4661ed88a30c99a7a9449aa84174",
		},
	})

	t.Run("resolves and lowercases configured contracts", func(t *testing.T) {
		address, ok := registry.ContractFor(shared.NetworkEthereum, shared.CurrencyUSDC)
		assert.True(t, ok)
		assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", address)
	})

	t.Run("empty addresses are skipped", func(t *testing.T) {
		_, ok := registry.ContractFor(shared.NetworkEthereum, shared.CurrencyUSDT)
		assert.False(t, ok)
	})

	t.Run("unknown network", func(t *testing.T) {
		_, ok := registry.ContractFor(shared.Network("solana"), shared.CurrencyUSDC)
		assert.False(t, ok)
	})
}
