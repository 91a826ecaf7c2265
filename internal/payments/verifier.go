package payments

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/platform/chain"
)

// transferEventTopic is keccak256("Transfer(address,address,uint256)"), the
// first topic of every ERC-20 Transfer log
var transferEventTopic, _ = hex.DecodeString("ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// tokenAmountTolerance bounds the acceptable absolute difference between the
// claimed amount and the decoded on-chain token amount. Token decimals rarely
// line up exactly with decimal user input, so a fixed 1e-6 slack is allowed.
var tokenAmountTolerance = decimal.New(1, -6)

// Claim is an asserted on-chain payment awaiting verification
type Claim struct {
	Hash        string
	FromAddress string
	Amount      decimal.Decimal
	Network     shared.Network
	Currency    shared.Currency
}

// VerifiedTransfer carries the on-chain proof extracted during verification
type VerifiedTransfer struct {
	BlockNumber   int64
	GasUsed       int64
	Confirmations int64
}

// Verifier checks payment claims against chain state. Every check fails
// closed: absence of a transaction, a receipt, or a decodable Transfer event
// means not verified, never verified-by-default.
type Verifier struct {
	client        chain.Client
	registry      *chain.TokenRegistry
	confirmations map[shared.Network]int64
	logger        *slog.Logger
}

// NewVerifier builds a verifier over the chain client, using the per-network
// confirmation requirements from configuration
func NewVerifier(logger *slog.Logger, client chain.Client, registry *chain.TokenRegistry, networks map[string]config.NetworkConfig) *Verifier {
	confirmations := make(map[shared.Network]int64, len(networks))
	for name, network := range networks {
		confirmations[shared.Network(name)] = network.RequiredConfirmations
	}
	return &Verifier{
		client:        client,
		registry:      registry,
		confirmations: confirmations,
		logger:        logger,
	}
}

// VerifyPayment checks a claim against chain state. It returns
// VerificationFailedError when the proof does not support the claim,
// ChainUnavailableError when the chain cannot be read, and a VerifiedTransfer
// when every check passes. A verification failure is a final answer for the
// observed chain state; callers may retry later as the chain advances.
func (v *Verifier) VerifyPayment(ctx context.Context, claim Claim) (*VerifiedTransfer, error) {
	if err := shared.ValidatePair(claim.Network, claim.Currency); err != nil {
		return nil, err
	}

	tx, err := v.client.GetTransaction(ctx, claim.Network, claim.Hash)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, shared.VerificationFailedError{Hash: claim.Hash, Reason: "transaction not found on " + string(claim.Network)}
	}

	if !strings.EqualFold(tx.From, claim.FromAddress) {
		return nil, shared.VerificationFailedError{Hash: claim.Hash, Reason: "sender does not match the claimed address"}
	}

	receipt, err := v.client.GetReceipt(ctx, claim.Network, claim.Hash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.VerificationFailedError{Hash: claim.Hash, Reason: "transaction not yet mined"}
	}
	if !receipt.Success {
		return nil, shared.VerificationFailedError{Hash: claim.Hash, Reason: "transaction reverted"}
	}

	head, err := v.client.GetBlockNumber(ctx, claim.Network)
	if err != nil {
		return nil, err
	}
	confirmations := head - receipt.BlockNumber + 1
	if confirmations < v.confirmations[claim.Network] {
		return nil, shared.VerificationFailedError{Hash: claim.Hash, Reason: "insufficient confirmations"}
	}

	if claim.Currency.IsNativeOn(claim.Network) {
		if err := v.verifyNative(claim, tx); err != nil {
			return nil, err
		}
	} else {
		if err := v.verifyToken(ctx, claim, tx, receipt); err != nil {
			return nil, err
		}
	}

	return &VerifiedTransfer{
		BlockNumber:   receipt.BlockNumber,
		GasUsed:       receipt.GasUsed,
		Confirmations: confirmations,
	}, nil
}

// verifyNative requires the transferred value in wei to equal the claimed
// amount exactly. Native transfers carry the amount in the transaction itself.
func (v *Verifier) verifyNative(claim Claim, tx *chain.TxInfo) error {
	if tx.Value == nil {
		return shared.VerificationFailedError{Hash: claim.Hash, Reason: "transaction carries no value"}
	}
	transferred := decimal.NewFromBigInt(tx.Value, -18)
	if !transferred.Equal(claim.Amount) {
		return shared.VerificationFailedError{Hash: claim.Hash, Reason: "transferred value does not match the claimed amount"}
	}
	return nil
}

// verifyToken requires the transaction to target the registered token
// contract and its receipt to carry a Transfer event from the claimed sender
// whose decoded amount matches the claim within the fixed tolerance
func (v *Verifier) verifyToken(ctx context.Context, claim Claim, tx *chain.TxInfo, receipt *chain.ReceiptInfo) error {
	contract, ok := v.registry.ContractFor(claim.Network, claim.Currency)
	if !ok {
		return shared.VerificationFailedError{Hash: claim.Hash, Reason: "no token contract registered for " + string(claim.Currency) + " on " + string(claim.Network)}
	}
	if tx.To == nil || !strings.EqualFold(*tx.To, contract) {
		return shared.VerificationFailedError{Hash: claim.Hash, Reason: "transaction does not target the token contract"}
	}

	transferred, ok := v.transferAmount(receipt, contract, claim.FromAddress)
	if !ok {
		return shared.VerificationFailedError{Hash: claim.Hash, Reason: "no matching transfer event in receipt"}
	}

	decimals, err := v.client.GetTokenDecimals(ctx, claim.Network, contract)
	if err != nil {
		return err
	}

	normalized := decimal.NewFromBigInt(transferred, -decimals)
	if normalized.Sub(claim.Amount).Abs().GreaterThan(tokenAmountTolerance) {
		return shared.VerificationFailedError{Hash: claim.Hash, Reason: "transferred token amount does not match the claimed amount"}
	}
	return nil
}

// transferAmount scans the receipt for a Transfer event emitted by the token
// contract with the claimed sender as the indexed from address. Malformed
// logs are skipped; a receipt with no decodable match verifies nothing.
func (v *Verifier) transferAmount(receipt *chain.ReceiptInfo, contract, fromAddress string) (*big.Int, bool) {
	from := strings.ToLower(fromAddress)
	for _, log := range receipt.Logs {
		if !strings.EqualFold(log.Address, contract) {
			continue
		}
		if len(log.Topics) < 3 || !bytes.Equal(log.Topics[0], transferEventTopic) {
			continue
		}
		if topicAddress(log.Topics[1]) != from {
			continue
		}
		if len(log.Data) == 0 {
			continue
		}
		return new(big.Int).SetBytes(log.Data), true
	}
	return nil, false
}

// topicAddress extracts the lowercase hex address from a 32-byte indexed
// address topic
func topicAddress(topic []byte) string {
	if len(topic) != 32 {
		return ""
	}
	return "0x" + hex.EncodeToString(topic[12:])
}
