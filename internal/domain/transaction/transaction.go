// Package transaction defines the payment transaction aggregate and its
// lifecycle rules. A transaction records exactly one money movement on one
// network in one currency, and moves pending -> completed|failed, with
// completed consultation payments eligible for a single refund.
package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
)

// Transaction represents one money movement in the ledger
type Transaction struct {
	ID                  uuid.UUID              `json:"id"`
	PayerID             string                 `json:"payer_id,omitempty"`
	PayeeID             string                 `json:"payee_id,omitempty"`
	ConsultationID      string                 `json:"consultation_id,omitempty"`
	Type                shared.TransactionType `json:"type"`
	Amount              decimal.Decimal        `json:"amount"`
	GasFee              decimal.Decimal        `json:"gas_fee"`
	PlatformFee         decimal.Decimal        `json:"platform_fee"`
	NetAmount           decimal.Decimal        `json:"net_amount"`
	Network             shared.Network         `json:"network"`
	Currency            shared.Currency        `json:"currency"`
	FromAddress         string                 `json:"from_address"`
	ToAddress           string                 `json:"to_address"`
	TransactionHash     *string                `json:"transaction_hash,omitempty"`
	BlockNumber         *int64                 `json:"block_number,omitempty"`
	GasUsed             *int64                 `json:"gas_used,omitempty"`
	Confirmations       int64                  `json:"confirmations"`
	Status              shared.TransactionStatus `json:"status"`
	FailureReason       string                 `json:"failure_reason,omitempty"`
	RefundTransactionID *uuid.UUID             `json:"refund_transaction_id,omitempty"`
	ExchangeRate        *shared.ExchangeRate   `json:"exchange_rate,omitempty"`
	Version             int                    `json:"version"`
	CreatedAt           time.Time              `json:"created_at"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
}

// Spec carries the validated inputs for creating a transaction
type Spec struct {
	PayerID        string
	PayeeID        string
	ConsultationID string
	Type           shared.TransactionType
	Amount         decimal.Decimal
	GasFee         decimal.Decimal
	PlatformFee    decimal.Decimal
	Network        shared.Network
	Currency       shared.Currency
	FromAddress    string
	ToAddress      string
	ExchangeRate   *shared.ExchangeRate
}

// New creates a pending transaction. The net amount is computed once here and
// never recomputed. Fees exceeding the gross amount are rejected rather than
// producing a negative net.
func New(spec Spec) (*Transaction, error) {
	if !spec.Type.IsValid() {
		return nil, shared.ValidationError{Field: "type", Reason: "unknown transaction type " + string(spec.Type)}
	}
	if err := shared.ValidatePair(spec.Network, spec.Currency); err != nil {
		return nil, err
	}
	if !spec.Amount.IsPositive() {
		return nil, shared.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if spec.GasFee.IsNegative() {
		return nil, shared.ValidationError{Field: "gas_fee", Reason: "must not be negative"}
	}
	if spec.PlatformFee.IsNegative() {
		return nil, shared.ValidationError{Field: "platform_fee", Reason: "must not be negative"}
	}

	netAmount := spec.Amount.Sub(spec.GasFee).Sub(spec.PlatformFee)
	if netAmount.IsNegative() {
		return nil, shared.ValidationError{Field: "amount", Reason: "fees exceed the gross amount"}
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:             uuid.New(),
		PayerID:        spec.PayerID,
		PayeeID:        spec.PayeeID,
		ConsultationID: spec.ConsultationID,
		Type:           spec.Type,
		Amount:         spec.Amount,
		GasFee:         spec.GasFee,
		PlatformFee:    spec.PlatformFee,
		NetAmount:      netAmount,
		Network:        spec.Network,
		Currency:       spec.Currency,
		FromAddress:    normalizeAddress(spec.FromAddress),
		ToAddress:      normalizeAddress(spec.ToAddress),
		Status:         shared.TransactionStatusPending,
		ExchangeRate:   spec.ExchangeRate,
		Version:        1,
		CreatedAt:      now,
	}, nil
}

// NewRefund builds the companion refund transaction for a completed original.
// Addresses are swapped and the platform fee is zero: the platform fee is
// never returned to the payer. The caller must have checked CanBeRefunded.
func NewRefund(original *Transaction, amount decimal.Decimal) (*Transaction, error) {
	if !original.CanBeRefunded() {
		return nil, shared.InvalidStateTransitionError{
			TransactionID: original.ID.String(),
			From:          original.Status,
			To:            shared.TransactionStatusRefunded,
		}
	}
	if !amount.IsPositive() {
		return nil, shared.ValidationError{Field: "amount", Reason: "refund amount must be greater than zero"}
	}
	if amount.GreaterThan(original.Amount) {
		return nil, shared.ValidationError{Field: "amount", Reason: "refund amount exceeds the original amount"}
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:             uuid.New(),
		PayerID:        original.PayerID,
		PayeeID:        original.PayeeID,
		ConsultationID: original.ConsultationID,
		Type:           shared.TransactionTypeRefund,
		Amount:         amount,
		GasFee:         decimal.Zero,
		PlatformFee:    decimal.Zero,
		NetAmount:      amount,
		Network:        original.Network,
		Currency:       original.Currency,
		FromAddress:    original.ToAddress,
		ToAddress:      original.FromAddress,
		Status:         shared.TransactionStatusPending,
		ExchangeRate:   original.ExchangeRate,
		Version:        1,
		CreatedAt:      now,
	}, nil
}

// Complete flips a pending transaction to completed, recording the on-chain
// proof. Only legal from pending.
func (t *Transaction) Complete(hash string, blockNumber, gasUsed *int64, confirmations int64) error {
	if t.Status != shared.TransactionStatusPending {
		return shared.InvalidStateTransitionError{
			TransactionID: t.ID.String(),
			From:          t.Status,
			To:            shared.TransactionStatusCompleted,
		}
	}

	now := time.Now().UTC()
	t.TransactionHash = &hash
	t.BlockNumber = blockNumber
	t.GasUsed = gasUsed
	t.Confirmations = confirmations
	t.Status = shared.TransactionStatusCompleted
	t.CompletedAt = &now
	t.Version++
	return nil
}

// Fail marks a pending transaction as terminally failed
func (t *Transaction) Fail(reason string) error {
	if t.Status != shared.TransactionStatusPending {
		return shared.InvalidStateTransitionError{
			TransactionID: t.ID.String(),
			From:          t.Status,
			To:            shared.TransactionStatusFailed,
		}
	}

	t.Status = shared.TransactionStatusFailed
	t.FailureReason = reason
	t.Version++
	return nil
}

// ReserveRefund stamps the companion refund on a completed original before
// any money moves. Persisting this reservation is what serializes concurrent
// refund attempts: only one companion can hold it.
func (t *Transaction) ReserveRefund(refundID uuid.UUID) error {
	if !t.CanBeRefunded() {
		return shared.InvalidStateTransitionError{
			TransactionID: t.ID.String(),
			From:          t.Status,
			To:            shared.TransactionStatusRefunded,
		}
	}

	t.RefundTransactionID = &refundID
	t.Version++
	return nil
}

// ReleaseRefund clears a reservation whose custody transfer failed, making
// the original refundable again. A reservation held by a different refund is
// left untouched.
func (t *Transaction) ReleaseRefund(refundID uuid.UUID) {
	if t.Status != shared.TransactionStatusCompleted {
		return
	}
	if t.RefundTransactionID == nil || *t.RefundTransactionID != refundID {
		return
	}
	t.RefundTransactionID = nil
	t.Version++
}

// MarkRefunded records that a completed transaction has been refunded by the
// given companion refund transaction. The original is marked, never deleted.
// A reservation held by the same companion is accepted; one held by another
// refund rejects the transition.
func (t *Transaction) MarkRefunded(refundID uuid.UUID) error {
	reservedByOther := t.RefundTransactionID != nil && *t.RefundTransactionID != refundID
	if t.Status != shared.TransactionStatusCompleted || !t.Type.IsRefundable() || reservedByOther {
		return shared.InvalidStateTransitionError{
			TransactionID: t.ID.String(),
			From:          t.Status,
			To:            shared.TransactionStatusRefunded,
		}
	}

	t.Status = shared.TransactionStatusRefunded
	t.RefundTransactionID = &refundID
	t.Version++
	return nil
}

// CanBeRefunded reports whether the transaction is completed, of a refundable
// type, and not already refunded
func (t *Transaction) CanBeRefunded() bool {
	return t.Status == shared.TransactionStatusCompleted &&
		t.Type.IsRefundable() &&
		t.RefundTransactionID == nil
}

// RefundableAmount is the amount returned to the payer when no explicit
// refund amount is requested: the net amount plus the gas estimate. The
// platform fee stays with the platform.
func (t *Transaction) RefundableAmount() decimal.Decimal {
	return t.Amount.Sub(t.PlatformFee)
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
