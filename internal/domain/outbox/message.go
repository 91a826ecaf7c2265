// Package outbox implements the transactional outbox for payment events.
// Events are written in the same database transaction as the ledger change
// they describe, then published to Kafka by the notifier's poller.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/domain/transaction"
)

// EventKind classifies a payment event
type EventKind string

const (
	EventPaymentCompleted    EventKind = "payment_completed"
	EventPaymentRefunded     EventKind = "payment_refunded"
	EventWithdrawalCompleted EventKind = "withdrawal_completed"
	EventWithdrawalFailed    EventKind = "withdrawal_failed"

	// EventUnattributedPayment records a verified on-chain payment that no
	// pending transaction matched. Downstream consumers alert an operator;
	// the ledger never auto-creates a transaction for it.
	EventUnattributedPayment EventKind = "unattributed_payment"
)

// PaymentEvent is the payload published for downstream notification delivery
type PaymentEvent struct {
	Kind          EventKind                `json:"kind"`
	TransactionID uuid.UUID                `json:"transaction_id"`
	PayerID       string                   `json:"payer_id,omitempty"`
	PayeeID       string                   `json:"payee_id,omitempty"`
	Type          shared.TransactionType   `json:"type,omitempty"`
	Amount        string                   `json:"amount"`
	Currency      shared.Currency          `json:"currency"`
	Network       shared.Network           `json:"network"`
	Hash          string                   `json:"hash,omitempty"`
	Status        shared.TransactionStatus `json:"status,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

// Message stores a payment event for reliable publishing
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Kind          EventKind           `json:"kind"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a payment event for a transaction into an outbox message
func NewMessage(kind EventKind, txn *transaction.Transaction) (*Message, error) {
	event := PaymentEvent{
		Kind:          kind,
		TransactionID: txn.ID,
		PayerID:       txn.PayerID,
		PayeeID:       txn.PayeeID,
		Type:          txn.Type,
		Amount:        txn.Amount.String(),
		Currency:      txn.Currency,
		Network:       txn.Network,
		Status:        txn.Status,
		OccurredAt:    time.Now().UTC(),
	}
	if txn.TransactionHash != nil {
		event.Hash = *txn.TransactionHash
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: txn.ID,
		Kind:          kind,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// NewUnattributedMessage records a verified payment that matched no pending
// transaction. There is no ledger transaction to reference, so the message
// carries a fresh correlation ID.
func NewUnattributedMessage(hash, fromAddress, amount string, currency shared.Currency, network shared.Network) (*Message, error) {
	event := PaymentEvent{
		Kind:          EventUnattributedPayment,
		TransactionID: uuid.New(),
		PayerID:       fromAddress,
		Amount:        amount,
		Currency:      currency,
		Network:       network,
		Hash:          hash,
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		Kind:          EventUnattributedPayment,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Event decodes the payment event from the payload
func (m *Message) Event() (*PaymentEvent, error) {
	var event PaymentEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}
