package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
)

// HistoryKind classifies an earnings history entry
type HistoryKind string

const (
	HistoryKindAccrual    HistoryKind = "accrual"
	HistoryKindWithdrawal HistoryKind = "withdrawal"
	HistoryKindReversal   HistoryKind = "reversal"
)

// HistoryEntry is one append-only record of an earnings mutation. History is
// never rewritten; reversals append rather than remove.
type HistoryEntry struct {
	ID            uuid.UUID       `json:"id" bson:"_id"`
	PayeeID       string          `json:"payee_id" bson:"payee_id"`
	TransactionID uuid.UUID       `json:"transaction_id" bson:"transaction_id"`
	Kind          HistoryKind     `json:"kind" bson:"kind"`
	Amount        decimal.Decimal `json:"amount" bson:"amount"`
	PlatformFee   decimal.Decimal `json:"platform_fee" bson:"platform_fee"`
	Currency      shared.Currency `json:"currency" bson:"currency"`
	Timestamp     time.Time       `json:"timestamp" bson:"timestamp"`
}

// NewHistoryEntry builds a history record for an earnings mutation
func NewHistoryEntry(payeeID string, transactionID uuid.UUID, kind HistoryKind, amount, platformFee decimal.Decimal, currency shared.Currency) *HistoryEntry {
	return &HistoryEntry{
		ID:            uuid.New(),
		PayeeID:       payeeID,
		TransactionID: transactionID,
		Kind:          kind,
		Amount:        amount,
		PlatformFee:   platformFee,
		Currency:      currency,
		Timestamp:     time.Now().UTC(),
	}
}

// HistoryRepository manages the append-only earnings history
type HistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*HistoryEntry, error)
	CountByPayee(ctx context.Context, payeeID string) (int64, error)
}
