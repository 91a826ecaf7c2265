package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
)

// MatchFilter identifies the pending transaction a verified on-chain payment
// should be attributed to
type MatchFilter struct {
	FromAddress string
	Amount      decimal.Decimal
	Currency    shared.Currency
	Network     shared.Network
}

// Repository defines transaction persistence operations. State transitions are
// compare-and-swap updates guarded by the current status so concurrent
// transitions resolve to exactly one winner.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByHash(ctx context.Context, hash string) (*Transaction, error)
	ListByPayer(ctx context.Context, payerID string, limit, offset int) ([]*Transaction, int64, error)
	ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*Transaction, int64, error)

	// CompletePending performs a CAS pending->completed update. Returns
	// InvalidStateTransitionError if the row is no longer pending.
	CompletePending(ctx context.Context, txn *Transaction) error

	// FailPending performs a CAS pending->failed update
	FailPending(ctx context.Context, txn *Transaction) error

	// ReserveRefund performs a CAS stamping the companion refund ID on a
	// still-completed original before any money moves. Returns
	// InvalidStateTransitionError when the row is no longer completed or
	// another refund already holds the reservation.
	ReserveRefund(ctx context.Context, txn *Transaction) error

	// ReleaseRefund clears a reservation after its custody transfer failed
	ReleaseRefund(ctx context.Context, id, refundID uuid.UUID) error

	// MarkRefunded performs a CAS completed->refunded update referencing the
	// companion refund transaction
	MarkRefunded(ctx context.Context, txn *Transaction) error

	// LockMatchingPending locks and returns the most recent pending
	// transaction matching the filter, or ErrTransactionNotFound when no row
	// matches. Must be called inside a database transaction.
	LockMatchingPending(ctx context.Context, filter MatchFilter) (*Transaction, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries no ID
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateHash indicates an on-chain hash already attributed to another
// transaction. One on-chain event can settle at most one record.
type ErrDuplicateHash struct {
	Hash string
}

func (e ErrDuplicateHash) Error() string {
	return "transaction hash already recorded: " + e.Hash
}

// Is matches any ErrDuplicateHash when the target carries no hash
func (e ErrDuplicateHash) Is(target error) bool {
	t, ok := target.(ErrDuplicateHash)
	if !ok {
		return false
	}
	if t.Hash == "" {
		return true
	}
	return e.Hash == t.Hash
}
