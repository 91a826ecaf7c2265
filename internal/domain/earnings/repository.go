package earnings

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines earnings aggregate persistence. Mutations must be
// serialized per payee; LockForUpdate inside a database transaction is the
// intended write path.
type Repository interface {
	GetByPayee(ctx context.Context, payeeID string) (*Earnings, error)

	// LockForUpdate acquires a row lock on the payee's aggregate, creating an
	// empty aggregate first if none exists yet
	LockForUpdate(ctx context.Context, payeeID string) (*Earnings, error)

	// Update persists the aggregate with an optimistic version check
	Update(ctx context.Context, e *Earnings) error

	Create(ctx context.Context, e *Earnings) error
	WithTx(tx pgx.Tx) Repository
}

// ErrEarningsNotFound indicates no aggregate exists for the payee yet
type ErrEarningsNotFound struct {
	PayeeID string
}

func (e ErrEarningsNotFound) Error() string {
	return "earnings not found for payee: " + e.PayeeID
}

// Is matches any ErrEarningsNotFound when the target carries no payee
func (e ErrEarningsNotFound) Is(target error) bool {
	t, ok := target.(ErrEarningsNotFound)
	if !ok {
		return false
	}
	if t.PayeeID == "" {
		return true
	}
	return e.PayeeID == t.PayeeID
}

// ErrConcurrentModification indicates an optimistic lock failure on the
// aggregate
type ErrConcurrentModification struct {
	PayeeID string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for payee earnings: " + e.PayeeID
}
