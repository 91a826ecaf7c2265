package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/platform/persistence"
)

const earningsColumns = `
	payee_id, currency, total_earnings, available_balance, pending_balance,
	withdrawn_amount, platform_fees_deducted, last_withdrawal_at, version,
	created_at, updated_at
`

// EarningsRepository implements earnings.Repository for PostgreSQL
type EarningsRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEarningsRepository creates a new PostgreSQL earnings repository
func NewEarningsRepository(logger *slog.Logger, db *persistence.PostgresDB) earnings.Repository {
	return &EarningsRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a database transaction
func (r *EarningsRepository) WithTx(tx pgx.Tx) earnings.Repository {
	return &EarningsRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create persists a new empty earnings aggregate
func (r *EarningsRepository) Create(ctx context.Context, e *earnings.Earnings) error {
	query := `
		INSERT INTO earnings (` + earningsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		e.PayeeID,
		e.Currency,
		e.TotalEarnings,
		e.AvailableBalance,
		e.PendingBalance,
		e.WithdrawnAmount,
		e.PlatformFeesDeducted,
		e.LastWithdrawalAt,
		e.Version,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create earnings", "payee_id", e.PayeeID, "error", err)
		return fmt.Errorf("failed to create earnings: %w", err)
	}

	return nil
}

// GetByPayee retrieves the earnings aggregate for a payee
func (r *EarningsRepository) GetByPayee(ctx context.Context, payeeID string) (*earnings.Earnings, error) {
	query := `SELECT ` + earningsColumns + ` FROM earnings WHERE payee_id = $1`

	e, err := r.scanRow(r.querier.QueryRow(ctx, query, payeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, earnings.ErrEarningsNotFound{PayeeID: payeeID}
		}
		r.logger.Error("Failed to get earnings", "payee_id", payeeID, "error", err)
		return nil, fmt.Errorf("failed to get earnings: %w", err)
	}
	return e, nil
}

// LockForUpdate acquires a row lock on the payee's aggregate, inserting an
// empty aggregate first when none exists. The insert uses ON CONFLICT DO
// NOTHING so two concurrent first accruals race safely; both then block on
// the row lock. Must run inside a database transaction.
func (r *EarningsRepository) LockForUpdate(ctx context.Context, payeeID string) (*earnings.Earnings, error) {
	fresh := earnings.New(payeeID, "")
	insert := `
		INSERT INTO earnings (` + earningsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (payee_id) DO NOTHING
	`
	_, err := r.querier.Exec(ctx, insert,
		fresh.PayeeID,
		fresh.Currency,
		fresh.TotalEarnings,
		fresh.AvailableBalance,
		fresh.PendingBalance,
		fresh.WithdrawnAmount,
		fresh.PlatformFeesDeducted,
		fresh.LastWithdrawalAt,
		fresh.Version,
		fresh.CreatedAt,
		fresh.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to ensure earnings row", "payee_id", payeeID, "error", err)
		return nil, fmt.Errorf("failed to ensure earnings row: %w", err)
	}

	query := `SELECT ` + earningsColumns + ` FROM earnings WHERE payee_id = $1 FOR UPDATE`
	e, err := r.scanRow(r.querier.QueryRow(ctx, query, payeeID))
	if err != nil {
		r.logger.Error("Failed to lock earnings for update", "payee_id", payeeID, "error", err)
		return nil, fmt.Errorf("failed to lock earnings for update: %w", err)
	}
	return e, nil
}

// Update persists the aggregate with an optimistic version check
func (r *EarningsRepository) Update(ctx context.Context, e *earnings.Earnings) error {
	query := `
		UPDATE earnings
		SET currency = $1, total_earnings = $2, available_balance = $3,
		    pending_balance = $4, withdrawn_amount = $5,
		    platform_fees_deducted = $6, last_withdrawal_at = $7,
		    version = $8, updated_at = $9
		WHERE payee_id = $10 AND version = $11
	`

	result, err := r.querier.Exec(ctx, query,
		e.Currency,
		e.TotalEarnings,
		e.AvailableBalance,
		e.PendingBalance,
		e.WithdrawnAmount,
		e.PlatformFeesDeducted,
		e.LastWithdrawalAt,
		e.Version,
		e.UpdatedAt,
		e.PayeeID,
		e.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update earnings", "payee_id", e.PayeeID, "error", err)
		return fmt.Errorf("failed to update earnings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return earnings.ErrConcurrentModification{PayeeID: e.PayeeID}
	}
	return nil
}

func (r *EarningsRepository) scanRow(row pgx.Row) (*earnings.Earnings, error) {
	var e earnings.Earnings
	err := row.Scan(
		&e.PayeeID,
		&e.Currency,
		&e.TotalEarnings,
		&e.AvailableBalance,
		&e.PendingBalance,
		&e.WithdrawnAmount,
		&e.PlatformFeesDeducted,
		&e.LastWithdrawalAt,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
