// Package postgres provides PostgreSQL implementations of the domain
// repositories. State transitions are expressed as guarded UPDATE statements
// so concurrent transitions on the same row resolve to exactly one winner.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/domain/transaction"
	"github.com/medichain-payments/internal/platform/persistence"
)

const pgUniqueViolation = "23505"

const transactionColumns = `
	id, payer_id, payee_id, consultation_id, type, amount, gas_fee,
	platform_fee, net_amount, network, currency, from_address, to_address,
	transaction_hash, block_number, gas_used, confirmations, status,
	failure_reason, refund_transaction_id, exchange_rate, version,
	created_at, completed_at
`

// TransactionRepository implements transaction.Repository for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a database transaction so state
// transitions and earnings updates commit atomically
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create persists a new pending transaction
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	rateJSON, err := marshalRate(txn.ExchangeRate)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange rate: %w", err)
	}

	_, err = r.querier.Exec(ctx, query,
		txn.ID,
		nullable(txn.PayerID),
		nullable(txn.PayeeID),
		nullable(txn.ConsultationID),
		txn.Type,
		txn.Amount,
		txn.GasFee,
		txn.PlatformFee,
		txn.NetAmount,
		txn.Network,
		txn.Currency,
		txn.FromAddress,
		txn.ToAddress,
		txn.TransactionHash,
		txn.BlockNumber,
		txn.GasUsed,
		txn.Confirmations,
		txn.Status,
		nullable(txn.FailureReason),
		txn.RefundTransactionID,
		rateJSON,
		txn.Version,
		txn.CreatedAt,
		txn.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := r.scanRow(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetByHash retrieves a transaction by its on-chain hash. Returns (nil, nil)
// when no transaction carries the hash.
func (r *TransactionRepository) GetByHash(ctx context.Context, hash string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_hash = $1`

	txn, err := r.scanRow(r.querier.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by hash", "hash", hash, "error", err)
		return nil, fmt.Errorf("failed to get transaction by hash: %w", err)
	}
	return txn, nil
}

// ListByPayer retrieves paginated transactions for a payer, newest first
func (r *TransactionRepository) ListByPayer(ctx context.Context, payerID string, limit, offset int) ([]*transaction.Transaction, int64, error) {
	return r.list(ctx, "payer_id", payerID, limit, offset)
}

// ListByPayee retrieves paginated transactions for a payee, newest first
func (r *TransactionRepository) ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*transaction.Transaction, int64, error) {
	return r.list(ctx, "payee_id", payeeID, limit, offset)
}

func (r *TransactionRepository) list(ctx context.Context, column, value string, limit, offset int) ([]*transaction.Transaction, int64, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + column + ` = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, value, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "column", column, "error", err)
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		txn, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transactions: %w", err)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + column + ` = $1`
	if err := r.querier.QueryRow(ctx, countQuery, value).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return transactions, total, nil
}

// CompletePending performs the CAS pending -> completed transition. The
// unique index on transaction_hash rejects a hash already attributed to
// another record.
func (r *TransactionRepository) CompletePending(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET transaction_hash = $1, block_number = $2, gas_used = $3,
		    confirmations = $4, status = $5, completed_at = $6,
		    version = version + 1
		WHERE id = $7 AND status = $8
	`

	result, err := r.querier.Exec(ctx, query,
		txn.TransactionHash,
		txn.BlockNumber,
		txn.GasUsed,
		txn.Confirmations,
		shared.TransactionStatusCompleted,
		txn.CompletedAt,
		txn.ID,
		shared.TransactionStatusPending,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			hash := ""
			if txn.TransactionHash != nil {
				hash = *txn.TransactionHash
			}
			return transaction.ErrDuplicateHash{Hash: hash}
		}
		r.logger.Error("Failed to complete transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to complete transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.transitionConflict(ctx, txn.ID, shared.TransactionStatusCompleted)
	}
	return nil
}

// FailPending performs the CAS pending -> failed transition
func (r *TransactionRepository) FailPending(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2, version = version + 1
		WHERE id = $3 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query,
		shared.TransactionStatusFailed,
		txn.FailureReason,
		txn.ID,
		shared.TransactionStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to fail transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to fail transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.transitionConflict(ctx, txn.ID, shared.TransactionStatusFailed)
	}
	return nil
}

// ReserveRefund stamps the companion refund ID on a still-completed original.
// The IS NULL guard makes concurrent refund attempts resolve to exactly one
// holder before any custody transfer fires.
func (r *TransactionRepository) ReserveRefund(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET refund_transaction_id = $1, version = version + 1
		WHERE id = $2 AND status = $3 AND refund_transaction_id IS NULL
	`

	result, err := r.querier.Exec(ctx, query,
		txn.RefundTransactionID,
		txn.ID,
		shared.TransactionStatusCompleted,
	)
	if err != nil {
		r.logger.Error("Failed to reserve refund", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to reserve refund: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.transitionConflict(ctx, txn.ID, shared.TransactionStatusRefunded)
	}
	return nil
}

// ReleaseRefund clears a reservation whose custody transfer failed. Guarded
// by the refund ID so a reservation taken over by another refund is never
// cleared.
func (r *TransactionRepository) ReleaseRefund(ctx context.Context, id, refundID uuid.UUID) error {
	query := `
		UPDATE transactions
		SET refund_transaction_id = NULL, version = version + 1
		WHERE id = $1 AND status = $2 AND refund_transaction_id = $3
	`

	result, err := r.querier.Exec(ctx, query, id, shared.TransactionStatusCompleted, refundID)
	if err != nil {
		r.logger.Error("Failed to release refund reservation", "transaction_id", id.String(), "error", err)
		return fmt.Errorf("failed to release refund reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.transitionConflict(ctx, id, shared.TransactionStatusCompleted)
	}
	return nil
}

// MarkRefunded performs the CAS completed -> refunded transition. The guard
// on refund_transaction_id accepts the row's own reservation and rejects one
// held by another refund, so a second attempt loses the race even if it read
// the original before the first refund committed.
func (r *TransactionRepository) MarkRefunded(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, refund_transaction_id = $2, version = version + 1
		WHERE id = $3 AND status = $4
		  AND (refund_transaction_id IS NULL OR refund_transaction_id = $2)
	`

	result, err := r.querier.Exec(ctx, query,
		shared.TransactionStatusRefunded,
		txn.RefundTransactionID,
		txn.ID,
		shared.TransactionStatusCompleted,
	)
	if err != nil {
		r.logger.Error("Failed to mark transaction refunded", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to mark transaction refunded: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.transitionConflict(ctx, txn.ID, shared.TransactionStatusRefunded)
	}
	return nil
}

// LockMatchingPending locks the newest pending transaction matching a
// verified on-chain payment. Must run inside a database transaction.
func (r *TransactionRepository) LockMatchingPending(ctx context.Context, filter transaction.MatchFilter) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_address = $1 AND amount = $2 AND currency = $3
		  AND network = $4 AND status = $5
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	txn, err := r.scanRow(r.querier.QueryRow(ctx, query,
		filter.FromAddress,
		filter.Amount,
		filter.Currency,
		filter.Network,
		shared.TransactionStatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{}
		}
		r.logger.Error("Failed to lock matching pending transaction", "from_address", filter.FromAddress, "error", err)
		return nil, fmt.Errorf("failed to lock matching pending transaction: %w", err)
	}
	return txn, nil
}

// transitionConflict distinguishes a missing row from an illegal transition
// after a guarded update touched nothing
func (r *TransactionRepository) transitionConflict(ctx context.Context, id uuid.UUID, target shared.TransactionStatus) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return shared.InvalidStateTransitionError{
		TransactionID: id.String(),
		From:          current.Status,
		To:            target,
	}
}

func (r *TransactionRepository) scanRow(row pgx.Row) (*transaction.Transaction, error) {
	var (
		txn            transaction.Transaction
		payerID        *string
		payeeID        *string
		consultationID *string
		failureReason  *string
		rateJSON       []byte
		completedAt    *time.Time
	)

	err := row.Scan(
		&txn.ID,
		&payerID,
		&payeeID,
		&consultationID,
		&txn.Type,
		&txn.Amount,
		&txn.GasFee,
		&txn.PlatformFee,
		&txn.NetAmount,
		&txn.Network,
		&txn.Currency,
		&txn.FromAddress,
		&txn.ToAddress,
		&txn.TransactionHash,
		&txn.BlockNumber,
		&txn.GasUsed,
		&txn.Confirmations,
		&txn.Status,
		&failureReason,
		&txn.RefundTransactionID,
		&rateJSON,
		&txn.Version,
		&txn.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.PayerID = deref(payerID)
	txn.PayeeID = deref(payeeID)
	txn.ConsultationID = deref(consultationID)
	txn.FailureReason = deref(failureReason)
	txn.CompletedAt = completedAt

	if len(rateJSON) > 0 {
		var rate shared.ExchangeRate
		if err := json.Unmarshal(rateJSON, &rate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exchange rate: %w", err)
		}
		txn.ExchangeRate = &rate
	}

	return &txn, nil
}

func marshalRate(rate *shared.ExchangeRate) ([]byte, error) {
	if rate == nil {
		return nil, nil
	}
	return json.Marshal(rate)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
