package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/domain/transaction"
)

const selectTransactionPattern = `SELECT\s+id, payer_id, payee_id, consultation_id, type, amount, gas_fee,`

func testTransaction(t *testing.T) *transaction.Transaction {
	t.Helper()
	txn, err := transaction.New(transaction.Spec{
		PayerID:     "patient-1",
		PayeeID:     "doctor-1",
		Type:        shared.TransactionTypeVideoConsultation,
		Amount:      decimal.RequireFromString("0.0558"),
		GasFee:      decimal.RequireFromString("0.0008"),
		PlatformFee: decimal.RequireFromString("0.005"),
		Network:     shared.NetworkEthereum,
		Currency:    shared.CurrencyETH,
		FromAddress: "0x1111111111111111111111111111111111111111",
		ToAddress:   "0x2222222222222222222222222222222222222222",
	})
	require.NoError(t, err)
	return txn
}

func transactionRow(txn *transaction.Transaction) *pgxmock.Rows {
	columns := []string{
		"id", "payer_id", "payee_id", "consultation_id", "type", "amount", "gas_fee",
		"platform_fee", "net_amount", "network", "currency", "from_address", "to_address",
		"transaction_hash", "block_number", "gas_used", "confirmations", "status",
		"failure_reason", "refund_transaction_id", "exchange_rate", "version",
		"created_at", "completed_at",
	}
	return pgxmock.NewRows(columns).AddRow(
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
		[]byte(nil),
		txn.Version,
		txn.CreatedAt,
		txn.CompletedAt,
	)
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	txn := testTransaction(t)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(
				txn.ID, nullable(txn.PayerID), nullable(txn.PayeeID), nullable(txn.ConsultationID),
				txn.Type, txn.Amount, txn.GasFee, txn.PlatformFee, txn.NetAmount,
				txn.Network, txn.Currency, txn.FromAddress, txn.ToAddress,
				txn.TransactionHash, txn.BlockNumber, txn.GasUsed, txn.Confirmations,
				txn.Status, nullable(txn.FailureReason), txn.RefundTransactionID,
				[]byte(nil), txn.Version, txn.CreatedAt, txn.CompletedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, txn)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(
				txn.ID, nullable(txn.PayerID), nullable(txn.PayeeID), nullable(txn.ConsultationID),
				txn.Type, txn.Amount, txn.GasFee, txn.PlatformFee, txn.NetAmount,
				txn.Network, txn.Currency, txn.FromAddress, txn.ToAddress,
				txn.TransactionHash, txn.BlockNumber, txn.GasUsed, txn.Confirmations,
				txn.Status, nullable(txn.FailureReason), txn.RefundTransactionID,
				[]byte(nil), txn.Version, txn.CreatedAt, txn.CompletedAt,
			).
			WillReturnError(dbErr)

		err := repo.Create(ctx, txn)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create transaction")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	txn := testTransaction(t)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(selectTransactionPattern).WithArgs(txn.ID).WillReturnRows(transactionRow(txn))

		got, err := repo.GetByID(ctx, txn.ID)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, txn.ID, got.ID)
		assert.True(t, got.Amount.Equal(txn.Amount))
		assert.Equal(t, shared.TransactionStatusPending, got.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(selectTransactionPattern).WithArgs(txn.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, txn.ID)
		assert.Error(t, err)
		assert.Nil(t, got)
		var notFoundErr transaction.ErrTransactionNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, txn.ID, notFoundErr.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByHash(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}
	hash := "0xabc123"

	t.Run("no transaction carries the hash", func(t *testing.T) {
		mock.ExpectQuery(selectTransactionPattern).WithArgs(hash).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByHash(ctx, hash)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found", func(t *testing.T) {
		txn := testTransaction(t)
		mock.ExpectQuery(selectTransactionPattern).WithArgs(hash).WillReturnRows(transactionRow(txn))

		got, err := repo.GetByHash(ctx, hash)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, txn.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_CompletePending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	completed := func(t *testing.T) *transaction.Transaction {
		txn := testTransaction(t)
		blockNumber := int64(1000)
		gasUsed := int64(21000)
		require.NoError(t, txn.Complete("0xdeadbeef", &blockNumber, &gasUsed, 14))
		return txn
	}

	updatePattern := `UPDATE transactions\s+SET transaction_hash = \$1`

	t.Run("success", func(t *testing.T) {
		txn := completed(t)
		mock.ExpectExec(updatePattern).
			WithArgs(
				txn.TransactionHash, txn.BlockNumber, txn.GasUsed, txn.Confirmations,
				shared.TransactionStatusCompleted, txn.CompletedAt,
				txn.ID, shared.TransactionStatusPending,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.CompletePending(ctx, txn)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate hash", func(t *testing.T) {
		txn := completed(t)
		mock.ExpectExec(updatePattern).
			WithArgs(
				txn.TransactionHash, txn.BlockNumber, txn.GasUsed, txn.Confirmations,
				shared.TransactionStatusCompleted, txn.CompletedAt,
				txn.ID, shared.TransactionStatusPending,
			).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		err := repo.CompletePending(ctx, txn)
		assert.Error(t, err)
		var dupErr transaction.ErrDuplicateHash
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "0xdeadbeef", dupErr.Hash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already transitioned", func(t *testing.T) {
		txn := completed(t)
		mock.ExpectExec(updatePattern).
			WithArgs(
				txn.TransactionHash, txn.BlockNumber, txn.GasUsed, txn.Confirmations,
				shared.TransactionStatusCompleted, txn.CompletedAt,
				txn.ID, shared.TransactionStatusPending,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		// The follow-up read reports the row's current status
		current := testTransaction(t)
		current.ID = txn.ID
		current.Status = shared.TransactionStatusCompleted
		mock.ExpectQuery(selectTransactionPattern).WithArgs(txn.ID).WillReturnRows(transactionRow(current))

		err := repo.CompletePending(ctx, txn)
		assert.Error(t, err)
		var transitionErr shared.InvalidStateTransitionError
		assert.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, shared.TransactionStatusCompleted, transitionErr.From)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_MarkRefunded(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	txn := testTransaction(t)
	blockNumber := int64(1000)
	require.NoError(t, txn.Complete("0xoriginal", &blockNumber, nil, 14))
	refundID := uuid.New()
	require.NoError(t, txn.MarkRefunded(refundID))

	updatePattern := `UPDATE transactions\s+SET status = \$1, refund_transaction_id = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(updatePattern).
			WithArgs(shared.TransactionStatusRefunded, txn.RefundTransactionID, txn.ID, shared.TransactionStatusCompleted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkRefunded(ctx, txn)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second refund loses the race", func(t *testing.T) {
		mock.ExpectExec(updatePattern).
			WithArgs(shared.TransactionStatusRefunded, txn.RefundTransactionID, txn.ID, shared.TransactionStatusCompleted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		current := testTransaction(t)
		current.ID = txn.ID
		current.Status = shared.TransactionStatusRefunded
		mock.ExpectQuery(selectTransactionPattern).WithArgs(txn.ID).WillReturnRows(transactionRow(current))

		err := repo.MarkRefunded(ctx, txn)
		assert.Error(t, err)
		var transitionErr shared.InvalidStateTransitionError
		assert.ErrorAs(t, err, &transitionErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ReserveRefund(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	txn := testTransaction(t)
	blockNumber := int64(1000)
	require.NoError(t, txn.Complete("0xoriginal", &blockNumber, nil, 14))
	refundID := uuid.New()
	require.NoError(t, txn.ReserveRefund(refundID))

	updatePattern := `UPDATE transactions\s+SET refund_transaction_id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(updatePattern).
			WithArgs(txn.RefundTransactionID, txn.ID, shared.TransactionStatusCompleted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ReserveRefund(ctx, txn)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second reservation loses the race", func(t *testing.T) {
		mock.ExpectExec(updatePattern).
			WithArgs(txn.RefundTransactionID, txn.ID, shared.TransactionStatusCompleted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		current := testTransaction(t)
		current.ID = txn.ID
		current.Status = shared.TransactionStatusCompleted
		winner := uuid.New()
		current.RefundTransactionID = &winner
		mock.ExpectQuery(selectTransactionPattern).WithArgs(txn.ID).WillReturnRows(transactionRow(current))

		err := repo.ReserveRefund(ctx, txn)
		assert.Error(t, err)
		var transitionErr shared.InvalidStateTransitionError
		assert.ErrorAs(t, err, &transitionErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ReleaseRefund(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	id := uuid.New()
	refundID := uuid.New()

	updatePattern := `UPDATE transactions\s+SET refund_transaction_id = NULL`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(updatePattern).
			WithArgs(id, shared.TransactionStatusCompleted, refundID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ReleaseRefund(ctx, id, refundID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_LockMatchingPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: logger}

	filter := transaction.MatchFilter{
		FromAddress: "0x1111111111111111111111111111111111111111",
		Amount:      decimal.RequireFromString("0.0558"),
		Currency:    shared.CurrencyETH,
		Network:     shared.NetworkEthereum,
	}

	t.Run("match found", func(t *testing.T) {
		txn := testTransaction(t)
		mock.ExpectQuery(selectTransactionPattern).
			WithArgs(filter.FromAddress, filter.Amount, filter.Currency, filter.Network, shared.TransactionStatusPending).
			WillReturnRows(transactionRow(txn))

		got, err := repo.LockMatchingPending(ctx, filter)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, txn.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no match", func(t *testing.T) {
		mock.ExpectQuery(selectTransactionPattern).
			WithArgs(filter.FromAddress, filter.Amount, filter.Currency, filter.Network, shared.TransactionStatusPending).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.LockMatchingPending(ctx, filter)
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
