package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/domain/transaction"
	"github.com/medichain-payments/internal/fees"
	"github.com/medichain-payments/internal/payments"
)

// PaymentService is the orchestrator boundary the HTTP handlers call into.
// Implemented by payments.Service.
type PaymentService interface {
	CreatePayment(ctx context.Context, input payments.CreatePaymentInput) (*transaction.Transaction, *fees.Quote, error)
	ConfirmPayment(ctx context.Context, input payments.ConfirmPaymentInput) (*transaction.Transaction, error)
	ProcessWithdrawal(ctx context.Context, input payments.WithdrawalInput) (*transaction.Transaction, error)
	ProcessRefund(ctx context.Context, input payments.RefundInput) (*transaction.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, filter payments.ListFilter) ([]*transaction.Transaction, int64, error)
	GetEarnings(ctx context.Context, payeeID string) (*earnings.Earnings, error)
	EarningsHistory(ctx context.Context, payeeID string, limit, offset int) ([]*earnings.HistoryEntry, int64, error)
	WithdrawalEligibility(ctx context.Context, payeeID string, currency shared.Currency) (*payments.Eligibility, error)
}
