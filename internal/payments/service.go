// Package payments orchestrates the payment ledger: creating pending
// transactions, confirming them against verified chain state, accruing doctor
// earnings, and processing withdrawals and refunds. All multi-row mutations
// run inside one PostgreSQL transaction with row locks so concurrent
// confirmations and withdrawals resolve to exactly one winner.
package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/domain/outbox"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/domain/transaction"
	"github.com/medichain-payments/internal/fees"
	"github.com/medichain-payments/internal/platform/chain"
	"github.com/medichain-payments/internal/platform/custody"
)

// TxRunner runs a function inside one database transaction, rolling back on
// error. Satisfied by persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ChainVerifier checks a payment claim against chain state
type ChainVerifier interface {
	VerifyPayment(ctx context.Context, claim Claim) (*VerifiedTransfer, error)
}

// RateProvider supplies the current USD rate for a currency
type RateProvider interface {
	CurrentRate(ctx context.Context, currency shared.Currency) (*shared.ExchangeRate, error)
}

// FundsTransferor moves funds out of the platform wallet. The implementation
// owns signing and broadcasting; this service only learns the resulting hash.
type FundsTransferor interface {
	Transfer(ctx context.Context, request custody.TransferRequest) (*custody.TransferResult, error)
}

// WithdrawalPolicy is the per-currency minimum and the cooldown between
// withdrawals
type WithdrawalPolicy struct {
	Minimums map[shared.Currency]decimal.Decimal
	Cooldown time.Duration
}

// MinimumFor returns the configured minimum for a currency, zero when none is
// configured
func (p WithdrawalPolicy) MinimumFor(currency shared.Currency) decimal.Decimal {
	return p.Minimums[currency]
}

// RetryPolicy bounds chain RPC retries
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Deps wires the service's collaborators
type Deps struct {
	DB           TxRunner
	Transactions transaction.Repository
	Earnings     earnings.Repository
	History      earnings.HistoryRepository
	Outbox       outbox.Repository
	Verifier     ChainVerifier
	Rates        RateProvider
	Transferor   FundsTransferor
	Fees         *fees.Schedule
	Withdrawals  WithdrawalPolicy
	Retry        RetryPolicy
	Logger       *slog.Logger
}

// Service is the payment orchestrator behind the HTTP handlers
type Service struct {
	db           TxRunner
	transactions transaction.Repository
	earnings     earnings.Repository
	history      earnings.HistoryRepository
	outbox       outbox.Repository
	verifier     ChainVerifier
	rates        RateProvider
	transferor   FundsTransferor
	fees         *fees.Schedule
	withdrawals  WithdrawalPolicy
	retry        RetryPolicy
	logger       *slog.Logger
}

// NewService creates the payment service
func NewService(deps Deps) *Service {
	return &Service{
		db:           deps.DB,
		transactions: deps.Transactions,
		earnings:     deps.Earnings,
		history:      deps.History,
		outbox:       deps.Outbox,
		verifier:     deps.Verifier,
		rates:        deps.Rates,
		transferor:   deps.Transferor,
		fees:         deps.Fees,
		withdrawals:  deps.Withdrawals,
		retry:        deps.Retry,
		logger:       deps.Logger,
	}
}

// CreatePaymentInput carries the validated request for a new consultation
// payment
type CreatePaymentInput struct {
	PayerID        string
	PayeeID        string
	ConsultationID string
	ServiceType    shared.TransactionType
	DoctorBaseFee  decimal.Decimal
	Network        shared.Network
	Currency       shared.Currency
	FromAddress    string
	ToAddress      string
}

// CreatePayment quotes the fees and records a pending transaction for a
// consultation. Nothing is written to any chain; the patient pays from their
// own wallet and the payment is attributed later by ConfirmPayment.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*transaction.Transaction, *fees.Quote, error) {
	if !input.ServiceType.IsConsultation() {
		return nil, nil, shared.ValidationError{Field: "service_type", Reason: "not a payable consultation type"}
	}
	if input.ServiceType.HasPayee() && input.PayeeID == "" {
		return nil, nil, shared.ValidationError{Field: "payee_id", Reason: "required for this service type"}
	}
	if err := shared.ValidatePair(input.Network, input.Currency); err != nil {
		return nil, nil, err
	}

	quote, err := s.fees.Calculate(input.ServiceType, input.DoctorBaseFee, input.Network, input.Currency)
	if err != nil {
		return nil, nil, err
	}

	// The rate snapshot is informational; a feed outage must not block payments
	rate, err := s.rates.CurrentRate(ctx, input.Currency)
	if err != nil {
		s.logger.Warn("Proceeding without exchange rate snapshot", "currency", input.Currency, "error", err)
		rate = nil
	}

	txn, err := transaction.New(transaction.Spec{
		PayerID:        input.PayerID,
		PayeeID:        input.PayeeID,
		ConsultationID: input.ConsultationID,
		Type:           input.ServiceType,
		Amount:         quote.TotalFee,
		GasFee:         quote.GasFee,
		PlatformFee:    quote.PlatformFee,
		Network:        input.Network,
		Currency:       input.Currency,
		FromAddress:    input.FromAddress,
		ToAddress:      input.ToAddress,
		ExchangeRate:   rate,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Created pending payment",
		"transaction_id", txn.ID.String(),
		"type", string(txn.Type),
		"amount", txn.Amount.String(),
		"currency", string(txn.Currency),
		"network", string(txn.Network),
	)
	return txn, quote, nil
}

// ConfirmPaymentInput is a claimed on-chain payment
type ConfirmPaymentInput struct {
	Hash        string
	FromAddress string
	Amount      decimal.Decimal
	Network     shared.Network
	Currency    shared.Currency
}

// ConfirmPayment verifies the claimed payment against chain state, then
// attributes it to the newest matching pending transaction, completes that
// transaction, and accrues the doctor's earnings, all in one database
// transaction. A verified payment that matches nothing is recorded as an
// unattributed payment event and surfaced as NoMatchingTransactionError; a
// transaction is never fabricated for it.
func (s *Service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*transaction.Transaction, error) {
	claim := Claim{
		Hash:        input.Hash,
		FromAddress: input.FromAddress,
		Amount:      input.Amount,
		Network:     input.Network,
		Currency:    input.Currency,
	}

	var verified *VerifiedTransfer
	err := chain.WithRetry(ctx, s.logger, s.retry.MaxAttempts, s.retry.Backoff, func() error {
		v, err := s.verifier.VerifyPayment(ctx, claim)
		if err != nil {
			return err
		}
		verified = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	var completed *transaction.Transaction
	var noMatch error
	var accrual *earnings.HistoryEntry

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txns := s.transactions.WithTx(tx)

		locked, err := txns.LockMatchingPending(ctx, transaction.MatchFilter{
			FromAddress: claim.FromAddress,
			Amount:      claim.Amount,
			Currency:    claim.Currency,
			Network:     claim.Network,
		})
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			return s.handleUnattributed(ctx, tx, claim, &noMatch)
		}
		if err != nil {
			return err
		}

		blockNumber := verified.BlockNumber
		gasUsed := verified.GasUsed
		if err := locked.Complete(claim.Hash, &blockNumber, &gasUsed, verified.Confirmations); err != nil {
			return err
		}
		if err := txns.CompletePending(ctx, locked); err != nil {
			return err
		}

		if locked.Type.HasPayee() && locked.PayeeID != "" {
			entry, err := s.accrueEarnings(ctx, tx, locked)
			if err != nil {
				return err
			}
			accrual = entry
		}

		message, err := outbox.NewMessage(outbox.EventPaymentCompleted, locked)
		if err != nil {
			return err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, message); err != nil {
			return err
		}

		completed = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noMatch != nil {
		return nil, noMatch
	}

	s.appendHistory(ctx, accrual)

	s.logger.Info("Confirmed payment",
		"transaction_id", completed.ID.String(),
		"hash", claim.Hash,
		"confirmations", verified.Confirmations,
	)
	return completed, nil
}

// handleUnattributed resolves a verified payment that matched no pending
// transaction. If the hash is already attributed this is a duplicate
// confirmation and fails as an illegal transition; otherwise the event is
// committed for operator alerting and the distinct error is surfaced after
// the transaction commits.
func (s *Service) handleUnattributed(ctx context.Context, tx pgx.Tx, claim Claim, noMatch *error) error {
	txns := s.transactions.WithTx(tx)

	existing, err := txns.GetByHash(ctx, claim.Hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return shared.InvalidStateTransitionError{
			TransactionID: existing.ID.String(),
			From:          existing.Status,
			To:            shared.TransactionStatusCompleted,
		}
	}

	message, err := outbox.NewUnattributedMessage(claim.Hash, claim.FromAddress, claim.Amount.String(), claim.Currency, claim.Network)
	if err != nil {
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, message); err != nil {
		return err
	}

	s.logger.Warn("Verified payment matched no pending transaction",
		"hash", claim.Hash,
		"from_address", claim.FromAddress,
		"amount", claim.Amount.String(),
	)
	*noMatch = shared.NoMatchingTransactionError{Hash: claim.Hash, FromAddress: claim.FromAddress}
	return nil
}

// accrueEarnings credits the payee with the completed payment's net earnings
// under the payee row lock
func (s *Service) accrueEarnings(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) (*earnings.HistoryEntry, error) {
	repo := s.earnings.WithTx(tx)
	aggregate, err := repo.LockForUpdate(ctx, txn.PayeeID)
	if err != nil {
		return nil, err
	}
	if aggregate.Currency == "" {
		aggregate.Currency = txn.Currency
	}

	if err := aggregate.AddEarning(txn.NetAmount, txn.PlatformFee); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, aggregate); err != nil {
		return nil, err
	}

	net := txn.NetAmount.Sub(txn.PlatformFee)
	return earnings.NewHistoryEntry(txn.PayeeID, txn.ID, earnings.HistoryKindAccrual, net, txn.PlatformFee, txn.Currency), nil
}

// WithdrawalInput is a doctor's request to pay out available earnings
type WithdrawalInput struct {
	PayeeID   string
	Amount    decimal.Decimal
	Network   shared.Network
	Currency  shared.Currency
	ToAddress string
}

// ProcessWithdrawal pays out available earnings to the doctor's wallet. The
// custody transfer runs first; the ledger is debited only after the transfer
// succeeds, so a custody failure can never eat a balance.
func (s *Service) ProcessWithdrawal(ctx context.Context, input WithdrawalInput) (*transaction.Transaction, error) {
	if err := shared.ValidatePair(input.Network, input.Currency); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, shared.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if input.ToAddress == "" {
		return nil, shared.ValidationError{Field: "to_address", Reason: "required"}
	}

	aggregate, err := s.earnings.GetByPayee(ctx, input.PayeeID)
	if err != nil {
		if errors.Is(err, earnings.ErrEarningsNotFound{}) {
			return nil, shared.InsufficientBalanceError{
				PayeeID:   input.PayeeID,
				Requested: input.Amount.String(),
				Available: "0",
			}
		}
		return nil, err
	}

	minimum := s.withdrawals.MinimumFor(input.Currency)
	if input.Amount.LessThan(minimum) {
		return nil, shared.ValidationError{Field: "amount", Reason: "below the minimum withdrawal of " + minimum.String() + " " + string(input.Currency)}
	}
	if input.Amount.GreaterThan(aggregate.AvailableBalance) {
		return nil, shared.InsufficientBalanceError{
			PayeeID:   input.PayeeID,
			Requested: input.Amount.String(),
			Available: aggregate.AvailableBalance.String(),
		}
	}
	if !aggregate.CanWithdraw(minimum, s.withdrawals.Cooldown, time.Now().UTC()) {
		return nil, shared.ValidationError{
			Field:  "cooldown",
			Reason: "next withdrawal eligible at " + aggregate.NextWithdrawalEligible(s.withdrawals.Cooldown).Format(time.RFC3339),
		}
	}

	kind := fees.OperationTokenTransfer
	if input.Currency.IsNativeOn(input.Network) {
		kind = fees.OperationNativeTransfer
	}
	gasFee, err := s.fees.GasEstimate(input.Network, kind)
	if err != nil {
		return nil, err
	}

	txn, err := transaction.New(transaction.Spec{
		PayeeID:     input.PayeeID,
		Type:        shared.TransactionTypeDoctorWithdrawal,
		Amount:      input.Amount,
		GasFee:      gasFee,
		PlatformFee: decimal.Zero,
		Network:     input.Network,
		Currency:    input.Currency,
		ToAddress:   input.ToAddress,
	})
	if err != nil {
		return nil, err
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	result, err := s.transferor.Transfer(ctx, custody.TransferRequest{
		Network:   input.Network,
		Currency:  input.Currency,
		ToAddress: input.ToAddress,
		Amount:    txn.NetAmount,
		Reference: txn.ID.String(),
	})
	if err != nil {
		s.failTransfer(ctx, txn, outbox.EventWithdrawalFailed, err)
		return nil, err
	}

	var withdrawal *earnings.HistoryEntry
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txns := s.transactions.WithTx(tx)
		if err := txn.Complete(result.TransactionHash, result.BlockNumber, result.GasUsed, 0); err != nil {
			return err
		}
		if err := txns.CompletePending(ctx, txn); err != nil {
			return err
		}

		repo := s.earnings.WithTx(tx)
		locked, err := repo.LockForUpdate(ctx, input.PayeeID)
		if err != nil {
			return err
		}
		if err := locked.Withdraw(input.Amount); err != nil {
			return err
		}
		if err := repo.Update(ctx, locked); err != nil {
			return err
		}

		message, err := outbox.NewMessage(outbox.EventWithdrawalCompleted, txn)
		if err != nil {
			return err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, message); err != nil {
			return err
		}

		withdrawal = earnings.NewHistoryEntry(input.PayeeID, txn.ID, earnings.HistoryKindWithdrawal, input.Amount, decimal.Zero, input.Currency)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, withdrawal)

	s.logger.Info("Completed withdrawal",
		"transaction_id", txn.ID.String(),
		"payee_id", input.PayeeID,
		"amount", input.Amount.String(),
		"hash", result.TransactionHash,
	)
	return txn, nil
}

// RefundInput requests a refund of a completed consultation payment. A zero
// amount refunds the default: everything except the platform fee.
type RefundInput struct {
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Reason        string
}

// ProcessRefund creates and settles the companion refund transaction for a
// completed consultation payment, marks the original refunded, and reverses
// the payee's earnings. The platform fee is never refunded.
func (s *Service) ProcessRefund(ctx context.Context, input RefundInput) (*transaction.Transaction, error) {
	original, err := s.transactions.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	if amount.IsZero() {
		amount = original.RefundableAmount()
	}

	refund, err := transaction.NewRefund(original, amount)
	if err != nil {
		return nil, err
	}
	if err := s.transactions.Create(ctx, refund); err != nil {
		return nil, err
	}

	// Reserve the refund on the original before any money moves. Concurrent
	// refund attempts resolve to exactly one reservation holder; the loser's
	// companion transaction is marked failed and no transfer fires for it.
	if err := original.ReserveRefund(refund.ID); err != nil {
		s.abandonRefund(ctx, refund, err)
		return nil, err
	}
	if err := s.transactions.ReserveRefund(ctx, original); err != nil {
		s.abandonRefund(ctx, refund, err)
		return nil, err
	}

	result, err := s.transferor.Transfer(ctx, custody.TransferRequest{
		Network:   refund.Network,
		Currency:  refund.Currency,
		ToAddress: refund.ToAddress,
		Amount:    refund.Amount,
		Reference: refund.ID.String(),
	})
	if err != nil {
		s.failTransfer(ctx, refund, "", err)
		s.releaseRefundReservation(ctx, original, refund.ID)
		return nil, err
	}

	var reversal *earnings.HistoryEntry
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txns := s.transactions.WithTx(tx)
		if err := refund.Complete(result.TransactionHash, result.BlockNumber, result.GasUsed, 0); err != nil {
			return err
		}
		if err := txns.CompletePending(ctx, refund); err != nil {
			return err
		}

		if err := original.MarkRefunded(refund.ID); err != nil {
			return err
		}
		if err := txns.MarkRefunded(ctx, original); err != nil {
			return err
		}

		if original.Type.HasPayee() && original.PayeeID != "" {
			entry, err := s.reverseEarnings(ctx, tx, original)
			if err != nil {
				return err
			}
			reversal = entry
		}

		message, err := outbox.NewMessage(outbox.EventPaymentRefunded, refund)
		if err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, reversal)

	s.logger.Info("Processed refund",
		"transaction_id", original.ID.String(),
		"refund_transaction_id", refund.ID.String(),
		"amount", amount.String(),
		"reason", input.Reason,
	)
	return refund, nil
}

// reverseEarnings debits the net amount credited for the original payment,
// clamped at the payee's current available balance
func (s *Service) reverseEarnings(ctx context.Context, tx pgx.Tx, original *transaction.Transaction) (*earnings.HistoryEntry, error) {
	repo := s.earnings.WithTx(tx)
	aggregate, err := repo.LockForUpdate(ctx, original.PayeeID)
	if err != nil {
		return nil, err
	}

	net := original.NetAmount.Sub(original.PlatformFee)
	if !net.IsPositive() {
		return nil, nil
	}
	reversed, err := aggregate.ReverseEarning(net)
	if err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, aggregate); err != nil {
		return nil, err
	}
	if reversed.IsZero() {
		return nil, nil
	}

	return earnings.NewHistoryEntry(original.PayeeID, original.ID, earnings.HistoryKindReversal, reversed, decimal.Zero, original.Currency), nil
}

// abandonRefund marks a companion refund transaction failed after losing the
// reservation on its original. No money moved.
func (s *Service) abandonRefund(ctx context.Context, refund *transaction.Transaction, cause error) {
	if err := refund.Fail("refund reservation lost: " + cause.Error()); err != nil {
		s.logger.Error("Failed to mark refund abandoned", "transaction_id", refund.ID.String(), "error", err)
		return
	}
	if err := s.transactions.FailPending(ctx, refund); err != nil {
		s.logger.Error("Failed to persist abandoned refund", "transaction_id", refund.ID.String(), "error", err)
	}
}

// releaseRefundReservation returns the original to a refundable state after
// the custody transfer failed. A release failure leaves the reservation for
// reconciliation; it is logged, not surfaced, because the caller already has
// the transfer error.
func (s *Service) releaseRefundReservation(ctx context.Context, original *transaction.Transaction, refundID uuid.UUID) {
	original.ReleaseRefund(refundID)
	if err := s.transactions.ReleaseRefund(ctx, original.ID, refundID); err != nil {
		s.logger.Error("Failed to release refund reservation",
			"transaction_id", original.ID.String(),
			"refund_transaction_id", refundID.String(),
			"error", err,
		)
	}
}

// failTransfer marks a pending outbound transaction failed after a custody
// error. The ledger balance is untouched: nothing was debited yet.
func (s *Service) failTransfer(ctx context.Context, txn *transaction.Transaction, event outbox.EventKind, cause error) {
	if err := txn.Fail("custody transfer failed: " + cause.Error()); err != nil {
		s.logger.Error("Failed to mark transfer failed", "transaction_id", txn.ID.String(), "error", err)
		return
	}
	if err := s.transactions.FailPending(ctx, txn); err != nil {
		s.logger.Error("Failed to persist failed transfer", "transaction_id", txn.ID.String(), "error", err)
		return
	}
	if event == "" {
		return
	}
	message, err := outbox.NewMessage(event, txn)
	if err != nil {
		s.logger.Error("Failed to build failure event", "transaction_id", txn.ID.String(), "error", err)
		return
	}
	if err := s.outbox.Create(ctx, message); err != nil {
		s.logger.Error("Failed to record failure event", "transaction_id", txn.ID.String(), "error", err)
	}
}

// appendHistory writes an earnings history entry after the owning database
// transaction commits. History lives in MongoDB outside the Postgres
// transaction; a write failure is logged and reconciled from the ledger.
func (s *Service) appendHistory(ctx context.Context, entry *earnings.HistoryEntry) {
	if entry == nil {
		return
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append earnings history",
			"payee_id", entry.PayeeID,
			"transaction_id", entry.TransactionID.String(),
			"error", err,
		)
	}
}

// GetTransaction retrieves one transaction by ID
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

// ListFilter selects transactions by payer or payee, exactly one of which
// must be set
type ListFilter struct {
	PayerID string
	PayeeID string
	Limit   int
	Offset  int
}

// ListTransactions returns a page of transactions plus the unpaged total
func (s *Service) ListTransactions(ctx context.Context, filter ListFilter) ([]*transaction.Transaction, int64, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	switch {
	case filter.PayerID != "" && filter.PayeeID != "":
		return nil, 0, shared.ValidationError{Field: "filter", Reason: "specify either payer_id or payee_id, not both"}
	case filter.PayerID != "":
		return s.transactions.ListByPayer(ctx, filter.PayerID, limit, offset)
	case filter.PayeeID != "":
		return s.transactions.ListByPayee(ctx, filter.PayeeID, limit, offset)
	default:
		return nil, 0, shared.ValidationError{Field: "filter", Reason: "payer_id or payee_id is required"}
	}
}

// GetEarnings returns the payee's earnings aggregate, or an empty aggregate
// when the payee has never earned
func (s *Service) GetEarnings(ctx context.Context, payeeID string) (*earnings.Earnings, error) {
	aggregate, err := s.earnings.GetByPayee(ctx, payeeID)
	if errors.Is(err, earnings.ErrEarningsNotFound{}) {
		return earnings.New(payeeID, ""), nil
	}
	return aggregate, err
}

// EarningsHistory returns a page of the payee's earnings history plus the
// unpaged total
func (s *Service) EarningsHistory(ctx context.Context, payeeID string, limit, offset int) ([]*earnings.HistoryEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.history.ListByPayee(ctx, payeeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.history.CountByPayee(ctx, payeeID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Eligibility describes whether and when a payee can withdraw
type Eligibility struct {
	CanWithdraw      bool            `json:"can_withdraw"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	MinimumAmount    decimal.Decimal `json:"minimum_amount"`
	NextEligibleAt   *time.Time      `json:"next_eligible_at,omitempty"`
}

// WithdrawalEligibility reports the payee's current withdrawal standing for a
// currency
func (s *Service) WithdrawalEligibility(ctx context.Context, payeeID string, currency shared.Currency) (*Eligibility, error) {
	if !currency.IsValid() {
		return nil, shared.UnsupportedCurrencyError{Currency: string(currency)}
	}

	aggregate, err := s.GetEarnings(ctx, payeeID)
	if err != nil {
		return nil, err
	}

	minimum := s.withdrawals.MinimumFor(currency)
	eligibility := &Eligibility{
		CanWithdraw:      aggregate.CanWithdraw(minimum, s.withdrawals.Cooldown, time.Now().UTC()),
		AvailableBalance: aggregate.AvailableBalance,
		MinimumAmount:    minimum,
	}
	if next := aggregate.NextWithdrawalEligible(s.withdrawals.Cooldown); !next.IsZero() && next.After(time.Now().UTC()) {
		eligibility.NextEligibleAt = &next
	}
	return eligibility, nil
}
