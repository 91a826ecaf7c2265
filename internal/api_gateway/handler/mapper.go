package handler

import (
	"time"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/domain/transaction"
	"github.com/medichain-payments/internal/fees"
	"github.com/medichain-payments/internal/payments"
)

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:             txn.ID.String(),
		PayerID:        txn.PayerID,
		PayeeID:        txn.PayeeID,
		ConsultationID: txn.ConsultationID,
		Type:           string(txn.Type),
		Amount:         txn.Amount.String(),
		GasFee:         txn.GasFee.String(),
		PlatformFee:    txn.PlatformFee.String(),
		NetAmount:      txn.NetAmount.String(),
		Network:        string(txn.Network),
		Currency:       string(txn.Currency),
		FromAddress:    txn.FromAddress,
		ToAddress:      txn.ToAddress,
		BlockNumber:    txn.BlockNumber,
		Confirmations:  txn.Confirmations,
		Status:         string(txn.Status),
		FailureReason:  txn.FailureReason,
		CreatedAt:      txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.TransactionHash != nil {
		response.TransactionHash = *txn.TransactionHash
	}
	if txn.RefundTransactionID != nil {
		response.RefundTransactionID = txn.RefundTransactionID.String()
	}
	if txn.CompletedAt != nil {
		response.CompletedAt = txn.CompletedAt.Format(time.RFC3339)
	}
	if txn.ExchangeRate != nil {
		response.ExchangeRate = &RateResponse{
			Rate:      txn.ExchangeRate.Rate.String(),
			Source:    txn.ExchangeRate.Source,
			Timestamp: txn.ExchangeRate.Timestamp.Format(time.RFC3339),
		}
	}
	return response
}

func mapQuoteToResponse(quote *fees.Quote) QuoteResponse {
	return QuoteResponse{
		BaseFee:       quote.BaseFee.String(),
		PlatformFee:   quote.PlatformFee.String(),
		GasFee:        quote.GasFee.String(),
		TotalFee:      quote.TotalFee.String(),
		PayeeEarnings: quote.PayeeEarnings.String(),
	}
}

func mapEarningsToResponse(e *earnings.Earnings) EarningsResponse {
	response := EarningsResponse{
		PayeeID:              e.PayeeID,
		Currency:             string(e.Currency),
		TotalEarnings:        e.TotalEarnings.String(),
		AvailableBalance:     e.AvailableBalance.String(),
		PendingBalance:       e.PendingBalance.String(),
		WithdrawnAmount:      e.WithdrawnAmount.String(),
		PlatformFeesDeducted: e.PlatformFeesDeducted.String(),
	}
	if e.LastWithdrawalAt != nil {
		response.LastWithdrawalAt = e.LastWithdrawalAt.Format(time.RFC3339)
	}
	return response
}

func mapHistoryEntryToResponse(entry *earnings.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:            entry.ID.String(),
		TransactionID: entry.TransactionID.String(),
		Kind:          string(entry.Kind),
		Amount:        entry.Amount.String(),
		PlatformFee:   entry.PlatformFee.String(),
		Currency:      string(entry.Currency),
		Timestamp:     entry.Timestamp.Format(time.RFC3339),
	}
}

func mapEligibilityToResponse(eligibility *payments.Eligibility) EligibilityResponse {
	response := EligibilityResponse{
		CanWithdraw:      eligibility.CanWithdraw,
		AvailableBalance: eligibility.AvailableBalance.String(),
		MinimumAmount:    eligibility.MinimumAmount.String(),
	}
	if eligibility.NextEligibleAt != nil {
		response.NextEligibleAt = eligibility.NextEligibleAt.Format(time.RFC3339)
	}
	return response
}
