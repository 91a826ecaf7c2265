package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/payments"
)

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	service PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, service PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

// Create quotes the fees and records a pending consultation payment
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid create payment request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	doctorBaseFee := decimal.Zero
	if req.DoctorBaseFee != "" {
		fee, err := decimal.NewFromString(req.DoctorBaseFee)
		if err != nil {
			RespondBadRequest(c, "Invalid doctor_base_fee")
			return
		}
		doctorBaseFee = fee
	}

	txn, quote, err := h.service.CreatePayment(c.Request.Context(), payments.CreatePaymentInput{
		PayerID:        req.PayerID,
		PayeeID:        req.PayeeID,
		ConsultationID: req.ConsultationID,
		ServiceType:    shared.TransactionType(req.ServiceType),
		DoctorBaseFee:  doctorBaseFee,
		Network:        shared.Network(req.Network),
		Currency:       shared.Currency(req.Currency),
		FromAddress:    req.FromAddress,
		ToAddress:      req.ToAddress,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, CreatePaymentResponse{
		Transaction: mapTransactionToResponse(txn),
		Quote:       mapQuoteToResponse(quote),
	})
}

// Confirm verifies a claimed on-chain payment and settles the matching
// pending transaction
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid confirm payment request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	txn, err := h.service.ConfirmPayment(c.Request.Context(), payments.ConfirmPaymentInput{
		Hash:        req.TransactionHash,
		FromAddress: req.FromAddress,
		Amount:      amount,
		Network:     shared.Network(req.Network),
		Currency:    shared.Currency(req.Currency),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// Refund refunds a completed consultation payment
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid refund request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			RespondBadRequest(c, "Invalid amount")
			return
		}
		amount = parsed
	}

	refund, err := h.service.ProcessRefund(c.Request.Context(), payments.RefundInput{
		TransactionID: id,
		Amount:        amount,
		Reason:        req.Reason,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(refund))
}
