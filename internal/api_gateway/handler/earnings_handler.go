package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/payments"
)

// EarningsHandler handles HTTP requests for doctor earnings and withdrawals
type EarningsHandler struct {
	service PaymentService
	logger  *slog.Logger
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(logger *slog.Logger, service PaymentService) *EarningsHandler {
	return &EarningsHandler{
		service: service,
		logger:  logger,
	}
}

// Get returns the payee's earnings summary
func (h *EarningsHandler) Get(c *gin.Context) {
	payeeID := c.Param("payeeId")

	aggregate, err := h.service.GetEarnings(c.Request.Context(), payeeID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEarningsToResponse(aggregate))
}

// History returns a page of the payee's earnings history
func (h *EarningsHandler) History(c *gin.Context) {
	payeeID := c.Param("payeeId")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	offset := (pagination.Page - 1) * pagination.PerPage
	entries, total, err := h.service.EarningsHistory(c.Request.Context(), payeeID, pagination.PerPage, offset)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapHistoryEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// Eligibility reports whether the payee can withdraw in the given currency
func (h *EarningsHandler) Eligibility(c *gin.Context) {
	payeeID := c.Param("payeeId")
	currency := c.Query("currency")
	if currency == "" {
		RespondBadRequest(c, "currency query parameter is required")
		return
	}

	eligibility, err := h.service.WithdrawalEligibility(c.Request.Context(), payeeID, shared.Currency(currency))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEligibilityToResponse(eligibility))
}

// Withdraw pays out a doctor's available earnings to their wallet
func (h *EarningsHandler) Withdraw(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid withdrawal request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	txn, err := h.service.ProcessWithdrawal(c.Request.Context(), payments.WithdrawalInput{
		PayeeID:   req.PayeeID,
		Amount:    amount,
		Network:   shared.Network(req.Network),
		Currency:  shared.Currency(req.Currency),
		ToAddress: req.ToAddress,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}
