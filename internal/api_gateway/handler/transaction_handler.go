package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medichain-payments/internal/payments"
)

// TransactionHandler handles HTTP requests for transaction lookups
type TransactionHandler struct {
	service PaymentService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, service PaymentService) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		logger:  logger,
	}
}

// GetByID retrieves transaction details by ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// List retrieves paginated transactions for a payer or payee
func (h *TransactionHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	filter := payments.ListFilter{
		PayerID: c.Query("payer_id"),
		PayeeID: c.Query("payee_id"),
		Limit:   pagination.PerPage,
		Offset:  (pagination.Page - 1) * pagination.PerPage,
	}

	txns, total, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}
