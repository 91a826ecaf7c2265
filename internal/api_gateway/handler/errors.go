package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/domain/transaction"
)

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Policy and validation problems are client errors, state conflicts are 409,
// verification outcomes are 422 with a retryable flag, and chain outages are
// 503.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var validationErr shared.ValidationError
	var networkErr shared.UnsupportedNetworkError
	var currencyErr shared.UnsupportedCurrencyError
	var pairErr shared.IncompatiblePairError
	var verificationErr shared.VerificationFailedError
	var noMatchErr shared.NoMatchingTransactionError
	var balanceErr shared.InsufficientBalanceError

	switch {
	case errors.As(err, &validationErr):
		RespondBadRequest(c, validationErr.Error())
	case errors.As(err, &networkErr):
		RespondBadRequest(c, networkErr.Error())
	case errors.As(err, &currencyErr):
		RespondBadRequest(c, currencyErr.Error())
	case errors.As(err, &pairErr):
		RespondBadRequest(c, pairErr.Error())
	case errors.Is(err, transaction.ErrTransactionNotFound{}):
		RespondNotFound(c, "Transaction not found")
	case errors.Is(err, earnings.ErrEarningsNotFound{}):
		RespondNotFound(c, "No earnings recorded for this payee")
	case errors.Is(err, transaction.ErrDuplicateHash{}):
		RespondConflict(c, "DUPLICATE_HASH", "Transaction hash already attributed to another payment")
	case errors.Is(err, shared.InvalidStateTransitionError{}):
		RespondConflict(c, "INVALID_STATE", err.Error())
	case errors.As(err, &verificationErr):
		// premature checks resolve themselves as the chain advances
		RespondUnprocessable(c, "VERIFICATION_FAILED", verificationErr.Error(), true)
	case errors.As(err, &noMatchErr):
		RespondUnprocessable(c, "NO_MATCHING_TRANSACTION", noMatchErr.Error(), false)
	case errors.As(err, &balanceErr):
		RespondUnprocessable(c, "INSUFFICIENT_BALANCE", balanceErr.Error(), false)
	case errors.Is(err, shared.ChainUnavailableError{}):
		RespondServiceUnavailable(c, "Blockchain network temporarily unavailable")
	default:
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}

// parseUUIDParam reads and parses a UUID path parameter
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
