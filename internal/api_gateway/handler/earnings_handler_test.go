package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medichain-payments/internal/domain/earnings"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/payments"
)

func TestEarningsHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testHandlerLogger()

	mockService := new(MockPaymentService)
	handler := NewEarningsHandler(logger, mockService)

	aggregate := earnings.New("doctor-1", shared.CurrencyETH)
	require.NoError(t, aggregate.AddEarning(decimal.RequireFromString("0.05"), decimal.RequireFromString("0.005")))
	mockService.On("GetEarnings", mock.Anything, "doctor-1").Return(aggregate, nil)

	router := gin.New()
	router.GET("/earnings/:payeeId", handler.Get)

	rr := performJSON(router, http.MethodGet, "/earnings/doctor-1", nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Data EarningsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "0.045", response.Data.AvailableBalance)
	assert.Equal(t, "0.005", response.Data.PlatformFeesDeducted)
}

func TestEarningsHandler_Eligibility(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testHandlerLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockPaymentService)
		handler := NewEarningsHandler(logger, mockService)

		mockService.On("WithdrawalEligibility", mock.Anything, "doctor-1", shared.CurrencyETH).
			Return(&payments.Eligibility{
				CanWithdraw:      true,
				AvailableBalance: decimal.RequireFromString("0.5"),
				MinimumAmount:    decimal.RequireFromString("0.01"),
			}, nil)

		router := gin.New()
		router.GET("/earnings/:payeeId/eligibility", handler.Eligibility)

		rr := performJSON(router, http.MethodGet, "/earnings/doctor-1/eligibility?currency=ETH", nil)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Data EligibilityResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.True(t, response.Data.CanWithdraw)
		assert.Equal(t, "0.01", response.Data.MinimumAmount)
	})

	t.Run("MissingCurrency", func(t *testing.T) {
		mockService := new(MockPaymentService)
		handler := NewEarningsHandler(logger, mockService)
		router := gin.New()
		router.GET("/earnings/:payeeId/eligibility", handler.Eligibility)

		rr := performJSON(router, http.MethodGet, "/earnings/doctor-1/eligibility", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "WithdrawalEligibility", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEarningsHandler_Withdraw(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testHandlerLogger()

	withdrawalBody := WithdrawalRequest{
		PayeeID:   "doctor-1",
		Amount:    "0.5",
		Network:   "ethereum",
		Currency:  "ETH",
		ToAddress: "0x5555555555555555555555555555555555555555",
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockPaymentService)
		handler := NewEarningsHandler(logger, mockService)

		txn := pendingPayment(t)
		mockService.On("ProcessWithdrawal", mock.Anything, mock.MatchedBy(func(input payments.WithdrawalInput) bool {
			return input.PayeeID == "doctor-1" && input.Amount.Equal(decimal.RequireFromString("0.5"))
		})).Return(txn, nil)

		router := gin.New()
		router.POST("/withdrawals", handler.Withdraw)

		rr := performJSON(router, http.MethodPost, "/withdrawals", withdrawalBody)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		mockService := new(MockPaymentService)
		handler := NewEarningsHandler(logger, mockService)
		mockService.On("ProcessWithdrawal", mock.Anything, mock.Anything).
			Return(nil, shared.InsufficientBalanceError{PayeeID: "doctor-1", Requested: "0.5", Available: "0.1"})

		router := gin.New()
		router.POST("/withdrawals", handler.Withdraw)

		rr := performJSON(router, http.MethodPost, "/withdrawals", withdrawalBody)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "INSUFFICIENT_BALANCE", response.Error.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockService := new(MockPaymentService)
		handler := NewEarningsHandler(logger, mockService)
		router := gin.New()
		router.POST("/withdrawals", handler.Withdraw)

		rr := performJSON(router, http.MethodPost, "/withdrawals", WithdrawalRequest{PayeeID: "doctor-1"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ProcessWithdrawal", mock.Anything, mock.Anything)
	})
}

func TestEarningsHandler_History(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testHandlerLogger()

	mockService := new(MockPaymentService)
	handler := NewEarningsHandler(logger, mockService)

	entries := []*earnings.HistoryEntry{
		earnings.NewHistoryEntry("doctor-1", pendingPayment(t).ID, earnings.HistoryKindAccrual,
			decimal.RequireFromString("0.045"), decimal.RequireFromString("0.005"), shared.CurrencyETH),
	}
	mockService.On("EarningsHistory", mock.Anything, "doctor-1", 20, 0).Return(entries, int64(1), nil)

	router := gin.New()
	router.GET("/earnings/:payeeId/history", handler.History)

	rr := performJSON(router, http.MethodGet, "/earnings/doctor-1/history", nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Data []HistoryEntryResponse `json:"data"`
		Meta *MetaInfo              `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "accrual", response.Data[0].Kind)
	assert.Equal(t, 1, response.Meta.TotalItems)
}
