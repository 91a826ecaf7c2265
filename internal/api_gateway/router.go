package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medichain-payments/internal/api_gateway/handler"
	"github.com/medichain-payments/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	paymentHandler *handler.PaymentHandler,
	earningsHandler *handler.EarningsHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Payment operations
		paymentsGroup := v1.Group("/payments")
		{
			paymentsGroup.POST("", paymentHandler.Create)
			paymentsGroup.POST("/confirm", paymentHandler.Confirm)
			paymentsGroup.POST("/:id/refund", paymentHandler.Refund)
		}

		// Transaction lookups
		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:id", transactionHandler.GetByID)
		}

		// Doctor earnings and withdrawals
		earningsGroup := v1.Group("/earnings")
		{
			earningsGroup.GET("/:payeeId", earningsHandler.Get)
			earningsGroup.GET("/:payeeId/history", earningsHandler.History)
			earningsGroup.GET("/:payeeId/eligibility", earningsHandler.Eligibility)
		}
		v1.POST("/withdrawals", earningsHandler.Withdraw)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
