// Package middleware provides the gin middleware for the payment API:
// correlation IDs for tracing a payment across the gateway, the outbox, and
// the notifier logs, plus request logging and panic recovery.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the caller's correlation ID, echoed back on
	// every response
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the gin context key the ID is stored under
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with a correlation ID. An inbound ID is
// only honored when it is a well-formed UUID; anything else is replaced so
// arbitrary caller input never reaches the structured logs.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if _, err := uuid.Parse(correlationID); err != nil {
			correlationID = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation ID, or an empty string
// when the middleware did not run
func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(CorrelationIDKey); exists {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}
