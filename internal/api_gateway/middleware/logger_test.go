package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newLoggedRouter(buf *bytes.Buffer) *gin.Engine {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Logger(logger))
	return router
}

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs request details with the correlation ID", func(t *testing.T) {
		var buf bytes.Buffer
		router := newLoggedRouter(&buf)
		router.GET("/payments/intent", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		correlationID := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/payments/intent?network=ethereum", nil)
		req.Header.Set(CorrelationIDHeader, correlationID)
		req.Header.Set("User-Agent", "ledger-client")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		logOutput := buf.String()
		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"Request completed"`)
		assert.Contains(t, logOutput, `"method":"GET"`)
		assert.Contains(t, logOutput, `"path":"/payments/intent?network=ethereum"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"duration":`)
		assert.Contains(t, logOutput, `"user_agent":"ledger-client"`)
		assert.Contains(t, logOutput, `"bytes_out":`)
		assert.Contains(t, logOutput, `"correlation_id":"`+correlationID+`"`)
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		var buf bytes.Buffer
		router := newLoggedRouter(&buf)
		router.POST("/payments/confirm", func(c *gin.Context) {
			c.String(http.StatusConflict, "conflict")
		})

		req := httptest.NewRequest(http.MethodPost, "/payments/confirm", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), `"status":409`)
	})

	t.Run("server errors log at error", func(t *testing.T) {
		var buf bytes.Buffer
		router := newLoggedRouter(&buf)
		router.GET("/payments/broken", func(c *gin.Context) {
			c.String(http.StatusInternalServerError, "boom")
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/broken", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Contains(t, buf.String(), `"level":"ERROR"`)
		assert.Contains(t, buf.String(), `"status":500`)
	})
}
