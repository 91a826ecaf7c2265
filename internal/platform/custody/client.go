// Package custody talks to the external custody service that signs and
// broadcasts outbound transfers (withdrawal payouts and refunds). Key
// management and signing never happen in this process.
package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/domain/shared"
)

// TransferRequest asks the custody service to move funds from the platform
// wallet to a destination address
type TransferRequest struct {
	Network   shared.Network  `json:"network"`
	Currency  shared.Currency `json:"currency"`
	ToAddress string          `json:"to_address"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// TransferResult is the custody service's broadcast confirmation
type TransferResult struct {
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     *int64 `json:"block_number,omitempty"`
	GasUsed         *int64 `json:"gas_used,omitempty"`
}

// Client is an HTTP client for the custody service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a custody client with the configured timeout
func NewClient(logger *slog.Logger, cfg *config.CustodyConfig) *Client {
	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Transfer submits a transfer and waits for the broadcast result. A non-2xx
// response means the transfer did not happen; the caller must not debit any
// ledger balance.
func (c *Client) Transfer(ctx context.Context, request TransferRequest) (*TransferResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("custody transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Custody service rejected transfer",
			"status", resp.StatusCode,
			"reference", request.Reference,
			"detail", string(detail),
		)
		return nil, fmt.Errorf("custody service returned status %d", resp.StatusCode)
	}

	var result TransferResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transfer result: %w", err)
	}
	if result.TransactionHash == "" {
		return nil, fmt.Errorf("custody service returned no transaction hash")
	}

	return &result, nil
}
