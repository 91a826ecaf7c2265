package shared

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the fiat rate snapshot captured when a transaction is
// created. It is never re-fetched for that transaction so the audit trail
// reflects the price the payer actually saw.
type ExchangeRate struct {
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}
