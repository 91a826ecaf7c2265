package handler

// CreatePaymentRequest starts a consultation payment
type CreatePaymentRequest struct {
	PayerID        string `json:"payer_id" binding:"required"`
	PayeeID        string `json:"payee_id,omitempty"`
	ConsultationID string `json:"consultation_id,omitempty"`
	ServiceType    string `json:"service_type" binding:"required,oneof=ai_consultation video_consultation home_visit"`
	DoctorBaseFee  string `json:"doctor_base_fee,omitempty"`
	Network        string `json:"network" binding:"required"`
	Currency       string `json:"currency" binding:"required"`
	FromAddress    string `json:"from_address" binding:"required"`
	ToAddress      string `json:"to_address" binding:"required"`
}

// ConfirmPaymentRequest claims an on-chain payment for verification
type ConfirmPaymentRequest struct {
	TransactionHash string `json:"transaction_hash" binding:"required"`
	FromAddress     string `json:"from_address" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	Network         string `json:"network" binding:"required"`
	Currency        string `json:"currency" binding:"required"`
}

// RefundRequest refunds a completed consultation payment. Amount is optional;
// when omitted the default refundable amount applies.
type RefundRequest struct {
	Amount string `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// WithdrawalRequest pays out a doctor's available earnings
type WithdrawalRequest struct {
	PayeeID   string `json:"payee_id" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Network   string `json:"network" binding:"required"`
	Currency  string `json:"currency" binding:"required"`
	ToAddress string `json:"to_address" binding:"required"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                  string        `json:"id"`
	PayerID             string        `json:"payer_id,omitempty"`
	PayeeID             string        `json:"payee_id,omitempty"`
	ConsultationID      string        `json:"consultation_id,omitempty"`
	Type                string        `json:"type"`
	Amount              string        `json:"amount"`
	GasFee              string        `json:"gas_fee"`
	PlatformFee         string        `json:"platform_fee"`
	NetAmount           string        `json:"net_amount"`
	Network             string        `json:"network"`
	Currency            string        `json:"currency"`
	FromAddress         string        `json:"from_address,omitempty"`
	ToAddress           string        `json:"to_address,omitempty"`
	TransactionHash     string        `json:"transaction_hash,omitempty"`
	BlockNumber         *int64        `json:"block_number,omitempty"`
	Confirmations       int64         `json:"confirmations"`
	Status              string        `json:"status"`
	FailureReason       string        `json:"failure_reason,omitempty"`
	RefundTransactionID string        `json:"refund_transaction_id,omitempty"`
	ExchangeRate        *RateResponse `json:"exchange_rate,omitempty"`
	CreatedAt           string        `json:"created_at"`
	CompletedAt         string        `json:"completed_at,omitempty"`
}

// RateResponse is the exchange rate snapshot recorded with a transaction
type RateResponse struct {
	Rate      string `json:"usd_rate"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// QuoteResponse is the fee breakdown returned with a created payment
type QuoteResponse struct {
	BaseFee       string `json:"base_fee"`
	PlatformFee   string `json:"platform_fee"`
	GasFee        string `json:"gas_fee"`
	TotalFee      string `json:"total_fee"`
	PayeeEarnings string `json:"payee_earnings"`
}

// CreatePaymentResponse pairs the pending transaction with its fee quote
type CreatePaymentResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Quote       QuoteResponse       `json:"quote"`
}

// EarningsResponse represents a doctor's earnings in API responses
type EarningsResponse struct {
	PayeeID              string `json:"payee_id"`
	Currency             string `json:"currency,omitempty"`
	TotalEarnings        string `json:"total_earnings"`
	AvailableBalance     string `json:"available_balance"`
	PendingBalance       string `json:"pending_balance"`
	WithdrawnAmount      string `json:"withdrawn_amount"`
	PlatformFeesDeducted string `json:"platform_fees_deducted"`
	LastWithdrawalAt     string `json:"last_withdrawal_at,omitempty"`
}

// HistoryEntryResponse represents one earnings history record
type HistoryEntryResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	PlatformFee   string `json:"platform_fee"`
	Currency      string `json:"currency"`
	Timestamp     string `json:"timestamp"`
}

// EligibilityResponse reports withdrawal standing for a payee and currency
type EligibilityResponse struct {
	CanWithdraw      bool   `json:"can_withdraw"`
	AvailableBalance string `json:"available_balance"`
	MinimumAmount    string `json:"minimum_amount"`
	NextEligibleAt   string `json:"next_eligible_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
