// Package earnings defines the per-doctor earnings aggregate. All balance
// mutations go through the aggregate methods so the reconciliation invariant
//
//	AvailableBalance + PendingBalance + WithdrawnAmount == TotalEarnings
//
// cannot be broken by a caller updating fields directly.
package earnings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
)

// Earnings is the accumulated earnings state for one payee (doctor)
type Earnings struct {
	PayeeID              string          `json:"payee_id"`
	Currency             shared.Currency `json:"currency"`
	TotalEarnings        decimal.Decimal `json:"total_earnings"`
	AvailableBalance     decimal.Decimal `json:"available_balance"`
	PendingBalance       decimal.Decimal `json:"pending_balance"`
	WithdrawnAmount      decimal.Decimal `json:"withdrawn_amount"`
	PlatformFeesDeducted decimal.Decimal `json:"platform_fees_deducted"`
	LastWithdrawalAt     *time.Time      `json:"last_withdrawal_at,omitempty"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// New creates an empty earnings aggregate for a payee. Aggregates are created
// lazily on first accrual and never deleted.
func New(payeeID string, currency shared.Currency) *Earnings {
	now := time.Now().UTC()
	return &Earnings{
		PayeeID:              payeeID,
		Currency:             currency,
		TotalEarnings:        decimal.Zero,
		AvailableBalance:     decimal.Zero,
		PendingBalance:       decimal.Zero,
		WithdrawnAmount:      decimal.Zero,
		PlatformFeesDeducted: decimal.Zero,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// AddEarning credits the payee with gross minus platform fee and records the
// lifetime totals
func (e *Earnings) AddEarning(gross, platformFee decimal.Decimal) error {
	if !gross.IsPositive() {
		return shared.ValidationError{Field: "gross", Reason: "must be greater than zero"}
	}
	if platformFee.IsNegative() {
		return shared.ValidationError{Field: "platform_fee", Reason: "must not be negative"}
	}
	net := gross.Sub(platformFee)
	if net.IsNegative() {
		return shared.ValidationError{Field: "platform_fee", Reason: "exceeds the gross amount"}
	}

	e.TotalEarnings = e.TotalEarnings.Add(net)
	e.AvailableBalance = e.AvailableBalance.Add(net)
	e.PlatformFeesDeducted = e.PlatformFeesDeducted.Add(platformFee)
	e.touch()
	return nil
}

// Withdraw debits the available balance. The balance can never go negative.
func (e *Earnings) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if amount.GreaterThan(e.AvailableBalance) {
		return shared.InsufficientBalanceError{
			PayeeID:   e.PayeeID,
			Requested: amount.String(),
			Available: e.AvailableBalance.String(),
		}
	}

	e.AvailableBalance = e.AvailableBalance.Sub(amount)
	e.WithdrawnAmount = e.WithdrawnAmount.Add(amount)
	now := time.Now().UTC()
	e.LastWithdrawalAt = &now
	e.touch()
	return nil
}

// ReverseEarning debits a previously credited net amount when the underlying
// consultation is refunded. The reversal is clamped at the available balance:
// money the doctor already withdrew is not clawed back here, reconciliation
// handles that out of band.
func (e *Earnings) ReverseEarning(net decimal.Decimal) (decimal.Decimal, error) {
	if !net.IsPositive() {
		return decimal.Zero, shared.ValidationError{Field: "net", Reason: "must be greater than zero"}
	}

	reversed := net
	if reversed.GreaterThan(e.AvailableBalance) {
		reversed = e.AvailableBalance
	}
	e.AvailableBalance = e.AvailableBalance.Sub(reversed)
	e.TotalEarnings = e.TotalEarnings.Sub(reversed)
	e.touch()
	return reversed, nil
}

// CanWithdraw reports whether a withdrawal is currently allowed: the
// available balance meets the per-currency minimum and no cooldown is active.
// There is no cooldown before the first withdrawal.
func (e *Earnings) CanWithdraw(minimum decimal.Decimal, cooldown time.Duration, now time.Time) bool {
	if e.AvailableBalance.LessThan(minimum) {
		return false
	}
	if e.LastWithdrawalAt == nil {
		return true
	}
	return !now.Before(e.LastWithdrawalAt.Add(cooldown))
}

// NextWithdrawalEligible returns when the cooldown ends, or the zero time when
// no cooldown is active
func (e *Earnings) NextWithdrawalEligible(cooldown time.Duration) time.Time {
	if e.LastWithdrawalAt == nil {
		return time.Time{}
	}
	return e.LastWithdrawalAt.Add(cooldown)
}

// Reconciled reports whether the balance components sum to the lifetime total
func (e *Earnings) Reconciled() bool {
	return e.AvailableBalance.Add(e.PendingBalance).Add(e.WithdrawnAmount).Equal(e.TotalEarnings)
}

func (e *Earnings) touch() {
	e.UpdatedAt = time.Now().UTC()
	e.Version++
}
