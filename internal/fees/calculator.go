// Package fees computes the pricing breakdown for a consultation or
// withdrawal. The calculator is pure: no I/O, no clock, no side effects.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/medichain-payments/internal/domain/shared"
)

// OperationKind selects a row of the static gas estimate table
type OperationKind string

const (
	OperationNativeTransfer OperationKind = "native_transfer"
	OperationTokenTransfer  OperationKind = "token_transfer"
)

// Quote is the full pricing breakdown for one service charge
type Quote struct {
	BaseFee       decimal.Decimal `json:"base_fee"`
	PlatformFee   decimal.Decimal `json:"platform_fee"`
	GasFee        decimal.Decimal `json:"gas_fee"`
	TotalFee      decimal.Decimal `json:"total_fee"`
	PayeeEarnings decimal.Decimal `json:"payee_earnings"`
}

// Schedule holds the fee policy: the platform's percentage cut, default base
// fees per service type, and the static gas estimate table. Gas figures are
// estimates keyed by (network, operation kind), not live quotes.
type Schedule struct {
	platformFeePercent decimal.Decimal
	defaultBaseFees    map[shared.TransactionType]decimal.Decimal
	gasEstimates       map[shared.Network]map[OperationKind]decimal.Decimal
}

// NewSchedule builds a fee schedule from the platform percentage and optional
// overrides for the gas table. Passing nil overrides keeps the defaults.
func NewSchedule(platformFeePercent decimal.Decimal, gasOverrides map[shared.Network]map[OperationKind]decimal.Decimal) *Schedule {
	gas := map[shared.Network]map[OperationKind]decimal.Decimal{
		shared.NetworkEthereum: {
			OperationNativeTransfer: decimal.RequireFromString("0.0008"),
			OperationTokenTransfer:  decimal.RequireFromString("0.0021"),
		},
		shared.NetworkPolygon: {
			OperationNativeTransfer: decimal.RequireFromString("0.01"),
			OperationTokenTransfer:  decimal.RequireFromString("0.04"),
		},
	}
	for network, kinds := range gasOverrides {
		if _, ok := gas[network]; !ok {
			gas[network] = map[OperationKind]decimal.Decimal{}
		}
		for kind, fee := range kinds {
			gas[network][kind] = fee
		}
	}

	return &Schedule{
		platformFeePercent: platformFeePercent,
		defaultBaseFees: map[shared.TransactionType]decimal.Decimal{
			shared.TransactionTypeAIConsultation:    decimal.RequireFromString("0.01"),
			shared.TransactionTypeVideoConsultation: decimal.RequireFromString("0.05"),
			shared.TransactionTypeHomeVisit:         decimal.RequireFromString("0.1"),
		},
		gasEstimates: gas,
	}
}

// Calculate prices a service charge. A positive doctorBaseFee overrides the
// default base fee for the service type. Payee earnings are base fee minus
// platform fee for consultations with a human payee, and zero for AI
// consultations.
func (s *Schedule) Calculate(serviceType shared.TransactionType, doctorBaseFee decimal.Decimal, network shared.Network, currency shared.Currency) (*Quote, error) {
	if !serviceType.IsConsultation() {
		return nil, shared.ConfigurationError{Detail: "no fee schedule for service type " + string(serviceType)}
	}

	baseFee, ok := s.defaultBaseFees[serviceType]
	if !ok {
		return nil, shared.ConfigurationError{Detail: "no base fee configured for service type " + string(serviceType)}
	}
	if doctorBaseFee.IsPositive() {
		baseFee = doctorBaseFee
	}

	platformFee := baseFee.Mul(s.platformFeePercent).Div(decimal.NewFromInt(100))
	gasFee, err := s.GasEstimate(network, operationFor(network, currency))
	if err != nil {
		return nil, err
	}

	payeeEarnings := decimal.Zero
	if serviceType.HasPayee() {
		payeeEarnings = baseFee.Sub(platformFee)
	}

	return &Quote{
		BaseFee:       baseFee,
		PlatformFee:   platformFee,
		GasFee:        gasFee,
		TotalFee:      baseFee.Add(platformFee).Add(gasFee),
		PayeeEarnings: payeeEarnings,
	}, nil
}

// GasEstimate returns the static gas estimate for an operation on a network
func (s *Schedule) GasEstimate(network shared.Network, kind OperationKind) (decimal.Decimal, error) {
	kinds, ok := s.gasEstimates[network]
	if !ok {
		return decimal.Zero, shared.ConfigurationError{Detail: "no gas estimates configured for network " + string(network)}
	}
	fee, ok := kinds[kind]
	if !ok {
		return decimal.Zero, shared.ConfigurationError{Detail: "no gas estimate for operation " + string(kind) + " on network " + string(network)}
	}
	return fee, nil
}

// PlatformFeePercent exposes the configured platform percentage
func (s *Schedule) PlatformFeePercent() decimal.Decimal {
	return s.platformFeePercent
}

func operationFor(network shared.Network, currency shared.Currency) OperationKind {
	if currency.IsNativeOn(network) {
		return OperationNativeTransfer
	}
	return OperationTokenTransfer
}
