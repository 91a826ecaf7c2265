// Package shared holds the vocabulary types used across the payment ledger:
// networks, currencies, transaction classification, and the policy matrix
// describing which currency settles on which network.
package shared

// Network identifies a supported blockchain network
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkPolygon  Network = "polygon"
)

// Currency identifies a settlement currency, either the network's native
// coin or a supported token symbol
type Currency string

const (
	CurrencyETH   Currency = "ETH"
	CurrencyMATIC Currency = "MATIC"
	CurrencyUSDC  Currency = "USDC"
	CurrencyUSDT  Currency = "USDT"
)

// TransactionType classifies a money movement
type TransactionType string

const (
	TransactionTypeAIConsultation    TransactionType = "ai_consultation"
	TransactionTypeVideoConsultation TransactionType = "video_consultation"
	TransactionTypeHomeVisit         TransactionType = "home_visit"
	TransactionTypeDoctorWithdrawal  TransactionType = "doctor_withdrawal"
	TransactionTypeRefund            TransactionType = "refund"
	TransactionTypePlatformFee       TransactionType = "platform_fee"
)

// TransactionStatus defines transaction lifecycle states
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// OutboxStatus defines event publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// nativeCurrencies maps each network to its native coin
var nativeCurrencies = map[Network]Currency{
	NetworkEthereum: CurrencyETH,
	NetworkPolygon:  CurrencyMATIC,
}

// compatiblePairs is the network/currency compatibility matrix. Policy data,
// not negotiable at call time.
var compatiblePairs = map[Network]map[Currency]bool{
	NetworkEthereum: {
		CurrencyETH:  true,
		CurrencyUSDC: true,
		CurrencyUSDT: true,
	},
	NetworkPolygon: {
		CurrencyMATIC: true,
		CurrencyUSDC:  true,
		CurrencyUSDT:  true,
	},
}

// IsValid reports whether the network is one of the supported networks
func (n Network) IsValid() bool {
	_, ok := compatiblePairs[n]
	return ok
}

// NativeCurrency returns the native coin for the network
func (n Network) NativeCurrency() Currency {
	return nativeCurrencies[n]
}

// IsValid reports whether the currency is supported on at least one network
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyETH, CurrencyMATIC, CurrencyUSDC, CurrencyUSDT:
		return true
	}
	return false
}

// IsNativeOn reports whether the currency is the native coin of the network
func (c Currency) IsNativeOn(n Network) bool {
	return nativeCurrencies[n] == c
}

// ValidatePair checks a (network, currency) pair against the compatibility
// matrix. Returns UnsupportedNetworkError, UnsupportedCurrencyError, or
// IncompatiblePairError on mismatch.
func ValidatePair(network Network, currency Currency) error {
	allowed, ok := compatiblePairs[network]
	if !ok {
		return UnsupportedNetworkError{Network: string(network)}
	}
	if !currency.IsValid() {
		return UnsupportedCurrencyError{Currency: string(currency)}
	}
	if !allowed[currency] {
		return IncompatiblePairError{Network: string(network), Currency: string(currency)}
	}
	return nil
}

// IsConsultation reports whether the type is a patient-paid consultation
func (t TransactionType) IsConsultation() bool {
	switch t {
	case TransactionTypeAIConsultation, TransactionTypeVideoConsultation, TransactionTypeHomeVisit:
		return true
	}
	return false
}

// IsRefundable reports whether completed transactions of this type may be
// refunded. Only consultation payments are refundable.
func (t TransactionType) IsRefundable() bool {
	return t.IsConsultation()
}

// HasPayee reports whether the consultation type routes earnings to a doctor.
// AI consultations have no human payee.
func (t TransactionType) HasPayee() bool {
	switch t {
	case TransactionTypeVideoConsultation, TransactionTypeHomeVisit:
		return true
	}
	return false
}

// IsValid reports whether the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeAIConsultation, TransactionTypeVideoConsultation, TransactionTypeHomeVisit,
		TransactionTypeDoctorWithdrawal, TransactionTypeRefund, TransactionTypePlatformFee:
		return true
	}
	return false
}
