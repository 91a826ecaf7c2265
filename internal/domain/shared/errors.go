package shared

import "fmt"

// ValidationError indicates a request field with a bad shape or range
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// UnsupportedNetworkError indicates a network outside the compatibility matrix
type UnsupportedNetworkError struct {
	Network string
}

func (e UnsupportedNetworkError) Error() string {
	return "unsupported network: " + e.Network
}

// UnsupportedCurrencyError indicates an unknown settlement currency
type UnsupportedCurrencyError struct {
	Currency string
}

func (e UnsupportedCurrencyError) Error() string {
	return "unsupported currency: " + e.Currency
}

// IncompatiblePairError indicates a currency that does not settle on the
// requested network
type IncompatiblePairError struct {
	Network  string
	Currency string
}

func (e IncompatiblePairError) Error() string {
	return fmt.Sprintf("currency %s is not available on network %s", e.Currency, e.Network)
}

// InvalidStateTransitionError indicates an illegal transaction lifecycle move
type InvalidStateTransitionError struct {
	TransactionID string
	From          TransactionStatus
	To            TransactionStatus
}

func (e InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("transaction %s cannot move from %s to %s", e.TransactionID, e.From, e.To)
}

// Is matches any InvalidStateTransitionError when the target carries no
// transaction ID
func (e InvalidStateTransitionError) Is(target error) bool {
	t, ok := target.(InvalidStateTransitionError)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// VerificationFailedError indicates the chain proof did not match the claim.
// Not necessarily an attacker; the check may simply be premature. The claimed
// transaction stays pending and the caller may retry confirmation later.
type VerificationFailedError struct {
	Hash   string
	Reason string
}

func (e VerificationFailedError) Error() string {
	return fmt.Sprintf("payment verification failed for %s: %s", e.Hash, e.Reason)
}

// Is matches any VerificationFailedError when the target carries no hash
func (e VerificationFailedError) Is(target error) bool {
	t, ok := target.(VerificationFailedError)
	if !ok {
		return false
	}
	if t.Hash == "" {
		return true
	}
	return e.Hash == t.Hash
}

// NoMatchingTransactionError indicates a verified on-chain payment that cannot
// be attributed to any pending transaction. The money did move; this must be
// surfaced distinctly from a verification failure.
type NoMatchingTransactionError struct {
	Hash        string
	FromAddress string
}

func (e NoMatchingTransactionError) Error() string {
	return fmt.Sprintf("no pending transaction matches verified payment %s from %s", e.Hash, e.FromAddress)
}

// Is matches any NoMatchingTransactionError when the target carries no hash
func (e NoMatchingTransactionError) Is(target error) bool {
	t, ok := target.(NoMatchingTransactionError)
	if !ok {
		return false
	}
	if t.Hash == "" {
		return true
	}
	return e.Hash == t.Hash
}

// InsufficientBalanceError indicates a withdrawal exceeding the available
// balance
type InsufficientBalanceError struct {
	PayeeID   string
	Requested string
	Available string
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("payee %s requested %s but only %s is available", e.PayeeID, e.Requested, e.Available)
}

// Is matches any InsufficientBalanceError when the target carries no payee
func (e InsufficientBalanceError) Is(target error) bool {
	t, ok := target.(InsufficientBalanceError)
	if !ok {
		return false
	}
	if t.PayeeID == "" {
		return true
	}
	return e.PayeeID == t.PayeeID
}

// ChainUnavailableError indicates a transient RPC failure. Retryable.
type ChainUnavailableError struct {
	Network string
	Err     error
}

func (e ChainUnavailableError) Error() string {
	return fmt.Sprintf("chain %s unavailable: %v", e.Network, e.Err)
}

func (e ChainUnavailableError) Unwrap() error {
	return e.Err
}

// Is matches any ChainUnavailableError regardless of network
func (e ChainUnavailableError) Is(target error) bool {
	_, ok := target.(ChainUnavailableError)
	return ok
}

// ConfigurationError indicates missing or inconsistent policy data, such as an
// unknown service type in the fee schedule
type ConfigurationError struct {
	Detail string
}

func (e ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}
