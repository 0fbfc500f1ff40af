package walleterr

import (
	"errors"
	"fmt"
)

// Taxonomy of wallet-facing failures
var (
	ErrUserCancelled         = errors.New("request cancelled by user")
	ErrRequestAlreadyPending = errors.New("a wallet request is already pending, please check your wallet")
	ErrUnsupportedCapability = errors.New("wallet does not support the requested capability")
	ErrTransactionFailed     = errors.New("transaction failed")
	ErrTransactionTimeout    = errors.New("transaction confirmation timed out")
	ErrNoAccount             = errors.New("no account connected")
)

// ProviderError is the error shape returned by a wallet provider (EIP-1193)
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode returns the provider error code (matches go-ethereum rpc.Error)
func (e *ProviderError) ErrorCode() int {
	return e.Code
}

// UnsupportedCapabilityError is returned when a wallet lacks a capability on a chain
type UnsupportedCapabilityError struct {
	Capability string
	ChainID    string
	Err        error // underlying cause, if the capability query failed
}

func (e *UnsupportedCapabilityError) Error() string {
	msg := fmt.Sprintf("wallet does not support %s on chain %s, use the regular transfer instead", e.Capability, e.ChainID)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UnsupportedCapabilityError) Is(target error) bool {
	return target == ErrUnsupportedCapability
}

func (e *UnsupportedCapabilityError) Unwrap() error {
	return e.Err
}

// TransactionFailedError is returned for an on-chain revert or an explicit
// failed status of a transaction or bundle
type TransactionFailedError struct {
	TxHash   string
	BundleID string
	Reason   string
}

func (e *TransactionFailedError) Error() string {
	ref := e.TxHash
	if ref == "" {
		ref = "bundle " + e.BundleID
	}
	if e.Reason != "" {
		return fmt.Sprintf("transaction failed (%s): %s", ref, e.Reason)
	}
	return fmt.Sprintf("transaction failed (%s)", ref)
}

func (e *TransactionFailedError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// TransactionTimeoutError is returned when confirmation was not observed in time
// The transaction may still land.
type TransactionTimeoutError struct {
	TxHash   string
	BundleID string
	Attempts int
}

func (e *TransactionTimeoutError) Error() string {
	ref := e.TxHash
	if ref == "" {
		ref = "bundle " + e.BundleID
	}
	return fmt.Sprintf("confirmation of %s not observed after %d attempts", ref, e.Attempts)
}

func (e *TransactionTimeoutError) Is(target error) bool {
	return target == ErrTransactionTimeout
}
