package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Capability names reported by wallet_getCapabilities (EIP-5792)
const (
	CapabilityAtomicBatch      = "atomicBatch"
	CapabilityAtomic           = "atomic"
	CapabilityPaymasterService = "paymasterService"
	CapabilityAuxiliaryFunds   = "auxiliaryFunds"
)

// Call is a single call inside a wallet_sendCalls bundle
type Call struct {
	To    string `json:"to" validate:"required,eth_addr"`
	Data  string `json:"data,omitempty" validate:"omitempty,hexadecimal"`
	Value string `json:"value,omitempty" validate:"omitempty,hexadecimal"`
}

// PaymasterServiceCapability requests sponsorship from an ERC-7677 paymaster
type PaymasterServiceCapability struct {
	URL      string `json:"url"`
	Optional bool   `json:"optional"`
}

// CallsCapabilities are the capabilities requested for a bundle
type CallsCapabilities struct {
	PaymasterService *PaymasterServiceCapability `json:"paymasterService,omitempty"`
}

// CallsBundle is the wallet_sendCalls request object
type CallsBundle struct {
	Version        string            `json:"version"`
	ChainID        string            `json:"chainId"`
	From           string            `json:"from"`
	AtomicRequired bool              `json:"atomicRequired"`
	Calls          []Call            `json:"calls"`
	Capabilities   CallsCapabilities `json:"capabilities"`
}

// BundleID identifies a submitted bundle
// Wallets return either a bare identifier or an object with an "id" field
type BundleID string

func (b *BundleID) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		if id == "" {
			return errors.New("empty bundle identifier")
		}
		*b = BundleID(id)
		return nil
	}

	var wrapped struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("invalid bundle identifier %s: %w", string(data), err)
	}
	if wrapped.ID == "" {
		return errors.New("empty bundle identifier")
	}

	*b = BundleID(wrapped.ID)
	return nil
}

// CallsState is the settlement state of a bundle
type CallsState string

const (
	CallsPending   CallsState = "PENDING"
	CallsConfirmed CallsState = "CONFIRMED"
	CallsFailed    CallsState = "FAILED"
)

// UnmarshalJSON accepts the legacy string states as well as the numeric
// status codes of the final EIP-5792 revision (1xx pending, 2xx confirmed,
// 4xx-6xx failed)
func (s *CallsState) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		switch {
		case code >= 100 && code < 200:
			*s = CallsPending
		case code >= 200 && code < 300:
			*s = CallsConfirmed
		case code >= 400 && code < 700:
			*s = CallsFailed
		default:
			return fmt.Errorf("unknown calls status code: %d", code)
		}
		return nil
	}

	var state string
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("invalid calls status: %w", err)
	}

	switch CallsState(strings.ToUpper(state)) {
	case CallsPending:
		*s = CallsPending
	case CallsConfirmed:
		*s = CallsConfirmed
	case CallsFailed:
		*s = CallsFailed
	default:
		return fmt.Errorf("unknown calls status: %s", state)
	}
	return nil
}

// CallReceipt is an on-chain receipt of a settled bundle
type CallReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status,omitempty"`
	BlockNumber     string `json:"blockNumber,omitempty"`
}

// CallsStatus is the wallet_getCallsStatus result
type CallsStatus struct {
	ID       string        `json:"id,omitempty"`
	ChainID  string        `json:"chainId,omitempty"`
	Status   CallsState    `json:"status"`
	Receipts []CallReceipt `json:"receipts,omitempty"`
}

// FirstTransactionHash returns the hash of the first receipt, if any
func (s *CallsStatus) FirstTransactionHash() (string, bool) {
	if s == nil || len(s.Receipts) == 0 || s.Receipts[0].TransactionHash == "" {
		return "", false
	}
	return s.Receipts[0].TransactionHash, true
}

// WalletCapabilities maps a chain hex id to its capability descriptors
type WalletCapabilities map[string]map[string]json.RawMessage

// Supported reports whether a capability on the exact chain hex carries
// "supported": true. Any other shape counts as unsupported.
func (c WalletCapabilities) Supported(chainHex, capability string) bool {
	raw, ok := c[chainHex][capability]
	if !ok {
		return false
	}

	var flag struct {
		Supported json.RawMessage `json:"supported"`
	}
	if err := json.Unmarshal(raw, &flag); err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(flag.Supported), []byte("true"))
}

// AtomicStatus returns the "atomic" capability status ("supported", "ready",
// "unsupported") or an empty string when the wallet does not report one
func (c WalletCapabilities) AtomicStatus(chainHex string) string {
	raw, ok := c[chainHex][CapabilityAtomic]
	if !ok {
		return ""
	}

	var atomic struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &atomic); err != nil {
		return ""
	}
	return atomic.Status
}
