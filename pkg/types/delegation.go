package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DelegationAuthorizationRequest is supplied by the backend for a gasless
// transfer from an account without native balance (EIP-7702)
type DelegationAuthorizationRequest struct {
	RelayerAddress           string          `json:"relayerAddress" validate:"required,eth_addr"`
	DelegationManagerAddress string          `json:"delegationManagerAddress" validate:"required,eth_addr"`
	DelegatorAddress         string          `json:"delegatorAddress" validate:"required,eth_addr"`
	ChainID                  int64           `json:"chainId,omitempty"`
	UserNonce                *uint64         `json:"userNonce,omitempty"`
	Domain                   json.RawMessage `json:"domain" validate:"required"`
	Types                    json.RawMessage `json:"types" validate:"required"`
	Message                  json.RawMessage `json:"message" validate:"required"`
}

// DelegationMessage is the subset of the delegation message echoed in the result
type DelegationMessage struct {
	Delegate  string          `json:"delegate"`
	Delegator string          `json:"delegator"`
	Authority string          `json:"authority"`
	Caveats   json.RawMessage `json:"caveats,omitempty"`
	Salt      json.RawMessage `json:"salt"`
}

// SaltString returns the salt as a string regardless of whether it was sent
// as a JSON string or number
func (m *DelegationMessage) SaltString() string {
	salt := strings.TrimSpace(string(m.Salt))
	var s string
	if err := json.Unmarshal(m.Salt, &s); err == nil {
		return s
	}
	return salt
}

// ParseMessage decodes the delegation message fields
func (r *DelegationAuthorizationRequest) ParseMessage() (*DelegationMessage, error) {
	var msg DelegationMessage
	if err := json.Unmarshal(r.Message, &msg); err != nil {
		return nil, fmt.Errorf("invalid delegation message: %w", err)
	}
	return &msg, nil
}

// SignedDelegation is the delegation echoed back with its signature
type SignedDelegation struct {
	Delegate  string `json:"delegate"`
	Delegator string `json:"delegator"`
	Authority string `json:"authority"`
	Salt      string `json:"salt"`
	Signature string `json:"signature"`
}

// SignedAuthorization is an EIP-7702 authorization tuple
type SignedAuthorization struct {
	ChainID int64  `json:"chainId"`
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	R       string `json:"r"`
	S       string `json:"s"`
	YParity uint8  `json:"yParity"`
}

// SignedDelegationAuthorization is handed to the relayer
type SignedDelegationAuthorization struct {
	Delegation    SignedDelegation    `json:"delegation"`
	Authorization SignedAuthorization `json:"authorization"`
}
