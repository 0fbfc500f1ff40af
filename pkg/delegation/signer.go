// Package delegation signs the two typed-data payloads a relayer needs to
// execute a transfer on behalf of an account without native balance (EIP-7702)
package delegation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/go-playground/validator/v10"
)

const (
	// DelegationPrimaryType is the primary type of the backend-supplied delegation
	DelegationPrimaryType = "Delegation"

	// AuthorizationPrimaryType is the primary type of the locally built authorization
	AuthorizationPrimaryType = "Authorization"

	authorizationDomainName    = "EIP-7702"
	authorizationDomainVersion = "1"
)

// Signer produces SignedDelegationAuthorization payloads
type Signer struct {
	signer   chains.TypedDataSigner
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Signer
type Option func(*Signer)

// WithLogger sets the signer logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Signer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSigner creates a delegation signer on top of a typed data signer
func NewSigner(signer chains.TypedDataSigner, opts ...Option) *Signer {
	s := &Signer{
		signer:   signer,
		validate: validator.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign signs the delegation verbatim and the authorization for the delegator contract
func (s *Signer) Sign(ctx context.Context, req *types.DelegationAuthorizationRequest, signerAddress string) (*types.SignedDelegationAuthorization, error) {
	if req == nil {
		return nil, errors.New("delegation request is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid delegation request: %w", err)
	}
	if !common.IsHexAddress(signerAddress) {
		return nil, fmt.Errorf("invalid signer address: %s", signerAddress)
	}

	message, err := req.ParseMessage()
	if err != nil {
		return nil, err
	}

	chainID := req.ChainID
	if chainID == 0 {
		if chainID, err = domainChainID(req.Domain); err != nil {
			return nil, err
		}
	}

	// 1. Delegation, exactly as supplied
	payload, err := DelegationPayload(req)
	if err != nil {
		return nil, err
	}
	delegationSig, err := s.signer.SignTypedDataJSON(ctx, signerAddress, payload)
	if err != nil {
		return nil, err
	}

	// 2. Authorization for the delegator contract
	authorization := AuthorizationTypedData(chainID, req.DelegatorAddress, req.UserNonce)
	authorizationSig, err := s.signer.SignTypedData(ctx, signerAddress, authorization)
	if err != nil {
		return nil, err
	}

	// 3. Split
	parsed, err := ParseSignature(authorizationSig)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("delegation authorization signed",
		"chainId", chainID,
		"delegator", req.DelegatorAddress,
		"nonce", nonceOrZero(req.UserNonce))

	// 4. Assemble
	return &types.SignedDelegationAuthorization{
		Delegation: types.SignedDelegation{
			Delegate:  message.Delegate,
			Delegator: message.Delegator,
			Authority: message.Authority,
			Salt:      message.SaltString(),
			Signature: delegationSig,
		},
		Authorization: types.SignedAuthorization{
			ChainID: chainID,
			Address: req.DelegatorAddress,
			Nonce:   nonceOrZero(req.UserNonce),
			R:       parsed.R,
			S:       parsed.S,
			YParity: parsed.YParity,
		},
	}, nil
}

// DelegationPayload composes the eth_signTypedData_v4 payload from the raw
// domain/types/message of the request without re-encoding them
func DelegationPayload(req *types.DelegationAuthorizationRequest) ([]byte, error) {
	payload, err := json.Marshal(struct {
		Types       json.RawMessage `json:"types"`
		PrimaryType string          `json:"primaryType"`
		Domain      json.RawMessage `json:"domain"`
		Message     json.RawMessage `json:"message"`
	}{
		Types:       req.Types,
		PrimaryType: DelegationPrimaryType,
		Domain:      req.Domain,
		Message:     req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compose delegation payload: %w", err)
	}
	return payload, nil
}

// AuthorizationTypedData builds the EIP-7702 authorization typed data
// A nil nonce means the server sent none and defaults to 0; an explicit 0 is kept as is.
func AuthorizationTypedData(chainID int64, delegator string, nonce *uint64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			AuthorizationPrimaryType: []apitypes.Type{
				{Name: "chainId", Type: "uint256"},
				{Name: "address", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: AuthorizationPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    authorizationDomainName,
			Version: authorizationDomainVersion,
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: apitypes.TypedDataMessage{
			"chainId": big.NewInt(chainID),
			"address": delegator,
			"nonce":   new(big.Int).SetUint64(nonceOrZero(nonce)),
		},
	}
}

// Signature is a split authorization signature
type Signature struct {
	R       string
	S       string
	YParity uint8
}

// ParseSignature splits a 65-byte r ‖ s ‖ v signature
// v may be 27/28 or already 0/1.
func ParseSignature(signature string) (*Signature, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, &evm.InvalidSignatureError{Signature: signature, Reason: err.Error()}
	}
	if len(sig) != crypto.SignatureLength {
		return nil, &evm.InvalidSignatureError{
			Signature: signature,
			Reason:    fmt.Sprintf("expected %d bytes, got %d", crypto.SignatureLength, len(sig)),
		}
	}

	yParity, err := evm.NormalizeV(sig[crypto.RecoveryIDOffset])
	if err != nil {
		return nil, &evm.InvalidSignatureError{Signature: signature, Reason: err.Error()}
	}

	return &Signature{
		R:       hexutil.Encode(sig[:32]),
		S:       hexutil.Encode(sig[32:64]),
		YParity: yParity,
	}, nil
}

func nonceOrZero(nonce *uint64) uint64 {
	if nonce == nil {
		return 0
	}
	return *nonce
}

// domainChainID reads chainId from a raw typed data domain
// Wallet payloads carry it as a number, a decimal string or a hex string.
func domainChainID(domain json.RawMessage) (int64, error) {
	var fields struct {
		ChainID json.RawMessage `json:"chainId"`
	}
	if err := json.Unmarshal(domain, &fields); err != nil {
		return 0, fmt.Errorf("invalid delegation domain: %w", err)
	}
	if len(fields.ChainID) == 0 || string(fields.ChainID) == "null" {
		return 0, errors.New("delegation domain has no chainId")
	}

	raw := strings.Trim(string(fields.ChainID), `"`)
	value, ok := math.ParseBig256(raw)
	if !ok || !value.IsInt64() || value.Sign() <= 0 {
		return 0, fmt.Errorf("invalid delegation chainId: %s", string(fields.ChainID))
	}
	return value.Int64(), nil
}
