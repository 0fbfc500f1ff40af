// Package signer produces and verifies plain message and typed data signatures
//
// The two kinds are kept apart: a relayer or contract verifying one rejects
// the other, so typed data never goes through a plain message signature.
package signer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/chains/svm"
	"github.com/DFXswiss/services-sub002/pkg/chains/tron"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer routes signature requests to the family adapter of a chain
type Signer struct {
	registry *chains.Registry
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

// NewSigner creates a signer over the adapter registry
func NewSigner(registry *chains.Registry, opts ...Option) *Signer {
	s := &Signer{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignMessage signs a plain message in the chain family's native encoding
func (s *Signer) SignMessage(ctx context.Context, chain types.Chain, address, message string) (string, error) {
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	adapter, err := s.registry.ForChain(chain)
	if err != nil {
		return "", err
	}

	signature, err := adapter.SignMessage(ctx, address, message)
	if err != nil {
		if !walleterr.IsUserCancelled(err) {
			s.logger.Warn("message signature failed", "chain", chain, "error", err)
		}
		return "", err
	}
	return signature, nil
}

// SignTypedData signs EIP-712 typed data (eth_signTypedData_v4)
// Only chains whose adapter implements chains.TypedDataSigner can do this.
func (s *Signer) SignTypedData(
	ctx context.Context,
	chain types.Chain,
	address string,
	domain apitypes.TypedDataDomain,
	typeDefs apitypes.Types,
	primaryType string,
	message apitypes.TypedDataMessage,
) (string, error) {
	if _, ok := typeDefs[primaryType]; !ok {
		return "", fmt.Errorf("primary type %q is not defined", primaryType)
	}

	adapter, err := s.registry.ForChain(chain)
	if err != nil {
		return "", err
	}

	typedSigner, ok := adapter.(chains.TypedDataSigner)
	if !ok {
		return "", &walleterr.UnsupportedCapabilityError{Capability: "eth_signTypedData_v4", ChainID: string(chain)}
	}

	return typedSigner.SignTypedData(ctx, address, apitypes.TypedData{
		Types:       typeDefs,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	})
}

// VerifyMessage checks a plain message signature produced by SignMessage
func VerifyMessage(chain types.Chain, address, message, signature string) (bool, error) {
	family, ok := chains.FamilyOf(chain)
	if !ok {
		return false, &chains.UnsupportedChainError{Chain: chain}
	}

	switch family {
	case types.FamilyEVM:
		recovered, err := evm.RecoverMessageSigner([]byte(message), signature)
		if err != nil {
			return false, err
		}
		return evm.AddressesEqual(recovered.Hex(), address), nil

	case types.FamilySolana:
		return svm.VerifyMessage(address, []byte(message), signature)

	case types.FamilyTron:
		recovered, err := tron.RecoverMessageSigner([]byte(message), signature)
		if err != nil {
			return false, err
		}
		return recovered == address, nil

	default:
		return false, &chains.UnsupportedChainError{Chain: chain}
	}
}

// VerifyTypedData checks an EIP-712 signature against address
func VerifyTypedData(address string, typedData apitypes.TypedData, signature string) (bool, error) {
	recovered, err := evm.RecoverTypedDataSigner(typedData, signature)
	if err != nil {
		return false, err
	}
	return evm.AddressesEqual(recovered.Hex(), address), nil
}
