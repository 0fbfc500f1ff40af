package svm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// StatusSource reports transaction status from Solana signature statuses
type StatusSource struct {
	chain     types.Chain
	endpoints []string
}

// NewStatusSource creates a signature-status source for chain
func NewStatusSource(chain types.Chain, endpoints []string) *StatusSource {
	return &StatusSource{
		chain:     chain,
		endpoints: endpoints,
	}
}

// TransactionStatus returns the status of the transaction with signature txHash
// Uses random start position for load balancing across RPC endpoints
func (s *StatusSource) TransactionStatus(ctx context.Context, chain types.Chain, txHash string) (*types.TransactionStatus, error) {
	if chain != s.chain {
		return nil, fmt.Errorf("status source for %s cannot serve %s", s.chain, chain)
	}
	if len(s.endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints available for chain %s", s.chain)
	}

	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature %q: %w", txHash, err)
	}

	startIdx := rand.Intn(len(s.endpoints))
	var lastErr error

	for i := 0; i < len(s.endpoints); i++ {
		if i > 0 {
			delay := time.Duration(i*constants.DelayBetweenRPCCalls) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		endpoint := s.endpoints[(startIdx+i)%len(s.endpoints)]

		status, err := s.statusFromEndpoint(ctx, endpoint, sig)
		if err != nil {
			lastErr = fmt.Errorf("RPC error on %s: %w", endpoint, err)
			continue
		}
		return status, nil
	}

	return nil, fmt.Errorf("all RPC endpoints failed for chain %s: %w", s.chain, lastErr)
}

func (s *StatusSource) statusFromEndpoint(ctx context.Context, endpoint string, sig solana.Signature) (*types.TransactionStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, constants.TransactionReceiptTimeout)
	defer cancel()

	client := rpc.New(endpoint)
	defer client.Close()

	result, err := client.GetSignatureStatuses(callCtx, true, sig)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Value) == 0 || result.Value[0] == nil {
		return &types.TransactionStatus{Status: types.TxStatePending}, nil
	}

	value := result.Value[0]
	if value.Err != nil {
		reason := fmt.Sprintf("%v", value.Err)
		return &types.TransactionStatus{Status: types.TxStateFailed, Error: &reason}, nil
	}

	switch value.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		status := &types.TransactionStatus{Status: types.TxStateConfirmed}
		if value.Confirmations != nil {
			confirmations := int(*value.Confirmations)
			status.Confirmations = &confirmations
		}
		return status, nil
	default:
		return &types.TransactionStatus{Status: types.TxStatePending}, nil
	}
}
