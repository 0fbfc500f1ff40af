package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var errReceiptNotFound = errors.New("receipt not found")

// ReceiptSource reports transaction status from EVM node receipts
// It is an alternative to the backend status endpoint with RPC failover
type ReceiptSource struct {
	chain     types.Chain
	endpoints []string
}

// NewReceiptSource creates a receipt-based status source
func NewReceiptSource(chain types.Chain, endpoints []string) *ReceiptSource {
	return &ReceiptSource{
		chain:     chain,
		endpoints: endpoints,
	}
}

// TransactionStatus returns the status of txHash
// A missing receipt is reported as pending
// Uses random start position for load balancing across RPC endpoints
func (r *ReceiptSource) TransactionStatus(ctx context.Context, chain types.Chain, txHash string) (*types.TransactionStatus, error) {
	if chain != r.chain {
		return nil, fmt.Errorf("receipt source for %s cannot serve %s", r.chain, chain)
	}
	if len(r.endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints available for chain %s", r.chain)
	}

	// Start at a random position for load balancing
	startIdx := rand.Intn(len(r.endpoints))
	var lastErr error

	for i := 0; i < len(r.endpoints); i++ {
		if i > 0 {
			delay := time.Duration(i*constants.DelayBetweenRPCCalls) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		// Wrap around using modulo for round-robin
		endpoint := r.endpoints[(startIdx+i)%len(r.endpoints)]

		status, err := r.statusFromEndpoint(ctx, endpoint, common.HexToHash(txHash))
		if err != nil {
			lastErr = &RPCError{Endpoint: endpoint, Err: err}
			continue
		}
		return status, nil
	}

	return nil, fmt.Errorf("all RPC endpoints failed for chain %s: %w", r.chain, lastErr)
}

func (r *ReceiptSource) statusFromEndpoint(ctx context.Context, endpoint string, txHash common.Hash) (*types.TransactionStatus, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	callCtx, cancel := context.WithTimeout(ctx, constants.TransactionReceiptTimeout)
	defer cancel()

	receipt, err := patchedTransactionReceipt(callCtx, client, txHash)
	if errors.Is(err, errReceiptNotFound) {
		return &types.TransactionStatus{Status: types.TxStatePending}, nil
	}
	if err != nil {
		return nil, err
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		reason := "execution reverted"
		return &types.TransactionStatus{Status: types.TxStateFailed, Error: &reason}, nil
	}

	status := &types.TransactionStatus{Status: types.TxStateConfirmed}
	if head, err := client.BlockNumber(callCtx); err == nil && receipt.BlockNumber != nil && head >= receipt.BlockNumber.Uint64() {
		confirmations := int(head-receipt.BlockNumber.Uint64()) + 1
		status.Confirmations = &confirmations
	}
	return status, nil
}

// patchedTransactionReceipt gets a transaction receipt with Base-specific fixes
func patchedTransactionReceipt(ctx context.Context, client *ethclient.Client, txHash common.Hash) (*ethtypes.Receipt, error) {
	var raw json.RawMessage
	err := client.Client().CallContext(ctx, &raw, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errReceiptNotFound
	}

	cleaned, err := stripBlockTimestampFromLogs(raw)
	if err != nil {
		return nil, err
	}

	var receipt ethtypes.Receipt
	if err := json.Unmarshal(cleaned, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// stripBlockTimestampFromLogs removes the blockTimestamp field from transaction logs
func stripBlockTimestampFromLogs(raw json.RawMessage) ([]byte, error) {
	var receiptMap map[string]interface{}
	if err := json.Unmarshal(raw, &receiptMap); err != nil {
		return nil, err
	}

	logs, ok := receiptMap["logs"].([]interface{})
	if ok {
		for _, log := range logs {
			logMap, ok := log.(map[string]interface{})
			if ok {
				delete(logMap, "blockTimestamp")
			}
		}
	}

	return json.Marshal(receiptMap)
}
