package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/event"
)

// Provider is an injected wallet provider (EIP-1193 request surface)
type Provider interface {
	// Request sends a JSON-RPC request to the wallet and returns the raw result
	// Provider failures are returned as *walleterr.ProviderError
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// EventSource is an optional interface for providers that emit wallet events
// Implemented by: Provider
// Part of: EIP-1193 (accountsChanged, chainChanged)
type EventSource interface {
	// SubscribeAccountsChanged delivers the new account list on every change
	SubscribeAccountsChanged(ch chan<- []string) event.Subscription

	// SubscribeChainChanged delivers the new chain id (hex) on every change
	SubscribeChainChanged(ch chan<- string) event.Subscription
}

// Call issues a request and decodes its result into T
// Every provider failure passes through the error classifier
func Call[T any](ctx context.Context, p Provider, method string, params ...any) (T, error) {
	var result T

	raw, err := p.Request(ctx, method, params...)
	if err != nil {
		return result, walleterr.Classify(err)
	}

	if len(raw) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("failed to decode %s result: %w", method, err)
	}

	return result, nil
}
