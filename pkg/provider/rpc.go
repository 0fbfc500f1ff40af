package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCProvider is a Provider backed by a JSON-RPC endpoint, e.g. a wallet
// bridge or a local signer exposing the EIP-1193 methods over HTTP/WS
type RPCProvider struct {
	client *rpc.Client
}

// NewRPCProvider wraps an existing rpc client
func NewRPCProvider(client *rpc.Client) *RPCProvider {
	return &RPCProvider{client: client}
}

// DialRPCProvider connects to a JSON-RPC endpoint
func DialRPCProvider(ctx context.Context, rawURL string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet provider %s: %w", rawURL, err)
	}
	return NewRPCProvider(client), nil
}

// Verify RPCProvider implements Provider
var _ Provider = (*RPCProvider)(nil)

// Request implements Provider
func (p *RPCProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, method, params...); err != nil {
		return nil, toProviderError(err)
	}
	return raw, nil
}

// Close closes the underlying connection
func (p *RPCProvider) Close() {
	p.client.Close()
}

// toProviderError converts JSON-RPC error objects into *walleterr.ProviderError
// Transport errors are returned as is
func toProviderError(err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}

	providerErr := &walleterr.ProviderError{
		Code:    rpcErr.ErrorCode(),
		Message: rpcErr.Error(),
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		providerErr.Data = dataErr.ErrorData()
	}

	return providerErr
}
