package evm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/provider"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Adapter implements chains.FamilyAdapter for EVM wallets plus the optional
// EVM interfaces:
// - chains.TypedDataSigner (eth_signTypedData_v4)
// - chains.ChainSwitcher (wallet_switchEthereumChain / wallet_addEthereumChain)
// - chains.AssetWatcher (wallet_watchAsset)
type Adapter struct {
	provider provider.Provider
	logger   *slog.Logger
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the adapter logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter creates an EVM adapter for an injected provider
func NewAdapter(p provider.Provider, opts ...Option) *Adapter {
	a := &Adapter{
		provider: p,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verify Adapter implements all interfaces
var _ chains.FamilyAdapter = (*Adapter)(nil)
var _ chains.TypedDataSigner = (*Adapter)(nil)
var _ chains.ChainSwitcher = (*Adapter)(nil)
var _ chains.AssetWatcher = (*Adapter)(nil)

// Family implements chains.FamilyAdapter
func (a *Adapter) Family() types.Family {
	return types.FamilyEVM
}

// Provider returns the injected provider
func (a *Adapter) Provider() provider.Provider {
	return a.provider
}

// Connect implements chains.FamilyAdapter
func (a *Adapter) Connect(ctx context.Context, chain types.Chain) (string, error) {
	accounts, err := provider.Call[[]string](ctx, a.provider, "eth_requestAccounts")
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", walleterr.ErrNoAccount
	}
	return ChecksumAddress(accounts[0])
}

// Account implements chains.FamilyAdapter
func (a *Adapter) Account(ctx context.Context, chain types.Chain) (string, error) {
	accounts, err := provider.Call[[]string](ctx, a.provider, "eth_accounts")
	if err != nil {
		// Not yet authorized by the user: nothing is connected
		if code, ok := walleterr.Code(err); ok && code == constants.CodeUnauthorized {
			return "", nil
		}
		return "", err
	}
	if len(accounts) == 0 {
		return "", nil
	}
	return ChecksumAddress(accounts[0])
}

// ValidateAddress implements chains.FamilyAdapter
func (a *Adapter) ValidateAddress(address string) error {
	return ValidateAddress(address)
}

// ActiveChain implements chains.ChainSwitcher
// Returns false if the wallet is on a chain outside the registry
func (a *Adapter) ActiveChain(ctx context.Context) (types.Chain, bool, error) {
	chainHex, err := provider.Call[string](ctx, a.provider, "eth_chainId")
	if err != nil {
		return "", false, err
	}
	chain, ok := chains.ToChain(chainHex)
	return chain, ok, nil
}

// SwitchChain implements chains.ChainSwitcher
// Falls back to wallet_addEthereumChain when the wallet does not know the chain
func (a *Adapter) SwitchChain(ctx context.Context, chain types.Chain) error {
	chainHex, ok := chains.ToChainHex(chain)
	if !ok {
		return &chains.UnsupportedChainError{Chain: chain}
	}

	_, err := provider.Call[any](ctx, a.provider, "wallet_switchEthereumChain", map[string]string{"chainId": chainHex})
	if err == nil {
		return nil
	}

	if code, ok := walleterr.Code(err); !ok || code != constants.CodeUnsupportedChain {
		return err
	}

	payload, ok := chains.ToAddChainPayload(chain)
	if !ok {
		return err
	}

	a.logger.Info("chain unknown to wallet, adding it", "chain", chain, "chainId", chainHex)
	if _, err := provider.Call[any](ctx, a.provider, "wallet_addEthereumChain", payload); err != nil {
		return err
	}
	return nil
}

// WatchAsset implements chains.AssetWatcher
func (a *Adapter) WatchAsset(ctx context.Context, asset *types.Asset, image string) (bool, error) {
	if !asset.IsToken() {
		return false, fmt.Errorf("only tokens can be watched, got %s", asset.Kind)
	}
	address, err := ChecksumAddress(asset.ContractAddress)
	if err != nil {
		return false, err
	}

	options := map[string]any{
		"address":  address,
		"symbol":   asset.Symbol,
		"decimals": asset.Decimals,
	}
	if image != "" {
		options["image"] = image
	}

	return provider.Call[bool](ctx, a.provider, "wallet_watchAsset", map[string]any{
		"type":    "ERC20",
		"options": options,
	})
}

// SignMessage implements chains.FamilyAdapter (personal_sign, EIP-191)
func (a *Adapter) SignMessage(ctx context.Context, address, message string) (string, error) {
	signer, err := ChecksumAddress(address)
	if err != nil {
		return "", err
	}
	return provider.Call[string](ctx, a.provider, "personal_sign", hexutil.Encode([]byte(message)), signer)
}

// SignTypedData implements chains.TypedDataSigner
func (a *Adapter) SignTypedData(ctx context.Context, address string, typedData apitypes.TypedData) (string, error) {
	payload, err := MarshalTypedData(typedData)
	if err != nil {
		return "", err
	}
	return a.SignTypedDataJSON(ctx, address, payload)
}

// SignTypedDataJSON implements chains.TypedDataSigner
func (a *Adapter) SignTypedDataJSON(ctx context.Context, address string, payload []byte) (string, error) {
	signer, err := ChecksumAddress(address)
	if err != nil {
		return "", err
	}
	return provider.Call[string](ctx, a.provider, "eth_signTypedData_v4", signer, string(payload))
}

// SignTransaction implements chains.FamilyAdapter (eth_signTransaction)
func (a *Adapter) SignTransaction(ctx context.Context, tx *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	if tx.EVM == nil {
		return nil, fmt.Errorf("transaction has no EVM payload")
	}

	rawHex, err := provider.Call[string](ctx, a.provider, "eth_signTransaction", tx.EVM)
	if err != nil {
		return nil, err
	}

	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signed transaction: %w", err)
	}

	var signed ethtypes.Transaction
	if err := signed.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	return &types.SignedTransaction{
		Chain:    tx.Chain,
		Family:   types.FamilyEVM,
		Raw:      raw,
		Encoding: types.EncodingHex,
		Hash:     signed.Hash().Hex(),
	}, nil
}

// SendTransaction lets the wallet sign and submit in one step (eth_sendTransaction)
func (a *Adapter) SendTransaction(ctx context.Context, tx *types.UnsignedTransaction) (string, error) {
	if tx.EVM == nil {
		return "", fmt.Errorf("transaction has no EVM payload")
	}
	return provider.Call[string](ctx, a.provider, "eth_sendTransaction", tx.EVM)
}

// Broadcast implements chains.FamilyAdapter (eth_sendRawTransaction)
func (a *Adapter) Broadcast(ctx context.Context, tx *types.SignedTransaction) (string, error) {
	if tx.Encoding != types.EncodingHex {
		return "", fmt.Errorf("unsupported EVM transaction encoding: %s", tx.Encoding)
	}

	hash, err := provider.Call[string](ctx, a.provider, "eth_sendRawTransaction", tx.Encoded())
	if err != nil {
		return "", err
	}

	a.logger.Info("transaction broadcast", "chain", tx.Chain, "txHash", hash)
	return hash, nil
}
