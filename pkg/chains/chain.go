package chains

import (
	"context"

	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// FamilyAdapter provides wallet and transaction operations for one chain family
// One implementation exists per family (EVM, Solana, Tron)
type FamilyAdapter interface {
	// Family returns the chain family served by this adapter
	Family() types.Family

	// Connect explicitly asks the wallet for an account on chain
	// Zero accounts is an error (walleterr.ErrNoAccount)
	Connect(ctx context.Context, chain types.Chain) (string, error)

	// Account passively reads the connected account
	// Returns an empty string when no account is connected
	Account(ctx context.Context, chain types.Chain) (string, error)

	// ValidateAddress checks an address using chain-specific rules
	ValidateAddress(address string) error

	// BuildTransfer builds an unsigned coin or token transfer
	BuildTransfer(ctx context.Context, req *types.TransferRequest) (*types.UnsignedTransaction, error)

	// SignTransaction asks the wallet to sign an unsigned transaction
	SignTransaction(ctx context.Context, tx *types.UnsignedTransaction) (*types.SignedTransaction, error)

	// SignMessage produces a plain message signature in the family's native encoding
	// (hex for EVM, base58 for Solana, TronLink hex for Tron)
	SignMessage(ctx context.Context, address, message string) (string, error)

	// Broadcast submits a signed transaction and returns its hash
	Broadcast(ctx context.Context, tx *types.SignedTransaction) (string, error)
}

// TypedDataSigner is an optional interface for structured data signatures
// Implemented by: FamilyAdapter (EVM)
// Part of: EIP-712 (Ethereum typed structured data hashing and signing)
type TypedDataSigner interface {
	// SignTypedData signs typed data via eth_signTypedData_v4
	SignTypedData(ctx context.Context, address string, typedData apitypes.TypedData) (string, error)

	// SignTypedDataJSON signs an already serialized typed data payload verbatim
	SignTypedDataJSON(ctx context.Context, address string, payload []byte) (string, error)
}

// ChainSwitcher is an optional interface for wallets that hold an active chain
// Implemented by: FamilyAdapter (EVM)
// Part of: EIP-3326 (wallet_switchEthereumChain) and EIP-3085 (wallet_addEthereumChain)
type ChainSwitcher interface {
	// SwitchChain makes chain the wallet's active chain, adding it if unknown
	SwitchChain(ctx context.Context, chain types.Chain) error

	// ActiveChain returns the wallet's active chain
	ActiveChain(ctx context.Context) (types.Chain, bool, error)
}

// AssetWatcher is an optional interface for suggesting tokens to the wallet
// Implemented by: FamilyAdapter (EVM)
// Part of: EIP-747 (wallet_watchAsset)
type AssetWatcher interface {
	// WatchAsset suggests a token; returns whether the user added it
	WatchAsset(ctx context.Context, asset *types.Asset, image string) (bool, error)
}

// TransactionBackend builds and broadcasts transactions server-side
// Used by families whose transactions cannot be assembled client-side
type TransactionBackend interface {
	BuildTransaction(ctx context.Context, req *types.BuildTransactionRequest) (*types.BuildTransactionResponse, error)
	BroadcastTransaction(ctx context.Context, req *types.BroadcastRequest) (*types.BroadcastResponse, error)
}
