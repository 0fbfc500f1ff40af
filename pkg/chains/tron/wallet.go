package tron

import (
	"context"

	"github.com/DFXswiss/services-sub002/pkg/types"
)

// Wallet is an injected Tron wallet (TronLink-style provider)
type Wallet interface {
	// Connect asks the user to connect and returns the base58 account address
	Connect(ctx context.Context) (string, error)

	// DefaultAddress returns the connected account without prompting
	DefaultAddress() (string, bool)

	// SignMessage signs message with the TronLink message prefix (signMessageV2)
	SignMessage(ctx context.Context, message string) (string, error)

	// Sign adds the account signature to tx
	Sign(ctx context.Context, tx *types.TronTransaction) (*types.TronTransaction, error)
}
