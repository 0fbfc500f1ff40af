package svm

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Wallet is an injected Solana wallet (Phantom-style provider)
type Wallet interface {
	// Connect asks the user to connect and returns the account public key
	Connect(ctx context.Context) (solana.PublicKey, error)

	// PublicKey returns the connected account without prompting
	PublicKey() (solana.PublicKey, bool)

	// SignMessage signs arbitrary bytes with the account key (ed25519)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	// SignTransaction adds the account signature to tx
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}
