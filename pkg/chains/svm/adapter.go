package svm

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/utils"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Adapter implements chains.FamilyAdapter for Solana wallets
// Transfers are assembled by the transaction backend and only signed by the wallet
type Adapter struct {
	wallet  Wallet
	backend chains.TransactionBackend
	logger  *slog.Logger
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

// NewAdapter creates a Solana adapter
func NewAdapter(wallet Wallet, backend chains.TransactionBackend, opts ...Option) *Adapter {
	a := &Adapter{
		wallet:  wallet,
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verify Adapter implements interface
var _ chains.FamilyAdapter = (*Adapter)(nil)

// Family implements chains.FamilyAdapter
func (a *Adapter) Family() types.Family {
	return types.FamilySolana
}

// Connect implements chains.FamilyAdapter
func (a *Adapter) Connect(ctx context.Context, chain types.Chain) (string, error) {
	pubKey, err := a.wallet.Connect(ctx)
	if err != nil {
		return "", walleterr.Classify(err)
	}
	if pubKey.IsZero() {
		return "", walleterr.ErrNoAccount
	}
	return pubKey.String(), nil
}

// Account implements chains.FamilyAdapter
func (a *Adapter) Account(ctx context.Context, chain types.Chain) (string, error) {
	pubKey, ok := a.wallet.PublicKey()
	if !ok || pubKey.IsZero() {
		return "", nil
	}
	return pubKey.String(), nil
}

// ValidateAddress implements chains.FamilyAdapter
func (a *Adapter) ValidateAddress(address string) error {
	return ValidateAddress(address)
}

// BuildTransfer implements chains.FamilyAdapter
// The backend returns a base64 serialized transaction with a recent blockhash
func (a *Adapter) BuildTransfer(ctx context.Context, req *types.TransferRequest) (*types.UnsignedTransaction, error) {
	info, ok := chains.Info(req.Chain)
	if !ok || info.Family != types.FamilySolana {
		return nil, &chains.UnsupportedChainError{Chain: req.Chain}
	}
	if err := ValidateAddress(req.From); err != nil {
		return nil, err
	}
	if err := ValidateAddress(req.To); err != nil {
		return nil, err
	}

	decimals := info.NativeCurrency.Decimals
	assetID := req.Config.AssetID
	if req.Asset != nil {
		assetID = req.Asset.ID
		if req.Asset.IsToken() {
			decimals = req.Asset.Decimals
		}
	}

	amount, display, err := utils.ResolveAmount(req.Amount, decimals, req.Config.IsBaseUnitAmount)
	if err != nil {
		return nil, err
	}

	resp, err := a.backend.BuildTransaction(ctx, &types.BuildTransactionRequest{
		Chain:       req.Chain,
		FromAddress: req.From,
		ToAddress:   req.To,
		Amount:      display.String(),
		AssetID:     assetID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	tx, err := DecodeTransaction(resp.RawTransaction, resp.Encoding)
	if err != nil {
		return nil, err
	}

	blockhash := tx.Message.RecentBlockhash.String()
	if resp.RecentBlockhash != nil && *resp.RecentBlockhash != "" {
		blockhash = *resp.RecentBlockhash
	}

	return &types.UnsignedTransaction{
		Chain:           req.Chain,
		Family:          types.FamilySolana,
		From:            req.From,
		To:              req.To,
		Amount:          amount,
		Asset:           req.Asset,
		Solana:          tx,
		RecentBlockhash: blockhash,
	}, nil
}

// DecodeTransaction decodes a base64 serialized Solana transaction
func DecodeTransaction(raw, encoding string) (*solana.Transaction, error) {
	if encoding != "" && encoding != types.EncodingBase64 {
		return nil, fmt.Errorf("unsupported Solana transaction encoding: %s", encoding)
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 transaction: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return tx, nil
}

// SignTransaction implements chains.FamilyAdapter
func (a *Adapter) SignTransaction(ctx context.Context, tx *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	if tx.Solana == nil {
		return nil, fmt.Errorf("transaction has no Solana payload")
	}

	signed, err := a.wallet.SignTransaction(ctx, tx.Solana)
	if err != nil {
		return nil, walleterr.Classify(err)
	}

	if err := verifySigner(signed, tx.From); err != nil {
		return nil, err
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return &types.SignedTransaction{
		Chain:    tx.Chain,
		Family:   types.FamilySolana,
		Raw:      raw,
		Encoding: types.EncodingBase64,
		Hash:     signed.Signatures[0].String(),
	}, nil
}

// verifySigner checks that the wallet signed tx as from
func verifySigner(tx *solana.Transaction, from string) error {
	signer, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return &chains.InvalidAddressError{Family: types.FamilySolana, Address: from, Err: err}
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	for i, key := range tx.Message.AccountKeys {
		if i >= required || i >= len(tx.Signatures) {
			break
		}
		if key.Equals(signer) {
			if !ed25519.Verify(signer[:], message, tx.Signatures[i][:]) {
				return fmt.Errorf("invalid signature for %s", from)
			}
			return nil
		}
	}

	return fmt.Errorf("transaction is not signed by %s", from)
}

// SignMessage implements chains.FamilyAdapter
// The signature is returned base58 encoded
func (a *Adapter) SignMessage(ctx context.Context, address, message string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}

	sig, err := a.wallet.SignMessage(ctx, []byte(message))
	if err != nil {
		return "", walleterr.Classify(err)
	}
	return EncodeSignature(sig)
}

// Broadcast implements chains.FamilyAdapter
func (a *Adapter) Broadcast(ctx context.Context, tx *types.SignedTransaction) (string, error) {
	if tx.Encoding != types.EncodingBase64 {
		return "", fmt.Errorf("unsupported Solana transaction encoding: %s", tx.Encoding)
	}

	resp, err := a.backend.BroadcastTransaction(ctx, &types.BroadcastRequest{
		Chain:             tx.Chain,
		SignedTransaction: tx.Encoded(),
	})
	if err != nil {
		return "", err
	}

	hash := resp.TxHash
	if hash == "" {
		hash = tx.Hash
	}

	a.logger.Info("transaction broadcast", "chain", tx.Chain, "txHash", hash)
	return hash, nil
}
