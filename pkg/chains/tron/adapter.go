package tron

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/utils"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
)

// Adapter implements chains.FamilyAdapter for Tron wallets
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

// NewAdapter creates a Tron adapter
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
	return types.FamilyTron
}

// Connect implements chains.FamilyAdapter
func (a *Adapter) Connect(ctx context.Context, chain types.Chain) (string, error) {
	address, err := a.wallet.Connect(ctx)
	if err != nil {
		return "", walleterr.Classify(err)
	}
	if address == "" {
		return "", walleterr.ErrNoAccount
	}
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	return address, nil
}

// Account implements chains.FamilyAdapter
func (a *Adapter) Account(ctx context.Context, chain types.Chain) (string, error) {
	address, ok := a.wallet.DefaultAddress()
	if !ok {
		return "", nil
	}
	return address, nil
}

// ValidateAddress implements chains.FamilyAdapter
func (a *Adapter) ValidateAddress(address string) error {
	return ValidateAddress(address)
}

// BuildTransfer implements chains.FamilyAdapter
func (a *Adapter) BuildTransfer(ctx context.Context, req *types.TransferRequest) (*types.UnsignedTransaction, error) {
	info, ok := chains.Info(req.Chain)
	if !ok || info.Family != types.FamilyTron {
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

	unsigned := &types.UnsignedTransaction{
		Chain:  req.Chain,
		Family: types.FamilyTron,
		From:   req.From,
		To:     req.To,
		Amount: amount,
		Asset:  req.Asset,
		Tron:   tx,
	}
	if resp.Expiration != nil {
		unsigned.Expiration = *resp.Expiration
	}
	return unsigned, nil
}

// SignTransaction implements chains.FamilyAdapter
func (a *Adapter) SignTransaction(ctx context.Context, tx *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	if tx.Tron == nil {
		return nil, fmt.Errorf("transaction has no Tron payload")
	}

	signed, err := a.wallet.Sign(ctx, tx.Tron)
	if err != nil {
		return nil, walleterr.Classify(err)
	}
	if len(signed.Signature) == 0 {
		return nil, fmt.Errorf("wallet returned an unsigned transaction")
	}
	if signed.TxID != tx.Tron.TxID {
		return nil, &TxIDMismatchError{Expected: tx.Tron.TxID, Got: signed.TxID}
	}
	if err := VerifyTxID(signed); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(signed)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return &types.SignedTransaction{
		Chain:    tx.Chain,
		Family:   types.FamilyTron,
		Raw:      raw,
		Encoding: types.EncodingJSON,
		Hash:     signed.TxID,
	}, nil
}

// SignMessage implements chains.FamilyAdapter
// The signature is returned as produced by the wallet (0x hex)
func (a *Adapter) SignMessage(ctx context.Context, address, message string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}

	signature, err := a.wallet.SignMessage(ctx, message)
	if err != nil {
		return "", walleterr.Classify(err)
	}
	return signature, nil
}

// Broadcast implements chains.FamilyAdapter
func (a *Adapter) Broadcast(ctx context.Context, tx *types.SignedTransaction) (string, error) {
	if tx.Encoding != types.EncodingJSON {
		return "", fmt.Errorf("unsupported Tron transaction encoding: %s", tx.Encoding)
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
