// Package txbuilder builds unsigned coin and token transfers for any supported chain
package txbuilder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Builder dispatches transfer requests to the family adapter of their chain
type Builder struct {
	registry *chains.Registry
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the builder logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder over the adapter registry
func NewBuilder(registry *chains.Registry, opts ...Option) *Builder {
	b := &Builder{
		registry: registry,
		validate: validator.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildCoinTransfer builds a native coin transfer on chain
func (b *Builder) BuildCoinTransfer(ctx context.Context, chain types.Chain, from, to string, amount decimal.Decimal, config types.TransferConfig) (*types.UnsignedTransaction, error) {
	return b.Build(ctx, &types.TransferRequest{
		Chain:  chain,
		From:   from,
		To:     to,
		Amount: amount,
		Config: config,
	})
}

// BuildTokenTransfer builds a token transfer on the asset's chain
func (b *Builder) BuildTokenTransfer(ctx context.Context, from, to string, asset *types.Asset, amount decimal.Decimal, config types.TransferConfig) (*types.UnsignedTransaction, error) {
	if !asset.IsToken() {
		return nil, fmt.Errorf("token transfer requires a token asset")
	}
	return b.Build(ctx, &types.TransferRequest{
		Chain:  asset.Chain,
		From:   from,
		To:     to,
		Amount: amount,
		Asset:  asset,
		Config: config,
	})
}

// Build validates req and hands it to the family adapter
func (b *Builder) Build(ctx context.Context, req *types.TransferRequest) (*types.UnsignedTransaction, error) {
	if err := b.check(req); err != nil {
		return nil, err
	}

	adapter, err := b.registry.ForChain(req.Chain)
	if err != nil {
		return nil, err
	}
	if err := adapter.ValidateAddress(req.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := adapter.ValidateAddress(req.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	tx, err := adapter.BuildTransfer(ctx, req)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("transfer built",
		"chain", req.Chain,
		"family", tx.Family,
		"token", req.Asset.IsToken(),
		"amount", tx.Amount)
	return tx, nil
}

func (b *Builder) check(req *types.TransferRequest) error {
	if req == nil {
		return fmt.Errorf("transfer request is required")
	}
	if err := b.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid transfer request: %w", err)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %s", req.Amount)
	}

	if req.Asset != nil {
		if err := b.validate.Struct(req.Asset); err != nil {
			return fmt.Errorf("invalid asset: %w", err)
		}
		if req.Asset.Chain != req.Chain {
			return fmt.Errorf("asset %s belongs to %s, not %s", req.Asset.Symbol, req.Asset.Chain, req.Chain)
		}
	}
	return nil
}
