// Package gasless submits paymaster-sponsored call bundles (EIP-5792)
package gasless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/metrics"
	"github.com/DFXswiss/services-sub002/pkg/provider"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/utils"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
)

// Dispatcher sends sponsored call bundles through the wallet
// At most one submission runs at a time per Dispatcher.
type Dispatcher struct {
	provider     provider.Provider
	validate     *validator.Validate
	logger       *slog.Logger
	metrics      metrics.Recorder
	version      string
	pollInterval time.Duration
	maxAttempts  int

	inFlight sync.Mutex
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder metrics.Recorder) Option {
	return func(d *Dispatcher) {
		if recorder != nil {
			d.metrics = recorder
		}
	}
}

// WithVersion sets the wallet_sendCalls version tag
func WithVersion(version string) Option {
	return func(d *Dispatcher) {
		if version != "" {
			d.version = version
		}
	}
}

// WithPollInterval sets the bundle status poll interval
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// WithMaxAttempts sets the number of bundle status polls
func WithMaxAttempts(attempts int) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.maxAttempts = attempts
		}
	}
}

// NewDispatcher creates a dispatcher for an injected provider
func NewDispatcher(p provider.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider:     p,
		validate:     validator.New(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:      metrics.NoopRecorder{},
		version:      constants.CallsVersion,
		pollInterval: constants.DefaultBundlePollInterval,
		maxAttempts:  constants.DefaultBundleMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetCapabilities queries the wallet capabilities of address (wallet_getCapabilities)
func (d *Dispatcher) GetCapabilities(ctx context.Context, address string) (types.WalletCapabilities, error) {
	return provider.Call[types.WalletCapabilities](ctx, d.provider, "wallet_getCapabilities", address)
}

// SupportsPaymaster reports whether the connected wallet can sponsor calls on chainID
// Any failure counts as "not capable".
func (d *Dispatcher) SupportsPaymaster(ctx context.Context, chainID int64) bool {
	address, err := d.account(ctx)
	if err != nil {
		d.logger.Debug("paymaster check without account", "chainId", chainID, "error", err)
		return false
	}

	capable, err := d.paymasterCapable(ctx, address, chainHex(chainID))
	if err != nil {
		d.logger.Debug("capability query failed", "chainId", chainID, "error", err)
		return false
	}
	return capable
}

// SendSponsoredCalls submits calls with paymaster sponsorship and waits for settlement
// Returns the hash of the first on-chain transaction of the bundle.
func (d *Dispatcher) SendSponsoredCalls(ctx context.Context, calls []types.Call, paymasterURL string, chainID int64) (string, error) {
	if !d.inFlight.TryLock() {
		return "", walleterr.ErrRequestAlreadyPending
	}
	defer d.inFlight.Unlock()

	hash, err := d.sendSponsoredCalls(ctx, calls, paymasterURL, chainID)
	if err != nil {
		d.logFailure(err, chainID)
		return "", err
	}
	return hash, nil
}

func (d *Dispatcher) sendSponsoredCalls(ctx context.Context, calls []types.Call, paymasterURL string, chainID int64) (string, error) {
	if len(calls) == 0 {
		return "", errors.New("at least one call is required")
	}
	for i := range calls {
		if err := d.validate.Struct(&calls[i]); err != nil {
			return "", fmt.Errorf("invalid call %d: %w", i, err)
		}
	}
	if err := utils.ValidateServiceURL(paymasterURL); err != nil {
		return "", err
	}

	hexID := chainHex(chainID)

	// 1. Account
	address, err := d.account(ctx)
	if err != nil {
		return "", err
	}

	// 2. Capability, must succeed before anything is submitted
	capable, err := d.paymasterCapable(ctx, address, hexID)
	if err != nil || !capable {
		return "", &walleterr.UnsupportedCapabilityError{
			Capability: types.CapabilityPaymasterService,
			ChainID:    hexID,
			Err:        err,
		}
	}

	// 3. Submit
	bundle := types.CallsBundle{
		Version:        d.version,
		ChainID:        hexID,
		From:           address,
		AtomicRequired: false,
		Calls:          calls,
		Capabilities: types.CallsCapabilities{
			PaymasterService: &types.PaymasterServiceCapability{URL: paymasterURL, Optional: false},
		},
	}

	// 4. Normalized at decode time
	bundleID, err := provider.Call[types.BundleID](ctx, d.provider, "wallet_sendCalls", bundle)
	if err != nil {
		return "", err
	}

	d.metrics.IncCounter(metrics.BundleSubmitted, map[string]string{metrics.LabelChain: hexID})
	d.logger.Info("bundle submitted", "bundleId", bundleID, "chainId", hexID, "calls", len(calls))

	// 5. Poll
	return d.WaitForBundle(ctx, bundleID)
}

// GetCallsStatus returns the settlement status of a bundle (wallet_getCallsStatus)
func (d *Dispatcher) GetCallsStatus(ctx context.Context, id types.BundleID) (*types.CallsStatus, error) {
	status, err := provider.Call[types.CallsStatus](ctx, d.provider, "wallet_getCallsStatus", string(id))
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// WaitForBundle polls the bundle status until it settles or the attempts run out
func (d *Dispatcher) WaitForBundle(ctx context.Context, id types.BundleID) (string, error) {
	start := time.Now()
	timer := time.NewTimer(d.pollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("awaiting bundle %s: %w", id, ctx.Err())
		case <-timer.C:
		}

		status, err := d.GetCallsStatus(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to get status of bundle %s: %w", id, err)
		}

		switch status.Status {
		case types.CallsConfirmed:
			hash, ok := status.FirstTransactionHash()
			if !ok {
				return "", fmt.Errorf("bundle %s confirmed without receipts", id)
			}
			d.observe("confirmed", start)
			d.logger.Info("bundle confirmed", "bundleId", id, "txHash", hash, "attempts", attempt)
			return hash, nil

		case types.CallsFailed:
			d.observe("failed", start)
			return "", &walleterr.TransactionFailedError{BundleID: string(id)}
		}

		timer.Reset(d.pollInterval)
	}

	d.observe("timeout", start)
	return "", &walleterr.TransactionTimeoutError{BundleID: string(id), Attempts: d.maxAttempts}
}

func (d *Dispatcher) account(ctx context.Context) (string, error) {
	accounts, err := provider.Call[[]string](ctx, d.provider, "eth_accounts")
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", walleterr.ErrNoAccount
	}
	return evm.ChecksumAddress(accounts[0])
}

func (d *Dispatcher) paymasterCapable(ctx context.Context, address, hexID string) (bool, error) {
	capabilities, err := d.GetCapabilities(ctx, address)
	if err != nil {
		return false, err
	}
	return capabilities.Supported(hexID, types.CapabilityPaymasterService), nil
}

func (d *Dispatcher) observe(outcome string, start time.Time) {
	labels := map[string]string{metrics.LabelOutcome: outcome}
	d.metrics.IncCounter(metrics.BundleOutcome, labels)
	d.metrics.ObserveLatency(metrics.BundleLatency, time.Since(start), labels)
}

// logFailure logs a failed dispatch; a user cancellation is not a fault
func (d *Dispatcher) logFailure(err error, chainID int64) {
	switch {
	case errors.Is(err, walleterr.ErrUserCancelled):
		d.metrics.IncCounter(metrics.ProviderError, map[string]string{metrics.LabelKind: "user_cancelled"})
		d.logger.Debug("sponsored calls cancelled by user", "chainId", chainID)
	case errors.Is(err, walleterr.ErrUnsupportedCapability):
		d.logger.Info("paymaster not supported", "chainId", chainID, "error", err)
	default:
		d.logger.Error("sponsored calls failed", "chainId", chainID, "error", err)
	}
}

func chainHex(chainID int64) string {
	return hexutil.EncodeUint64(uint64(chainID))
}
