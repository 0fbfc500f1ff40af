// Package broadcast submits signed transactions and polls for their final state
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/metrics"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
)

// StatusSource reports the status of a submitted transaction
// Implemented by: backend.Client, evm.ReceiptSource, svm.StatusSource
type StatusSource interface {
	TransactionStatus(ctx context.Context, chain types.Chain, txHash string) (*types.TransactionStatus, error)
}

// notFoundError is satisfied by status errors that mean "endpoint unsupported"
type notFoundError interface {
	error
	IsNotFound() bool
}

// Options bound a confirmation poll
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultOptions returns the default poll budget (120s, every 3s)
func DefaultOptions() Options {
	return Options{
		Timeout:      constants.DefaultConfirmationTimeout,
		PollInterval: constants.DefaultConfirmationPoll,
	}
}

// Result is the outcome of a broadcast
type Result struct {
	TxHash string
	Status types.TxState

	// ConfirmationUnknown is set when confirmation was not observed,
	// either because the budget ran out or because the chain has no status endpoint.
	// The transaction may still land.
	ConfirmationUnknown bool

	Confirmations *int
}

// Broadcaster submits signed transactions through the family adapters
type Broadcaster struct {
	registry  *chains.Registry
	status    StatusSource
	overrides map[types.Chain]StatusSource
	options   Options
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// Option configures a Broadcaster
type Option func(*Broadcaster)

// WithLogger sets the broadcaster logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder metrics.Recorder) Option {
	return func(b *Broadcaster) {
		if recorder != nil {
			b.metrics = recorder
		}
	}
}

// WithStatusSource overrides the status source for one chain
func WithStatusSource(chain types.Chain, source StatusSource) Option {
	return func(b *Broadcaster) {
		b.overrides[chain] = source
	}
}

// WithOptions sets the default poll budget used by Broadcast
func WithOptions(options Options) Option {
	return func(b *Broadcaster) {
		b.options = options
	}
}

// NewBroadcaster creates a broadcaster; status is the default status source
func NewBroadcaster(registry *chains.Registry, status StatusSource, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		registry:  registry,
		status:    status,
		overrides: make(map[types.Chain]StatusSource),
		options:   DefaultOptions(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit broadcasts a signed transaction and returns its hash
// Submission is never retried.
func (b *Broadcaster) Submit(ctx context.Context, signed *types.SignedTransaction) (string, error) {
	adapter, err := b.registry.ForChain(signed.Chain)
	if err != nil {
		return "", err
	}

	hash, err := adapter.Broadcast(ctx, signed)
	if err != nil {
		return "", err
	}

	b.metrics.IncCounter(metrics.BroadcastSubmitted, map[string]string{metrics.LabelChain: string(signed.Chain)})
	b.logger.Info("transaction submitted", "chain", signed.Chain, "txHash", hash)
	return hash, nil
}

// Broadcast submits a signed transaction and waits for its confirmation
func (b *Broadcaster) Broadcast(ctx context.Context, signed *types.SignedTransaction) (*Result, error) {
	hash, err := b.Submit(ctx, signed)
	if err != nil {
		return nil, err
	}
	return b.AwaitConfirmation(ctx, signed.Chain, hash, b.options)
}

// AwaitConfirmation polls the status of txHash until it reaches a final state
//   - confirmed: returns the result
//   - failed: returns walleterr.TransactionFailedError
//   - budget exhausted or status endpoint missing (404): returns the hash with ConfirmationUnknown
func (b *Broadcaster) AwaitConfirmation(ctx context.Context, chain types.Chain, txHash string, options Options) (*Result, error) {
	source := b.sourceFor(chain)
	if source == nil {
		b.logger.Warn("no status source, skipping confirmation", "chain", chain, "txHash", txHash)
		return &Result{TxHash: txHash, Status: types.TxStatePending, ConfirmationUnknown: true}, nil
	}

	if options.Timeout <= 0 {
		options.Timeout = constants.DefaultConfirmationTimeout
	}
	if options.PollInterval <= 0 {
		options.PollInterval = constants.DefaultConfirmationPoll
	}

	start := time.Now()
	deadline := start.Add(options.Timeout)
	timer := time.NewTimer(options.PollInterval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("awaiting confirmation of %s: %w", txHash, ctx.Err())
		case <-timer.C:
		}

		status, err := source.TransactionStatus(ctx, chain, txHash)
		if err != nil {
			var notFound notFoundError
			if errors.As(err, &notFound) && notFound.IsNotFound() {
				b.logger.Info("status endpoint unavailable, skipping confirmation", "chain", chain, "txHash", txHash)
				b.observe(chain, "unknown", start)
				return &Result{TxHash: txHash, Status: types.TxStatePending, ConfirmationUnknown: true}, nil
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("awaiting confirmation of %s: %w", txHash, ctx.Err())
			}
			return nil, fmt.Errorf("failed to get status of %s: %w", txHash, err)
		}

		switch status.Status {
		case types.TxStateConfirmed:
			b.logger.Info("transaction confirmed", "chain", chain, "txHash", txHash, "attempts", attempt)
			b.observe(chain, string(types.TxStateConfirmed), start)
			return &Result{TxHash: txHash, Status: types.TxStateConfirmed, Confirmations: status.Confirmations}, nil

		case types.TxStateFailed:
			reason := ""
			if status.Error != nil {
				reason = *status.Error
			}
			b.logger.Warn("transaction failed", "chain", chain, "txHash", txHash, "reason", reason)
			b.observe(chain, string(types.TxStateFailed), start)
			return nil, &walleterr.TransactionFailedError{TxHash: txHash, Reason: reason}
		}

		if !time.Now().Add(options.PollInterval).Before(deadline) {
			b.logger.Warn("confirmation not observed in time", "chain", chain, "txHash", txHash, "attempts", attempt)
			b.observe(chain, "timeout", start)
			return &Result{TxHash: txHash, Status: types.TxStatePending, ConfirmationUnknown: true}, nil
		}
		timer.Reset(options.PollInterval)
	}
}

func (b *Broadcaster) sourceFor(chain types.Chain) StatusSource {
	if source, ok := b.overrides[chain]; ok {
		return source
	}
	return b.status
}

func (b *Broadcaster) observe(chain types.Chain, outcome string, start time.Time) {
	labels := map[string]string{metrics.LabelChain: string(chain), metrics.LabelOutcome: outcome}
	b.metrics.IncCounter(metrics.ConfirmationOutcome, labels)
	b.metrics.ObserveLatency(metrics.ConfirmationLatency, time.Since(start), labels)
}
