package wallet

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/provider"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Connector connects the detected wallet and relays its account and chain changes
type Connector struct {
	detector *Detector
	registry *chains.Registry
	events   provider.EventSource
	logger   *slog.Logger

	accountsFeed event.Feed // string (normalized account, "" when disconnected)
	chainFeed    event.Feed // string (chain hex)

	pumpOnce sync.Once
	pumpSubs event.Subscription
}

// Option configures a Connector
type Option func(*Connector)

// WithLogger sets the connector logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventSource relays provider accountsChanged/chainChanged events to registrations
func WithEventSource(source provider.EventSource) Option {
	return func(c *Connector) {
		c.events = source
	}
}

// NewConnector creates a connector for the detected environment
func NewConnector(detector *Detector, registry *chains.Registry, opts ...Option) *Connector {
	c := &Connector{
		detector: detector,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect asks the wallet of kind for an account on chain
// EVM wallets are also switched to chain, adding it when unknown.
func (c *Connector) Connect(ctx context.Context, kind Kind, chain types.Chain) (string, error) {
	if !c.detector.IsInstalled(kind) {
		return "", &NotInstalledError{Kind: kind}
	}

	adapter, err := c.registry.ForChain(chain)
	if err != nil {
		return "", err
	}
	if family, ok := kind.Family(); ok && family != adapter.Family() {
		return "", &FamilyMismatchError{Kind: kind, Chain: string(chain)}
	}

	address, err := adapter.Connect(ctx, chain)
	if err != nil {
		c.logFailure("connect", chain, err)
		return "", err
	}

	if switcher, ok := adapter.(chains.ChainSwitcher); ok {
		if err := switcher.SwitchChain(ctx, chain); err != nil {
			c.logFailure("switch chain", chain, err)
			return "", err
		}
	}

	c.logger.Info("wallet connected", "kind", kind, "chain", chain, "address", address)
	return address, nil
}

// RequestAccount explicitly asks the wallet for an account
// Zero accounts is walleterr.ErrNoAccount.
func (c *Connector) RequestAccount(ctx context.Context, chain types.Chain) (string, error) {
	adapter, err := c.registry.ForChain(chain)
	if err != nil {
		return "", err
	}

	address, err := adapter.Connect(ctx, chain)
	if err != nil {
		c.logFailure("request account", chain, err)
		return "", err
	}
	return address, nil
}

// GetAccount passively reads the connected account; "" when none
func (c *Connector) GetAccount(ctx context.Context, chain types.Chain) (string, error) {
	adapter, err := c.registry.ForChain(chain)
	if err != nil {
		return "", err
	}
	return adapter.Account(ctx, chain)
}

// ActiveChain returns the chain the wallet of chain's family is on
// Families without a notion of an active chain report chain itself.
func (c *Connector) ActiveChain(ctx context.Context, chain types.Chain) (types.Chain, bool, error) {
	adapter, err := c.registry.ForChain(chain)
	if err != nil {
		return "", false, err
	}

	switcher, ok := adapter.(chains.ChainSwitcher)
	if !ok {
		return chain, true, nil
	}
	return switcher.ActiveChain(ctx)
}

// SwitchChain makes chain the wallet's active chain
func (c *Connector) SwitchChain(ctx context.Context, chain types.Chain) error {
	adapter, err := c.registry.ForChain(chain)
	if err != nil {
		return err
	}

	switcher, ok := adapter.(chains.ChainSwitcher)
	if !ok {
		return &walleterr.UnsupportedCapabilityError{Capability: "wallet_switchEthereumChain", ChainID: string(chain)}
	}
	return switcher.SwitchChain(ctx, chain)
}

// WatchAsset suggests a token to the wallet; returns whether it was added
func (c *Connector) WatchAsset(ctx context.Context, asset *types.Asset, image string) (bool, error) {
	if asset == nil {
		return false, &walleterr.UnsupportedCapabilityError{Capability: "wallet_watchAsset"}
	}

	adapter, err := c.registry.ForChain(asset.Chain)
	if err != nil {
		return false, err
	}

	watcher, ok := adapter.(chains.AssetWatcher)
	if !ok {
		return false, &walleterr.UnsupportedCapabilityError{Capability: "wallet_watchAsset", ChainID: string(asset.Chain)}
	}
	return watcher.WatchAsset(ctx, asset, image)
}

// Registration delivers account and chain changes until Unsubscribe is called
type Registration struct {
	accountsSub event.Subscription
	chainSub    event.Subscription
	quit        chan struct{}
	done        chan struct{}
	once        sync.Once
}

// Unsubscribe stops delivery and waits for the running callback to return
// It must not be called from inside a callback.
func (r *Registration) Unsubscribe() {
	r.once.Do(func() {
		r.accountsSub.Unsubscribe()
		r.chainSub.Unsubscribe()
		close(r.quit)
		<-r.done
	})
}

// Register reads the current account and chain, invokes both callbacks once
// with them, then keeps invoking them on every change
// Feeds are subscribed before the initial read. Changes arriving during the read
// are held and delivered right after the initial callbacks.
func (c *Connector) Register(ctx context.Context, chain types.Chain, onAccountChanged func(string), onChainChanged func(types.Chain, bool)) (*Registration, error) {
	accounts := make(chan string)
	chainIDs := make(chan string)
	ready := make(chan struct{})
	reg := &Registration{
		accountsSub: c.accountsFeed.Subscribe(accounts),
		chainSub:    c.chainFeed.Subscribe(chainIDs),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	go func() {
		defer close(reg.done)

		var (
			started        = ready
			pendingAccount *string
			pendingChain   *string
		)
		for {
			select {
			case account := <-accounts:
				if started != nil {
					pendingAccount = &account
					continue
				}
				onAccountChanged(account)
			case chainHex := <-chainIDs:
				if started != nil {
					pendingChain = &chainHex
					continue
				}
				onChainChanged(chains.ToChain(chainHex))
			case <-started:
				started = nil
				if pendingAccount != nil {
					onAccountChanged(*pendingAccount)
				}
				if pendingChain != nil {
					onChainChanged(chains.ToChain(*pendingChain))
				}
			case <-reg.quit:
				return
			}
		}
	}()

	account, err := c.GetAccount(ctx, chain)
	if err != nil {
		reg.Unsubscribe()
		return nil, err
	}
	active, known, err := c.ActiveChain(ctx, chain)
	if err != nil {
		reg.Unsubscribe()
		return nil, err
	}

	onAccountChanged(account)
	onChainChanged(active, known)
	close(ready)

	c.startPump()
	return reg, nil
}

// NotifyAccountsChanged delivers an accountsChanged event to all registrations
// Returns the number of registrations reached.
func (c *Connector) NotifyAccountsChanged(accounts []string) int {
	return c.accountsFeed.Send(normalizeAccount(accounts))
}

// NotifyChainChanged delivers a chainChanged event to all registrations
func (c *Connector) NotifyChainChanged(chainHex string) int {
	return c.chainFeed.Send(chainHex)
}

// Close stops relaying provider events
func (c *Connector) Close() {
	c.pumpOnce.Do(func() {})
	if c.pumpSubs != nil {
		c.pumpSubs.Unsubscribe()
	}
}

func (c *Connector) startPump() {
	if c.events == nil {
		return
	}

	c.pumpOnce.Do(func() {
		accounts := make(chan []string)
		chainIDs := make(chan string)
		accountsSub := c.events.SubscribeAccountsChanged(accounts)
		chainSub := c.events.SubscribeChainChanged(chainIDs)

		c.pumpSubs = event.NewSubscription(func(quit <-chan struct{}) error {
			defer accountsSub.Unsubscribe()
			defer chainSub.Unsubscribe()
			for {
				select {
				case list := <-accounts:
					c.NotifyAccountsChanged(list)
				case chainHex := <-chainIDs:
					c.NotifyChainChanged(chainHex)
				case err := <-accountsSub.Err():
					return err
				case err := <-chainSub.Err():
					return err
				case <-quit:
					return nil
				}
			}
		})
	})
}

func (c *Connector) logFailure(op string, chain types.Chain, err error) {
	if walleterr.IsUserCancelled(err) {
		c.logger.Debug(op+" cancelled by user", "chain", chain)
		return
	}
	c.logger.Warn(op+" failed", "chain", chain, "error", err)
}

// normalizeAccount returns the first account, checksummed when it is an EVM address
func normalizeAccount(accounts []string) string {
	if len(accounts) == 0 {
		return ""
	}
	if common.IsHexAddress(accounts[0]) {
		if checksummed, err := evm.ChecksumAddress(accounts[0]); err == nil {
			return checksummed
		}
	}
	return accounts[0]
}
