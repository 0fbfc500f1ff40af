package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/provider/providertest"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lowerAddress    = "0x52908400098527886e0f7030069857d2e4169ee7"
	checksumAddress = "0x52908400098527886E0F7030069857D2E4169EE7"
	solanaAddress   = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

// solanaAdapter is a minimal non-EVM family adapter
type solanaAdapter struct {
	account string
	err     error
}

func (a *solanaAdapter) Family() types.Family { return types.FamilySolana }

func (a *solanaAdapter) Connect(ctx context.Context, chain types.Chain) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.account, nil
}

func (a *solanaAdapter) Account(ctx context.Context, chain types.Chain) (string, error) {
	return a.account, nil
}

func (a *solanaAdapter) ValidateAddress(string) error { return nil }

func (a *solanaAdapter) BuildTransfer(context.Context, *types.TransferRequest) (*types.UnsignedTransaction, error) {
	return nil, errors.New("not implemented")
}

func (a *solanaAdapter) SignTransaction(context.Context, *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	return nil, errors.New("not implemented")
}

func (a *solanaAdapter) SignMessage(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (a *solanaAdapter) Broadcast(context.Context, *types.SignedTransaction) (string, error) {
	return "", errors.New("not implemented")
}

func newTestConnector(t *testing.T, mock *providertest.Mock, env Environment, opts ...Option) *Connector {
	t.Helper()
	registry, err := chains.NewRegistry(evm.NewAdapter(mock), &solanaAdapter{account: solanaAddress})
	require.NoError(t, err)
	return NewConnector(NewDetector(env), registry, opts...)
}

var metaMaskEnv = Environment{UserAgent: desktopUA, Flags: flags(FlagEthereum, FlagMetaMask, FlagPhantom)}

func TestConnect(t *testing.T) {
	mock := providertest.New().
		Return("eth_requestAccounts", []string{lowerAddress}).
		Return("wallet_switchEthereumChain", nil)

	address, err := newTestConnector(t, mock, metaMaskEnv).Connect(context.Background(), KindMetaMask, constants.ChainBase)
	require.NoError(t, err)
	assert.Equal(t, checksumAddress, address)
	assert.Equal(t, []string{"eth_requestAccounts", "wallet_switchEthereumChain"}, mock.Methods())
	assert.Equal(t, []any{map[string]any{"chainId": "0x2105"}}, mock.Calls("wallet_switchEthereumChain")[0].Params)
}

func TestConnectAddsUnknownChain(t *testing.T) {
	mock := providertest.New().
		Return("eth_requestAccounts", []string{lowerAddress}).
		Fail("wallet_switchEthereumChain", 4902, "Unrecognized chain ID").
		Return("wallet_addEthereumChain", nil)

	_, err := newTestConnector(t, mock, metaMaskEnv).Connect(context.Background(), KindMetaMask, constants.ChainArbitrum)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.CallCount("wallet_addEthereumChain"))
}

func TestConnectSolana(t *testing.T) {
	mock := providertest.New()

	address, err := newTestConnector(t, mock, metaMaskEnv).Connect(context.Background(), KindPhantom, constants.ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, solanaAddress, address)
	assert.Empty(t, mock.Methods())
}

func TestConnectErrors(t *testing.T) {
	tests := []struct {
		name     string
		mock     *providertest.Mock
		kind     Kind
		chain    types.Chain
		expectIs error
		check    func(t *testing.T, err error)
	}{
		{
			name:     "not installed",
			mock:     providertest.New(),
			kind:     KindTronLink,
			chain:    constants.ChainTron,
			expectIs: ErrNotInstalled,
		},
		{
			name:     "user rejects",
			mock:     providertest.New().Fail("eth_requestAccounts", 4001, "User rejected the request."),
			kind:     KindMetaMask,
			chain:    constants.ChainEthereum,
			expectIs: walleterr.ErrUserCancelled,
		},
		{
			name:     "request pending",
			mock:     providertest.New().Fail("eth_requestAccounts", -32002, "Already processing eth_requestAccounts"),
			kind:     KindMetaMask,
			chain:    constants.ChainEthereum,
			expectIs: walleterr.ErrRequestAlreadyPending,
		},
		{
			name:     "zero accounts",
			mock:     providertest.New().Return("eth_requestAccounts", []string{}),
			kind:     KindMetaMask,
			chain:    constants.ChainEthereum,
			expectIs: walleterr.ErrNoAccount,
		},
		{
			name:  "brand wallet on foreign family",
			mock:  providertest.New(),
			kind:  KindPhantom,
			chain: constants.ChainBase,
			check: func(t *testing.T, err error) {
				var mismatch *FamilyMismatchError
				assert.True(t, errors.As(err, &mismatch))
			},
		},
		{
			name:  "unsupported chain",
			mock:  providertest.New(),
			kind:  KindMetaMask,
			chain: "Dogecoin",
			check: func(t *testing.T, err error) {
				var unsupported *chains.UnsupportedChainError
				assert.True(t, errors.As(err, &unsupported))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestConnector(t, tt.mock, metaMaskEnv).Connect(context.Background(), tt.kind, tt.chain)
			require.Error(t, err)
			if tt.expectIs != nil {
				assert.ErrorIs(t, err, tt.expectIs)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
			assert.Zero(t, tt.mock.CallCount("wallet_switchEthereumChain"))
		})
	}
}

func TestAccountReads(t *testing.T) {
	t.Run("passive read without account", func(t *testing.T) {
		mock := providertest.New().Return("eth_accounts", []string{})

		address, err := newTestConnector(t, mock, metaMaskEnv).GetAccount(context.Background(), constants.ChainEthereum)
		require.NoError(t, err)
		assert.Empty(t, address)
		assert.Zero(t, mock.CallCount("eth_requestAccounts"))
	})

	t.Run("explicit request without account", func(t *testing.T) {
		mock := providertest.New().Return("eth_requestAccounts", []string{})

		_, err := newTestConnector(t, mock, metaMaskEnv).RequestAccount(context.Background(), constants.ChainEthereum)
		assert.ErrorIs(t, err, walleterr.ErrNoAccount)
	})

	t.Run("explicit request", func(t *testing.T) {
		mock := providertest.New().Return("eth_requestAccounts", []string{lowerAddress})

		address, err := newTestConnector(t, mock, metaMaskEnv).RequestAccount(context.Background(), constants.ChainPolygon)
		require.NoError(t, err)
		assert.Equal(t, checksumAddress, address)
	})
}

func TestSwitchChainAndWatchAsset(t *testing.T) {
	mock := providertest.New().
		Return("wallet_switchEthereumChain", nil).
		Return("wallet_watchAsset", true)
	c := newTestConnector(t, mock, metaMaskEnv)

	require.NoError(t, c.SwitchChain(context.Background(), constants.ChainGnosis))
	assert.ErrorIs(t, c.SwitchChain(context.Background(), constants.ChainSolana), walleterr.ErrUnsupportedCapability)

	added, err := c.WatchAsset(context.Background(), &types.Asset{
		Chain:           constants.ChainEthereum,
		Kind:            types.AssetKindToken,
		Symbol:          "ZCHF",
		ContractAddress: "0xB58E61C3098d85632Df34EecfB899A1Ed80921cB",
		Decimals:        18,
	}, "")
	require.NoError(t, err)
	assert.True(t, added)

	_, err = c.WatchAsset(context.Background(), &types.Asset{Chain: constants.ChainSolana, Kind: types.AssetKindToken}, "")
	assert.ErrorIs(t, err, walleterr.ErrUnsupportedCapability)
}

func TestRegister(t *testing.T) {
	mock := providertest.New().
		Return("eth_accounts", []string{lowerAddress}).
		Return("eth_chainId", "0x2105")
	c := newTestConnector(t, mock, metaMaskEnv, WithEventSource(mock))
	defer c.Close()

	accounts := make(chan string, 4)
	chainChanges := make(chan types.Chain, 4)

	reg, err := c.Register(context.Background(), constants.ChainEthereum,
		func(account string) { accounts <- account },
		func(chain types.Chain, known bool) {
			if !known {
				chain = "unknown"
			}
			chainChanges <- chain
		})
	require.NoError(t, err)

	// Initial values are delivered before Register returns
	require.Len(t, accounts, 1)
	require.Len(t, chainChanges, 1)
	assert.Equal(t, checksumAddress, <-accounts)
	assert.Equal(t, types.Chain(constants.ChainBase), <-chainChanges)

	// Provider events
	assert.Equal(t, 1, mock.EmitAccountsChanged([]string{"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}))
	assert.Equal(t, "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB", receive(t, accounts))

	assert.Equal(t, 1, mock.EmitChainChanged("0xa4b1"))
	assert.Equal(t, types.Chain(constants.ChainArbitrum), receive(t, chainChanges))

	assert.Equal(t, 1, mock.EmitChainChanged("0x539"))
	assert.Equal(t, types.Chain("unknown"), receive(t, chainChanges))

	// Disconnect
	assert.Equal(t, 1, c.NotifyAccountsChanged(nil))
	assert.Equal(t, "", receive(t, accounts))

	reg.Unsubscribe()
	reg.Unsubscribe()
	assert.Equal(t, 0, c.NotifyAccountsChanged([]string{lowerAddress}))
}

func TestRegisterChangeDuringInitialRead(t *testing.T) {
	const newAccount = "0x63c0c19a282a1B52b07dD5a65b58948A07DAE32B"

	var c *Connector
	reached := -1
	mock := providertest.New().
		On("eth_accounts", func([]any) (any, error) {
			reached = c.NotifyAccountsChanged([]string{newAccount})
			return []string{lowerAddress}, nil
		}).
		Return("eth_chainId", "0x2105")
	c = newTestConnector(t, mock, metaMaskEnv)

	accounts := make(chan string, 4)
	reg, err := c.Register(context.Background(), constants.ChainEthereum,
		func(account string) { accounts <- account },
		func(types.Chain, bool) {})
	require.NoError(t, err)
	defer reg.Unsubscribe()

	assert.Equal(t, 1, reached)
	assert.Equal(t, checksumAddress, receive(t, accounts))
	assert.Equal(t, newAccount, receive(t, accounts))
}

func TestRegisterInitialReadFails(t *testing.T) {
	mock := providertest.New().Fail("eth_accounts", -32603, "Internal error")

	_, err := newTestConnector(t, mock, metaMaskEnv).Register(context.Background(), constants.ChainEthereum,
		func(string) { t.Fatal("unexpected account callback") },
		func(types.Chain, bool) { t.Fatal("unexpected chain callback") })
	require.Error(t, err)
}

func TestRegisterNonEVM(t *testing.T) {
	c := newTestConnector(t, providertest.New(), metaMaskEnv)

	var account string
	var chain types.Chain
	reg, err := c.Register(context.Background(), constants.ChainSolana,
		func(a string) { account = a },
		func(ch types.Chain, _ bool) { chain = ch })
	require.NoError(t, err)
	defer reg.Unsubscribe()

	assert.Equal(t, solanaAddress, account)
	assert.Equal(t, types.Chain(constants.ChainSolana), chain)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		var zero T
		return zero
	}
}
