package gasless

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/provider/providertest"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	account      = "0x52908400098527886e0f7030069857d2e4169ee7"
	paymasterURL = "https://paymaster.example/v1"
	baseChainID  = 8453
)

var transferCall = types.Call{
	To:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	Data:  "0xa9059cbb",
	Value: "0x0",
}

func pending() map[string]any {
	return map[string]any{"status": "PENDING"}
}

func sponsoringWallet() *providertest.Mock {
	return providertest.New().
		Return("eth_accounts", []string{account}).
		Return("wallet_getCapabilities", map[string]any{
			"0x2105": map[string]any{"paymasterService": map[string]any{"supported": true}},
		}).
		Return("wallet_sendCalls", map[string]any{"id": "b1"})
}

func newTestDispatcher(m *providertest.Mock, opts ...Option) *Dispatcher {
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	return NewDispatcher(m, opts...)
}

func TestSendSponsoredCalls(t *testing.T) {
	m := sponsoringWallet().Sequence("wallet_getCallsStatus",
		pending(),
		pending(),
		map[string]any{"status": "CONFIRMED", "receipts": []any{map[string]any{"transactionHash": "0xabc"}}},
	)

	hash, err := newTestDispatcher(m).SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
	assert.Equal(t, 3, m.CallCount("wallet_getCallsStatus"))

	assert.Equal(t, []string{
		"eth_accounts",
		"wallet_getCapabilities",
		"wallet_sendCalls",
		"wallet_getCallsStatus",
		"wallet_getCallsStatus",
		"wallet_getCallsStatus",
	}, m.Methods())

	// Request shape
	caps := m.Calls("wallet_getCapabilities")[0]
	assert.Equal(t, []any{"0x52908400098527886E0F7030069857D2E4169EE7"}, caps.Params)

	send := m.Calls("wallet_sendCalls")[0]
	require.Len(t, send.Params, 1)
	bundle := send.Params[0].(map[string]any)
	assert.Equal(t, "2.0.0", bundle["version"])
	assert.Equal(t, "0x2105", bundle["chainId"])
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", bundle["from"])
	assert.Equal(t, false, bundle["atomicRequired"])
	assert.Len(t, bundle["calls"], 1)

	paymaster := bundle["capabilities"].(map[string]any)["paymasterService"].(map[string]any)
	assert.Equal(t, paymasterURL, paymaster["url"])
	assert.Equal(t, false, paymaster["optional"])

	status := m.Calls("wallet_getCallsStatus")[0]
	assert.Equal(t, []any{"b1"}, status.Params)
}

func TestSendSponsoredCallsBareBundleID(t *testing.T) {
	m := sponsoringWallet().
		Return("wallet_sendCalls", "0xbundle").
		Return("wallet_getCallsStatus", map[string]any{"status": 200, "receipts": []any{map[string]any{"transactionHash": "0xdef"}}})

	hash, err := newTestDispatcher(m).SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
	require.NoError(t, err)
	assert.Equal(t, "0xdef", hash)
	assert.Equal(t, []any{"0xbundle"}, m.Calls("wallet_getCallsStatus")[0].Params)
}

func TestSendSponsoredCallsOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []any
		attempts  int
		expectIs  error
		expectMsg string
	}{
		{
			name:     "failed bundle",
			statuses: []any{pending(), map[string]any{"status": "FAILED"}},
			expectIs: walleterr.ErrTransactionFailed,
		},
		{
			name:     "attempts exhausted",
			statuses: []any{pending()},
			attempts: 4,
			expectIs: walleterr.ErrTransactionTimeout,
		},
		{
			name:      "confirmed without receipts",
			statuses:  []any{map[string]any{"status": "CONFIRMED", "receipts": []any{}}},
			expectMsg: "without receipts",
		},
		{
			name:      "status query error",
			statuses:  []any{&walleterr.ProviderError{Code: -32603, Message: "Internal error"}},
			expectMsg: "failed to get status of bundle b1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sponsoringWallet().Sequence("wallet_getCallsStatus", tt.statuses...)

			var opts []Option
			if tt.attempts > 0 {
				opts = append(opts, WithMaxAttempts(tt.attempts))
			}

			hash, err := newTestDispatcher(m, opts...).SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
			require.Error(t, err)
			assert.Empty(t, hash)

			if tt.expectIs != nil {
				assert.ErrorIs(t, err, tt.expectIs)
			}
			if tt.expectMsg != "" {
				assert.Contains(t, err.Error(), tt.expectMsg)
			}
			if tt.attempts > 0 {
				assert.Equal(t, tt.attempts, m.CallCount("wallet_getCallsStatus"))

				var timeoutErr *walleterr.TransactionTimeoutError
				require.True(t, errors.As(err, &timeoutErr))
				assert.Equal(t, "b1", timeoutErr.BundleID)
			}
		})
	}
}

func TestSendSponsoredCallsUnsupported(t *testing.T) {
	tests := []struct {
		name         string
		capabilities any
		fail         bool
	}{
		{name: "explicit false", capabilities: map[string]any{"0x2105": map[string]any{"paymasterService": map[string]any{"supported": false}}}},
		{name: "string flag", capabilities: map[string]any{"0x2105": map[string]any{"paymasterService": map[string]any{"supported": "true"}}}},
		{name: "other chain only", capabilities: map[string]any{"0x1": map[string]any{"paymasterService": map[string]any{"supported": true}}}},
		{name: "empty", capabilities: map[string]any{}},
		{name: "query fails", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := providertest.New().
				Return("eth_accounts", []string{account}).
				Return("wallet_sendCalls", map[string]any{"id": "b1"})
			if tt.fail {
				m.Fail("wallet_getCapabilities", -32601, "the method does not exist")
			} else {
				m.Return("wallet_getCapabilities", tt.capabilities)
			}

			d := newTestDispatcher(m)

			_, err := d.SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
			require.Error(t, err)
			assert.ErrorIs(t, err, walleterr.ErrUnsupportedCapability)
			assert.Equal(t, 0, m.CallCount("wallet_sendCalls"))

			assert.False(t, d.SupportsPaymaster(context.Background(), baseChainID))
		})
	}
}

func TestSendSponsoredCallsProviderErrors(t *testing.T) {
	t.Run("no account", func(t *testing.T) {
		m := sponsoringWallet().Return("eth_accounts", []string{})

		_, err := newTestDispatcher(m).SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
		assert.ErrorIs(t, err, walleterr.ErrNoAccount)
		assert.Equal(t, 0, m.CallCount("wallet_getCapabilities"))
	})

	t.Run("user rejects bundle", func(t *testing.T) {
		m := sponsoringWallet().Fail("wallet_sendCalls", 4001, "User rejected the request.")

		_, err := newTestDispatcher(m).SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
		assert.ErrorIs(t, err, walleterr.ErrUserCancelled)
		assert.Equal(t, 0, m.CallCount("wallet_getCallsStatus"))
	})

	t.Run("wallet busy", func(t *testing.T) {
		m := sponsoringWallet().Fail("wallet_sendCalls", -32002, "Request already pending")

		_, err := newTestDispatcher(m).SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
		assert.ErrorIs(t, err, walleterr.ErrRequestAlreadyPending)
	})
}

func TestSendSponsoredCallsValidation(t *testing.T) {
	tests := []struct {
		name  string
		calls []types.Call
		url   string
	}{
		{name: "no calls", url: paymasterURL},
		{name: "invalid target", calls: []types.Call{{To: "0x1234", Value: "0x0"}}, url: paymasterURL},
		{name: "invalid data", calls: []types.Call{{To: transferCall.To, Data: "0xzz"}}, url: paymasterURL},
		{name: "invalid paymaster url", calls: []types.Call{transferCall}, url: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sponsoringWallet()

			_, err := newTestDispatcher(m).SendSponsoredCalls(context.Background(), tt.calls, tt.url, baseChainID)
			require.Error(t, err)
			assert.Empty(t, m.Methods())
		})
	}
}

func TestSendSponsoredCallsInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enterOnce sync.Once

	m := sponsoringWallet().
		Return("wallet_getCallsStatus", map[string]any{"status": "CONFIRMED", "receipts": []any{map[string]any{"transactionHash": "0xabc"}}}).
		On("wallet_sendCalls", func([]any) (any, error) {
			enterOnce.Do(func() { close(entered) })
			<-release
			return map[string]any{"id": "b1"}, nil
		})

	d := newTestDispatcher(m)

	done := make(chan error, 1)
	go func() {
		_, err := d.SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
		done <- err
	}()

	<-entered
	_, err := d.SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
	assert.ErrorIs(t, err, walleterr.ErrRequestAlreadyPending)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, m.CallCount("wallet_sendCalls"))

	// Guard is released after completion
	hash, err := d.SendSponsoredCalls(context.Background(), []types.Call{transferCall}, paymasterURL, baseChainID)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
	assert.Equal(t, 2, m.CallCount("wallet_sendCalls"))
}

func TestWaitForBundleCancelled(t *testing.T) {
	m := providertest.New().Return("wallet_getCallsStatus", pending())
	d := NewDispatcher(m, WithPollInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.WaitForBundle(ctx, "b1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.CallCount("wallet_getCallsStatus"))
}

func TestSupportsPaymaster(t *testing.T) {
	m := sponsoringWallet()
	d := newTestDispatcher(m)

	assert.True(t, d.SupportsPaymaster(context.Background(), baseChainID))
	assert.False(t, d.SupportsPaymaster(context.Background(), 1))

	noAccount := providertest.New().Return("eth_accounts", []string{})
	assert.False(t, newTestDispatcher(noAccount).SupportsPaymaster(context.Background(), baseChainID))
	assert.Equal(t, 0, noAccount.CallCount("wallet_getCapabilities"))
}

func TestGetCallsStatus(t *testing.T) {
	m := providertest.New().Return("wallet_getCallsStatus", map[string]any{
		"version":  "2.0.0",
		"id":       "b1",
		"chainId":  "0x2105",
		"status":   "CONFIRMED",
		"receipts": []any{map[string]any{"transactionHash": "0xabc"}},
	})

	status, err := NewDispatcher(m).GetCallsStatus(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, types.CallsConfirmed, status.Status)

	hash, ok := status.FirstTransactionHash()
	assert.True(t, ok)
	assert.Equal(t, "0xabc", hash)
}

func TestDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(providertest.New(), WithVersion(""), WithPollInterval(0), WithMaxAttempts(-1), WithLogger(nil), WithMetrics(nil))

	assert.Equal(t, "2.0.0", d.version)
	assert.Equal(t, time.Second, d.pollInterval)
	assert.Equal(t, 120, d.maxAttempts)
	assert.NotNil(t, d.logger)
	assert.NotNil(t, d.metrics)
}
