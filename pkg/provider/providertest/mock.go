// Package providertest provides a scripted wallet provider for tests
package providertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DFXswiss/services-sub002/pkg/walleterr"
	"github.com/ethereum/go-ethereum/event"
)

// Handler produces the result of a single request
type Handler func(params []any) (any, error)

// Call is a recorded request
type Call struct {
	Method string
	Params []any
}

// Mock is a scripted EIP-1193 provider
type Mock struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call

	accountsFeed event.Feed
	chainFeed    event.Feed
}

// New creates an empty mock; unknown methods fail with code 4200
func New() *Mock {
	return &Mock{handlers: make(map[string]Handler)}
}

// On installs a handler for method
func (m *Mock) On(method string, handler Handler) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = handler
	return m
}

// Return makes method always succeed with result
func (m *Mock) Return(method string, result any) *Mock {
	return m.On(method, func([]any) (any, error) { return result, nil })
}

// Fail makes method always fail with a provider error
func (m *Mock) Fail(method string, code int, message string) *Mock {
	return m.On(method, func([]any) (any, error) {
		return nil, &walleterr.ProviderError{Code: code, Message: message}
	})
}

// Sequence returns results in order and repeats the last one
// A result of type error is returned as the request error.
func (m *Mock) Sequence(method string, results ...any) *Mock {
	var (
		mu   sync.Mutex
		next int
	)
	return m.On(method, func([]any) (any, error) {
		mu.Lock()
		defer mu.Unlock()

		result := results[next]
		if next < len(results)-1 {
			next++
		}
		if err, ok := result.(error); ok {
			return nil, err
		}
		return result, nil
	})
}

// Request implements provider.Provider
func (m *Mock) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Params go through JSON like on the wire
	wire, err := roundTrip(params)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Params: wire})
	handler, ok := m.handlers[method]
	m.mu.Unlock()

	if !ok {
		return nil, &walleterr.ProviderError{Code: 4200, Message: fmt.Sprintf("method %s not supported", method)}
	}

	result, err := handler(wire)
	if err != nil {
		return nil, err
	}

	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(result)
}

// Calls returns the recorded requests for method (all requests if method is empty)
func (m *Mock) Calls(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []Call
	for _, c := range m.calls {
		if method == "" || c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// CallCount returns how often method was requested
func (m *Mock) CallCount(method string) int {
	return len(m.Calls(method))
}

// Methods returns the requested methods in order
func (m *Mock) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	methods := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		methods = append(methods, c.Method)
	}
	return methods
}

// SubscribeAccountsChanged implements provider.EventSource
func (m *Mock) SubscribeAccountsChanged(ch chan<- []string) event.Subscription {
	return m.accountsFeed.Subscribe(ch)
}

// SubscribeChainChanged implements provider.EventSource
func (m *Mock) SubscribeChainChanged(ch chan<- string) event.Subscription {
	return m.chainFeed.Subscribe(ch)
}

// EmitAccountsChanged sends an accountsChanged event and returns the number of receivers
func (m *Mock) EmitAccountsChanged(accounts []string) int {
	return m.accountsFeed.Send(accounts)
}

// EmitChainChanged sends a chainChanged event and returns the number of receivers
func (m *Mock) EmitChainChanged(chainHex string) int {
	return m.chainFeed.Send(chainHex)
}

func roundTrip(params []any) ([]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	var wire []any
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	return wire, nil
}
