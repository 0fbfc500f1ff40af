// Package backend is the client of the transaction backend
// It builds Solana and Tron transactions, broadcasts signed transactions
// and reports transaction status.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/utils"
	"github.com/go-playground/validator/v10"
)

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-Id"

// Client is the transaction backend client
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *slog.Logger

	accessToken string
	tokenMutex  sync.RWMutex
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAccessToken sets the bearer token sent with every request
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// NewClient creates a backend client for baseURL
// baseURL must use HTTPS (plain HTTP is accepted for localhost)
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := utils.ValidateServiceURL(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.CreateHTTPClientWithTimeouts(),
		validate:   validator.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Verify Client implements interface
var _ chains.TransactionBackend = (*Client)(nil)

// SetAccessToken replaces the bearer token
func (c *Client) SetAccessToken(token string) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()
	c.accessToken = token
}

// BuildTransaction asks the backend for an unsigned transaction
// POST /v1/transaction/build
func (c *Client) BuildTransaction(ctx context.Context, req *types.BuildTransactionRequest) (*types.BuildTransactionResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid build request: %w", err)
	}

	var result types.BuildTransactionResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/transaction/build", req, &result); err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	if result.RawTransaction == "" {
		return nil, errors.New("backend returned an empty transaction")
	}
	return &result, nil
}

// BroadcastTransaction submits a signed transaction
// POST /v1/transaction/broadcast
func (c *Client) BroadcastTransaction(ctx context.Context, req *types.BroadcastRequest) (*types.BroadcastResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid broadcast request: %w", err)
	}

	var result types.BroadcastResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/transaction/broadcast", req, &result); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	c.logger.Info("transaction broadcast via backend", "chain", req.Chain, "txHash", result.TxHash)
	return &result, nil
}

// TransactionStatus returns the status of txHash on chain
// GET /v1/transaction/{hash}/status?chain=
func (c *Client) TransactionStatus(ctx context.Context, chain types.Chain, txHash string) (*types.TransactionStatus, error) {
	if txHash == "" {
		return nil, errors.New("transaction hash is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/v1/transaction/%s/status", c.baseURL, url.PathEscape(txHash)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("chain", string(chain))
	u.RawQuery = q.Encode()

	var result types.TransactionStatus
	if err := c.do(ctx, http.MethodGet, u.String(), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}
	return &result, nil
}
