// Package config loads the walletkit configuration file
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Duration is a time.Duration written as "3s" or "500ms" in the config file
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"3s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config is the walletkit configuration
type Config struct {
	BackendURL           string              `json:"backendUrl,omitempty" validate:"omitempty,url"`
	DefaultChain         types.Chain         `json:"defaultChain" validate:"required"`
	CallsVersion         string              `json:"callsVersion" validate:"required"`
	ConfirmationTimeout  Duration            `json:"confirmationTimeout" validate:"gt=0"`
	ConfirmationInterval Duration            `json:"confirmationInterval" validate:"gt=0"`
	BundlePollInterval   Duration            `json:"bundlePollInterval" validate:"gt=0"`
	BundleMaxAttempts    int                 `json:"bundleMaxAttempts" validate:"gt=0"`
	RPCEndpoints         map[string][]string `json:"rpcEndpoints,omitempty" validate:"dive,keys,required,endkeys,dive,url"`
	PaymasterURL         string              `json:"paymasterUrl,omitempty" validate:"omitempty,url"`
	LogLevel             string              `json:"logLevel" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DefaultChain:         constants.PrimaryChain,
		CallsVersion:         constants.CallsVersion,
		ConfirmationTimeout:  Duration(constants.DefaultConfirmationTimeout),
		ConfirmationInterval: Duration(constants.DefaultConfirmationPoll),
		BundlePollInterval:   Duration(constants.DefaultBundlePollInterval),
		BundleMaxAttempts:    constants.DefaultBundleMaxAttempts,
		RPCEndpoints:         make(map[string][]string),
		LogLevel:             "info",
	}
}

// Load reads the config file at path over the defaults
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.RPCEndpoints == nil {
		cfg.RPCEndpoints = make(map[string][]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that every named chain is supported
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := chains.Info(c.DefaultChain); !ok {
		return fmt.Errorf("invalid config: unsupported default chain %s", c.DefaultChain)
	}
	for chain := range c.RPCEndpoints {
		if _, ok := chains.Info(types.Chain(chain)); !ok {
			return fmt.Errorf("invalid config: rpc endpoints for unsupported chain %s", chain)
		}
	}
	return nil
}

// Endpoints returns the configured RPC endpoints of chain, or the official ones
func (c *Config) Endpoints(chain types.Chain) []string {
	if endpoints := c.RPCEndpoints[string(chain)]; len(endpoints) > 0 {
		return endpoints
	}
	return constants.OfficialRPCEndpoints[string(chain)]
}

// Paymaster returns override when set, otherwise the configured paymaster URL
func (c *Config) Paymaster(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if c.PaymasterURL == "" {
		return "", errors.New("no paymaster URL configured")
	}
	return c.PaymasterURL, nil
}

// Level returns the slog level of LogLevel
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns a text logger writing to w at the configured level
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
