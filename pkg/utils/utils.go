package utils

import (
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/shopspring/decimal"
)

func CreateHTTPClientWithTimeouts() *http.Client {
	return &http.Client{
		Timeout: constants.BackendTimeout,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   constants.TLSHandshakeTimeout,
			ResponseHeaderTimeout: constants.ResponseHeaderTimeout,
			ExpectContinueTimeout: constants.ExpectContinueTimeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // Disable redirects to prevent redirect-based SSRF
		},
	}
}

// ValidateServiceURL checks that a backend or paymaster URL uses HTTPS
// Plain HTTP is accepted for loopback hosts only.
func ValidateServiceURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid service URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !isLoopback(u.Hostname()) {
			return fmt.Errorf("service URL must use HTTPS: %s", rawURL)
		}
	default:
		return fmt.Errorf("service URL must use HTTPS: %s", rawURL)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("service URL has no host: %s", rawURL)
	}
	return nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ToBaseUnits converts a display amount into base units (e.g., ETH to wei)
// Amounts with more fractional digits than decimals are rejected
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %s", amount)
	}

	shifted := amount.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// BaseUnitsFromDecimal interprets amount as an integer count of base units
func BaseUnitsFromDecimal(amount decimal.Decimal) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %s", amount)
	}
	if !amount.Equal(amount.Truncate(0)) {
		return nil, fmt.Errorf("base unit amount must be an integer: %s", amount)
	}
	return amount.BigInt(), nil
}

// FromBaseUnits converts base units back into a display amount
func FromBaseUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ResolveAmount returns the base unit amount and the display amount of a transfer
// isBaseUnit marks amount as already expressed in base units
func ResolveAmount(amount decimal.Decimal, decimals uint8, isBaseUnit bool) (*big.Int, decimal.Decimal, error) {
	if isBaseUnit {
		base, err := BaseUnitsFromDecimal(amount)
		if err != nil {
			return nil, decimal.Zero, err
		}
		return base, FromBaseUnits(base, decimals), nil
	}

	base, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return base, amount, nil
}
