package chains

import (
	"fmt"

	"github.com/DFXswiss/services-sub002/pkg/types"
)

// UnsupportedChainError is returned when a chain is not supported
type UnsupportedChainError struct {
	Chain types.Chain
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("unsupported chain: %s", e.Chain)
}

// InvalidAddressError is returned for an address that fails chain validation
type InvalidAddressError struct {
	Family  types.Family
	Address string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s address %q: %v", e.Family, e.Address, e.Err)
	}
	return fmt.Sprintf("invalid %s address %q", e.Family, e.Address)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}
