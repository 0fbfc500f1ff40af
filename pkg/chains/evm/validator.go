package evm

import (
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// ChecksumAddress returns the EIP-55 form of a hex address
func ChecksumAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", &chains.InvalidAddressError{Family: types.FamilyEVM, Address: address}
	}
	return common.HexToAddress(address).Hex(), nil
}

// ValidateAddress implements chains.FamilyAdapter
func ValidateAddress(address string) error {
	_, err := ChecksumAddress(address)
	return err
}

// AddressesEqual compares two addresses case-insensitively (EIP-55 checksums differ only in case)
func AddressesEqual(addr1, addr2 string) bool {
	return strings.EqualFold(addr1, addr2)
}
