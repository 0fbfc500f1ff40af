package svm

import (
	"crypto/ed25519"
	"fmt"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// signatureLength is the size of an ed25519 signature
const signatureLength = 64

// ValidateAddress checks that address is a base58 ed25519 public key
func ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return &chains.InvalidAddressError{Family: types.FamilySolana, Address: address, Err: err}
	}
	return nil
}

// AddressesEqual compares two addresses (base58 is case-sensitive)
func AddressesEqual(addr1, addr2 string) bool {
	return addr1 == addr2
}

// EncodeSignature encodes a raw ed25519 signature as base58
func EncodeSignature(sig []byte) (string, error) {
	if len(sig) != signatureLength {
		return "", fmt.Errorf("expected %d signature bytes, got %d", signatureLength, len(sig))
	}
	return base58.Encode(sig), nil
}

// VerifyMessage checks a base58 message signature against address
func VerifyMessage(address string, message []byte, signature string) (bool, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false, &chains.InvalidAddressError{Family: types.FamilySolana, Address: address, Err: err}
	}

	raw, err := base58.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(raw) != signatureLength {
		return false, fmt.Errorf("expected %d signature bytes, got %d", signatureLength, len(raw))
	}

	return ed25519.Verify(pubKey[:], message, raw), nil
}
