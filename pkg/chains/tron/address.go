package tron

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// AddressPrefix is the mainnet address version byte
const AddressPrefix byte = 0x41

const (
	addressLength  = 21
	checksumLength = 4
)

// EncodeAddress encodes a 21-byte address payload as base58check
func EncodeAddress(payload []byte) (string, error) {
	if len(payload) != addressLength || payload[0] != AddressPrefix {
		return "", fmt.Errorf("invalid address payload of %d bytes", len(payload))
	}
	return base58.Encode(append(append([]byte(nil), payload...), checksum(payload)...)), nil
}

// DecodeAddress decodes a base58check address into its 21-byte payload
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, &chains.InvalidAddressError{Family: types.FamilyTron, Address: address, Err: err}
	}
	if len(raw) != addressLength+checksumLength {
		return nil, &chains.InvalidAddressError{
			Family:  types.FamilyTron,
			Address: address,
			Err:     fmt.Errorf("expected %d bytes, got %d", addressLength+checksumLength, len(raw)),
		}
	}

	payload := raw[:addressLength]
	if payload[0] != AddressPrefix {
		return nil, &chains.InvalidAddressError{Family: types.FamilyTron, Address: address, Err: errors.New("wrong address prefix")}
	}
	if !bytes.Equal(raw[addressLength:], checksum(payload)) {
		return nil, &chains.InvalidAddressError{Family: types.FamilyTron, Address: address, Err: errors.New("checksum mismatch")}
	}
	return payload, nil
}

// ValidateAddress checks a base58check Tron address
func ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

// PubkeyToAddress derives the Tron address of a secp256k1 public key
func PubkeyToAddress(pub ecdsa.PublicKey) string {
	payload := append([]byte{AddressPrefix}, crypto.PubkeyToAddress(pub).Bytes()...)
	address, _ := EncodeAddress(payload)
	return address
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}
