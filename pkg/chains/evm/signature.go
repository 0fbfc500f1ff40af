package evm

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// typedDataPayload is the eth_signTypedData_v4 JSON document
// The domain only carries the fields that are set.
type typedDataPayload struct {
	Types       apitypes.Types            `json:"types"`
	PrimaryType string                    `json:"primaryType"`
	Domain      map[string]any            `json:"domain"`
	Message     apitypes.TypedDataMessage `json:"message"`
}

// MarshalTypedData serializes typed data for eth_signTypedData_v4
func MarshalTypedData(typedData apitypes.TypedData) ([]byte, error) {
	domain := make(map[string]any)
	if typedData.Domain.Name != "" {
		domain["name"] = typedData.Domain.Name
	}
	if typedData.Domain.Version != "" {
		domain["version"] = typedData.Domain.Version
	}
	if typedData.Domain.ChainId != nil {
		domain["chainId"] = (*big.Int)(typedData.Domain.ChainId)
	}
	if typedData.Domain.VerifyingContract != "" {
		domain["verifyingContract"] = typedData.Domain.VerifyingContract
	}
	if typedData.Domain.Salt != "" {
		domain["salt"] = typedData.Domain.Salt
	}

	payload, err := json.Marshal(typedDataPayload{
		Types:       typedData.Types,
		PrimaryType: typedData.PrimaryType,
		Domain:      domain,
		Message:     typedData.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	return payload, nil
}

// TypedDataHash returns the EIP-712 digest keccak256("\x19\x01" ‖ domainSeparator ‖ hashStruct(message))
func TypedDataHash(typedData apitypes.TypedData) ([]byte, error) {
	hash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", typedData.PrimaryType, err)
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	return crypto.Keccak256([]byte("\x19\x01"), domainSeparator, hash), nil
}

// RecoverTypedDataSigner recovers the address that produced an EIP-712 signature
func RecoverTypedDataSigner(typedData apitypes.TypedData, signature string) (common.Address, error) {
	hash, err := TypedDataHash(typedData)
	if err != nil {
		return common.Address{}, err
	}
	return recoverAddress(hash, signature)
}

// RecoverMessageSigner recovers the address that produced a personal_sign signature
func RecoverMessageSigner(message []byte, signature string) (common.Address, error) {
	return recoverAddress(accounts.TextHash(message), signature)
}

// DecodeSignature decodes a 65-byte r ‖ s ‖ v signature
// v is normalized to the 0/1 recovery id
func DecodeSignature(signature string) ([]byte, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, &InvalidSignatureError{Signature: signature, Reason: err.Error()}
	}
	if len(sig) != crypto.SignatureLength {
		return nil, &InvalidSignatureError{
			Signature: signature,
			Reason:    fmt.Sprintf("expected %d bytes, got %d", crypto.SignatureLength, len(sig)),
		}
	}

	v, err := NormalizeV(sig[crypto.RecoveryIDOffset])
	if err != nil {
		return nil, &InvalidSignatureError{Signature: signature, Reason: err.Error()}
	}
	sig[crypto.RecoveryIDOffset] = v

	return sig, nil
}

// NormalizeV converts a recovery byte to 0/1
// Wallets return either 27/28 or 0/1.
func NormalizeV(v byte) (byte, error) {
	switch v {
	case 0, 1:
		return v, nil
	case 27, 28:
		return v - 27, nil
	default:
		return 0, fmt.Errorf("unexpected recovery byte %d", v)
	}
}

func recoverAddress(hash []byte, signature string) (common.Address, error) {
	sig, err := DecodeSignature(signature)
	if err != nil {
		return common.Address{}, err
	}

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}
