package tron

import (
	"fmt"
	"strconv"

	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/ethereum/go-ethereum/crypto"
)

const messagePrefix = "\x19TRON Signed Message:\n"

// MessageHash returns the digest TronLink signs for signMessageV2
func MessageHash(message []byte) []byte {
	return crypto.Keccak256([]byte(messagePrefix+strconv.Itoa(len(message))), message)
}

// RecoverMessageSigner recovers the Tron address that signed message
func RecoverMessageSigner(message []byte, signature string) (string, error) {
	sig, err := evm.DecodeSignature(signature)
	if err != nil {
		return "", err
	}

	pubKey, err := crypto.SigToPub(MessageHash(message), sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}
	return PubkeyToAddress(*pubKey), nil
}
