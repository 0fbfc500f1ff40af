package providertest

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// SigningWallet installs account and signing handlers backed by key
// With legacyV the recovery byte is returned as 27/28, otherwise as 0/1.
func (m *Mock) SigningWallet(key *ecdsa.PrivateKey, legacyV bool) *Mock {
	address := crypto.PubkeyToAddress(key.PublicKey)
	accountList := []string{strings.ToLower(address.Hex())}

	sign := func(hash []byte) (any, error) {
		sig, err := crypto.Sign(hash, key)
		if err != nil {
			return nil, err
		}
		if legacyV {
			sig[crypto.RecoveryIDOffset] += 27
		}
		return hexutil.Encode(sig), nil
	}

	m.Return("eth_accounts", accountList)
	m.Return("eth_requestAccounts", accountList)

	m.On("personal_sign", func(params []any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("personal_sign expects 2 params, got %d", len(params))
		}
		message, err := decodeMessage(params[0])
		if err != nil {
			return nil, err
		}
		if err := checkSigner(params[1], address); err != nil {
			return nil, err
		}
		return sign(accounts.TextHash(message))
	})

	m.On("eth_signTypedData_v4", func(params []any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("eth_signTypedData_v4 expects 2 params, got %d", len(params))
		}
		if err := checkSigner(params[0], address); err != nil {
			return nil, err
		}
		payload, ok := params[1].(string)
		if !ok {
			return nil, errors.New("typed data must be a JSON string")
		}

		var typedData apitypes.TypedData
		if err := json.Unmarshal([]byte(payload), &typedData); err != nil {
			return nil, fmt.Errorf("invalid typed data: %w", err)
		}
		hash, _, err := apitypes.TypedDataAndHash(typedData)
		if err != nil {
			return nil, err
		}
		return sign(hash)
	})

	return m
}

func decodeMessage(param any) ([]byte, error) {
	message, ok := param.(string)
	if !ok {
		return nil, errors.New("message must be a string")
	}
	if strings.HasPrefix(message, "0x") {
		return hexutil.Decode(message)
	}
	return []byte(message), nil
}

func checkSigner(param any, expected common.Address) error {
	address, ok := param.(string)
	if !ok || !common.IsHexAddress(address) {
		return fmt.Errorf("invalid signer address %v", param)
	}
	if common.HexToAddress(address) != expected {
		return fmt.Errorf("unknown signer %s", address)
	}
	return nil
}
