package tron

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/types"
)

// TxIDMismatchError is returned when a txID does not match the raw data
type TxIDMismatchError struct {
	Expected string
	Got      string
}

func (e *TxIDMismatchError) Error() string {
	return fmt.Sprintf("txID mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ComputeTxID returns hex(sha256(raw_data))
func ComputeTxID(rawDataHex string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(rawDataHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid raw_data_hex: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty raw_data_hex")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// DecodeTransaction decodes a backend-built transaction and verifies its txID
// The hex encoding carries raw_data_hex only; the JSON encoding carries the full TronWeb object
func DecodeTransaction(raw, encoding string) (*types.TronTransaction, error) {
	var tx types.TronTransaction

	switch encoding {
	case types.EncodingHex:
		tx.RawDataHex = strings.TrimPrefix(raw, "0x")
	case types.EncodingJSON, "":
		if err := json.Unmarshal([]byte(raw), &tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported Tron transaction encoding: %s", encoding)
	}

	if err := VerifyTxID(&tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// VerifyTxID checks tx.TxID against its raw data and fills it in when empty
func VerifyTxID(tx *types.TronTransaction) error {
	txID, err := ComputeTxID(tx.RawDataHex)
	if err != nil {
		return err
	}

	if tx.TxID == "" {
		tx.TxID = txID
		return nil
	}
	if !strings.EqualFold(tx.TxID, txID) {
		return &TxIDMismatchError{Expected: txID, Got: tx.TxID}
	}
	return nil
}
