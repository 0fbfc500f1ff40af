package types

import (
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Payload encodings used by the transaction backend
const (
	EncodingBase64 = "base64"
	EncodingHex    = "hex"
	EncodingJSON   = "json"
)

// TransferConfig carries per-transfer options
type TransferConfig struct {
	// IsBaseUnitAmount marks the amount as already expressed in base units
	// (server-computed amounts on the gasless and delegation paths)
	IsBaseUnitAmount bool

	// GasPrice is an explicit legacy fee override (EVM only)
	// When set, the dynamic fee fields below are dropped
	GasPrice *big.Int

	// Dynamic fee hints (EVM only); left to the wallet when nil
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	// GasLimit is an optional gas limit (EVM only)
	GasLimit uint64

	// AssetID identifies the native coin on the transaction backend (Solana, Tron)
	AssetID int
}

// TransferRequest is the input of the transaction builder
type TransferRequest struct {
	Chain  Chain           `validate:"required"`
	From   string          `validate:"required"`
	To     string          `validate:"required"`
	Amount decimal.Decimal `validate:"-"`
	Asset  *Asset          // nil for native coin transfers
	Config TransferConfig
}

// EVMTransaction is an unsigned EVM call in eth_sendTransaction wire format
type EVMTransaction struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	Gas                  *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId,omitempty"`
}

// TronTransaction is a Tron transaction as produced by TronWeb / the backend
type TronTransaction struct {
	TxID       string          `json:"txID"`
	RawData    json.RawMessage `json:"raw_data,omitempty"`
	RawDataHex string          `json:"raw_data_hex"`
	Signature  []string        `json:"signature,omitempty"`
	Visible    bool            `json:"visible,omitempty"`
}

// UnsignedTransaction is a family-specific, ready-to-sign transfer
// Exactly one of EVM, Solana or Tron is set, matching Family
type UnsignedTransaction struct {
	Chain  Chain
	Family Family
	From   string
	To     string
	Amount *big.Int // base units
	Asset  *Asset

	EVM    *EVMTransaction
	Solana *solana.Transaction
	Tron   *TronTransaction

	RecentBlockhash string // Solana only, as reported by the backend
	Expiration      int64  // Tron only, unix millis as reported by the backend
}

// SignedTransaction is a serialized, signed transaction ready for broadcast
type SignedTransaction struct {
	Chain    Chain
	Family   Family
	Raw      []byte
	Encoding string
	Hash     string // set when the hash can be derived locally
}

// Encoded returns the transaction in its wire encoding
func (s *SignedTransaction) Encoded() string {
	switch s.Encoding {
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(s.Raw)
	case EncodingHex:
		return hexutil.Encode(s.Raw)
	default:
		return string(s.Raw)
	}
}
