package types

// BuildTransactionRequest asks the backend for a ready-to-sign transaction
type BuildTransactionRequest struct {
	Chain       Chain  `json:"chain" validate:"required"`
	FromAddress string `json:"fromAddress" validate:"required"`
	ToAddress   string `json:"toAddress" validate:"required"`
	Amount      string `json:"amount" validate:"required,numeric"`
	AssetID     int    `json:"assetId" validate:"required"`
}

// BuildTransactionResponse carries the serialized unsigned transaction
type BuildTransactionResponse struct {
	RawTransaction  string  `json:"rawTransaction"`
	Encoding        string  `json:"encoding"`
	RecentBlockhash *string `json:"recentBlockhash,omitempty"`
	Expiration      *int64  `json:"expiration,omitempty"`
}

// BroadcastRequest submits a signed transaction through the backend
type BroadcastRequest struct {
	Chain             Chain  `json:"chain" validate:"required"`
	SignedTransaction string `json:"signedTransaction" validate:"required"`
}

// BroadcastResponse is returned by the broadcast endpoint
type BroadcastResponse struct {
	TxHash string `json:"txHash"`
}

// TxState is the lifecycle state of a submitted transaction
type TxState string

const (
	TxStatePending   TxState = "pending"
	TxStateConfirmed TxState = "confirmed"
	TxStateFailed    TxState = "failed"
)

// TransactionStatus is returned by the status endpoint
type TransactionStatus struct {
	Status        TxState `json:"status"`
	Confirmations *int    `json:"confirmations,omitempty"`
	Error         *string `json:"error,omitempty"`
}
