package types

// Chain is the name of a supported blockchain (e.g., "Ethereum", "Solana")
type Chain string

// Family groups chains that share a wallet protocol and transaction format
type Family string

const (
	FamilyEVM    Family = "evm"
	FamilySolana Family = "solana"
	FamilyTron   Family = "tron"
)

// AssetKind distinguishes native coins from contract tokens
type AssetKind string

const (
	AssetKindCoin  AssetKind = "Coin"
	AssetKindToken AssetKind = "Token"
)

// Asset describes a transferable asset on a chain
type Asset struct {
	ID              int       `json:"id"`
	Chain           Chain     `json:"blockchain" validate:"required"`
	Kind            AssetKind `json:"type" validate:"required,oneof=Coin Token"`
	Name            string    `json:"name,omitempty"`
	Symbol          string    `json:"symbol,omitempty"`
	ContractAddress string    `json:"contractAddress,omitempty" validate:"required_if=Kind Token"` // token contract (EVM) or mint (SVM)
	Decimals        uint8     `json:"decimals"`
}

// IsToken returns true if the asset is a contract token
func (a *Asset) IsToken() bool {
	return a != nil && a.Kind == AssetKindToken
}
