package chains

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
)

// NativeCurrency describes a chain's fee currency (wallet_addEthereumChain format)
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// AddChainPayload is the wallet_addEthereumChain parameter (EIP-3085)
type AddChainPayload struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCUrls           []string       `json:"rpcUrls"`
	BlockExplorerUrls []string       `json:"blockExplorerUrls,omitempty"`
}

// ChainInfo is the static capability entry of a chain
type ChainInfo struct {
	Chain          types.Chain
	Family         types.Family
	ID             int64
	Hex            string // EVM only
	DisplayName    string
	NativeCurrency NativeCurrency
	RPCUrls        []string
	Explorers      []string
}

type chainSpec struct {
	family      types.Family
	displayName string
	currency    NativeCurrency
}

var chainSpecs = map[types.Chain]chainSpec{
	constants.ChainEthereum:          {types.FamilyEVM, "Ethereum Mainnet", NativeCurrency{"Ether", "ETH", 18}},
	constants.ChainOptimism:          {types.FamilyEVM, "OP Mainnet", NativeCurrency{"Ether", "ETH", 18}},
	constants.ChainBinanceSmartChain: {types.FamilyEVM, "BNB Smart Chain", NativeCurrency{"BNB", "BNB", 18}},
	constants.ChainGnosis:            {types.FamilyEVM, "Gnosis", NativeCurrency{"xDAI", "XDAI", 18}},
	constants.ChainPolygon:           {types.FamilyEVM, "Polygon Mainnet", NativeCurrency{"POL", "POL", 18}},
	constants.ChainBase:              {types.FamilyEVM, "Base", NativeCurrency{"Ether", "ETH", 18}},
	constants.ChainArbitrum:          {types.FamilyEVM, "Arbitrum One", NativeCurrency{"Ether", "ETH", 18}},
	constants.ChainSepolia:           {types.FamilyEVM, "Sepolia", NativeCurrency{"Sepolia Ether", "SEP", 18}},
	constants.ChainSolana:            {types.FamilySolana, "Solana", NativeCurrency{"Solana", "SOL", 9}},
	constants.ChainTron:              {types.FamilyTron, "Tron", NativeCurrency{"Tronix", "TRX", 6}},
}

var (
	chainTable = buildChainTable()
	chainByID  = make(map[int64]types.Chain)
	chainByHex = make(map[string]types.Chain)
)

func init() {
	for chain, info := range chainTable {
		chainByID[info.ID] = chain
		if info.Hex != "" {
			chainByHex[info.Hex] = chain
		}
	}
}

func buildChainTable() map[types.Chain]ChainInfo {
	table := make(map[types.Chain]ChainInfo, len(chainSpecs))
	for chain, spec := range chainSpecs {
		id := constants.ChainToChainID[string(chain)]

		info := ChainInfo{
			Chain:          chain,
			Family:         spec.family,
			ID:             id,
			DisplayName:    spec.displayName,
			NativeCurrency: spec.currency,
			RPCUrls:        constants.OfficialRPCEndpoints[string(chain)],
			Explorers:      constants.BlockExplorers[string(chain)],
		}
		if spec.family == types.FamilyEVM {
			info.Hex = fmt.Sprintf("0x%x", id)
		}
		table[chain] = info
	}
	return table
}

// Info returns the capability entry of chain
func Info(chain types.Chain) (ChainInfo, bool) {
	info, ok := chainTable[chain]
	return info, ok
}

// ToChainID returns the numeric id of chain
func ToChainID(chain types.Chain) (int64, bool) {
	info, ok := chainTable[chain]
	if !ok {
		return 0, false
	}
	return info.ID, true
}

// ToChainHex returns the lowercase hex id of an EVM chain
func ToChainHex(chain types.Chain) (string, bool) {
	info, ok := chainTable[chain]
	if !ok || info.Hex == "" {
		return "", false
	}
	return info.Hex, true
}

// ToChain resolves a numeric id, a decimal or hex string id, or a chain name
// Unknown or malformed values return false
func ToChain(idOrHex any) (types.Chain, bool) {
	switch v := idOrHex.(type) {
	case int:
		return chainFromID(int64(v))
	case int64:
		return chainFromID(v)
	case uint64:
		if v > uint64(^uint64(0)>>1) {
			return "", false
		}
		return chainFromID(int64(v))
	case *big.Int:
		if v == nil || !v.IsInt64() {
			return "", false
		}
		return chainFromID(v.Int64())
	case types.Chain:
		return chainFromString(string(v))
	case string:
		return chainFromString(v)
	default:
		return "", false
	}
}

func chainFromID(id int64) (types.Chain, bool) {
	chain, ok := chainByID[id]
	return chain, ok
}

func chainFromString(s string) (types.Chain, bool) {
	s = strings.TrimSpace(s)
	if _, ok := chainTable[types.Chain(s)]; ok {
		return types.Chain(s), true
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		id, err := strconv.ParseUint(lower[2:], 16, 63)
		if err != nil {
			return "", false
		}
		chain, ok := chainByHex[fmt.Sprintf("0x%x", id)]
		return chain, ok
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", false
	}
	return chainFromID(id)
}

// ToAddChainPayload returns the wallet_addEthereumChain payload of chain
// Returns false for the primary chain (known to every wallet) and non-EVM chains
func ToAddChainPayload(chain types.Chain) (*AddChainPayload, bool) {
	info, ok := chainTable[chain]
	if !ok || info.Hex == "" || chain == constants.PrimaryChain {
		return nil, false
	}

	return &AddChainPayload{
		ChainID:           info.Hex,
		ChainName:         info.DisplayName,
		NativeCurrency:    info.NativeCurrency,
		RPCUrls:           append([]string(nil), info.RPCUrls...),
		BlockExplorerUrls: append([]string(nil), info.Explorers...),
	}, true
}

// FamilyOf returns the family of chain
func FamilyOf(chain types.Chain) (types.Family, bool) {
	info, ok := chainTable[chain]
	if !ok {
		return "", false
	}
	return info.Family, true
}

// IsEVM returns true for EVM chains
func IsEVM(chain types.Chain) bool {
	family, ok := FamilyOf(chain)
	return ok && family == types.FamilyEVM
}

// SupportedChains returns all known chains ordered by numeric id
func SupportedChains() []types.Chain {
	list := make([]types.Chain, 0, len(chainTable))
	for chain := range chainTable {
		list = append(list, chain)
	}
	sort.Slice(list, func(i, j int) bool {
		return chainTable[list[i]].ID < chainTable[list[j]].ID
	})
	return list
}
