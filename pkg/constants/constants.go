package constants

import "time"

const (
	DelayBetweenRPCCalls      = 200              // delay in milliseconds between RPC calls
	TransactionReceiptTimeout = 2 * time.Second  // timeout for transaction receipt
	BackendTimeout            = 30 * time.Second // timeout for transaction backend calls
	TLSHandshakeTimeout       = 10 * time.Second // timeout for TLS handshake
	ResponseHeaderTimeout     = 20 * time.Second // timeout for response header
	ExpectContinueTimeout     = 1 * time.Second  // timeout for expect continue
	MaxResponseBodySize       = 10 * 1024 * 1024 // maximum response body size in bytes (10MB)
)

// Confirmation polling
const (
	DefaultConfirmationTimeout = 120 * time.Second
	DefaultConfirmationPoll    = 3 * time.Second
	DefaultBundlePollInterval  = 1 * time.Second
	DefaultBundleMaxAttempts   = 120
)

// Wallet provider error codes (EIP-1193 / EIP-1474)
const (
	CodeUserRejected     = 4001
	CodeUnauthorized     = 4100
	CodeUnsupportedChain = 4902
	CodeRequestPending   = -32002
)

// CallsVersion is the wallet_sendCalls version tag (EIP-5792)
const CallsVersion = "2.0.0"

// Chain names
const (
	ChainEthereum          = "Ethereum"
	ChainOptimism          = "Optimism"
	ChainBinanceSmartChain = "BinanceSmartChain"
	ChainGnosis            = "Gnosis"
	ChainPolygon           = "Polygon"
	ChainBase              = "Base"
	ChainArbitrum          = "Arbitrum"
	ChainSepolia           = "Sepolia"
	ChainSolana            = "Solana"
	ChainTron              = "Tron"
)

// PrimaryChain is assumed to be known to every EVM wallet
const PrimaryChain = ChainEthereum

// mapping from chain name to numeric chain ID
// Solana and Tron use their conventional wallet ids (no EVM hex id)
var ChainToChainID = map[string]int64{
	ChainEthereum:          1,
	ChainOptimism:          10,
	ChainBinanceSmartChain: 56,
	ChainGnosis:            100,
	ChainPolygon:           137,
	ChainBase:              8453,
	ChainArbitrum:          42161,
	ChainSepolia:           11155111,
	ChainSolana:            101,
	ChainTron:              728126428,
}

var OfficialRPCEndpoints = map[string][]string{
	ChainEthereum:          {"https://cloudflare-eth.com", "https://ethereum-rpc.publicnode.com"},
	ChainOptimism:          {"https://mainnet.optimism.io"},
	ChainBinanceSmartChain: {"https://bsc-dataseed.binance.org"},
	ChainGnosis:            {"https://rpc.gnosischain.com"},
	ChainPolygon:           {"https://polygon-rpc.com"},
	ChainBase:              {"https://mainnet.base.org"},
	ChainArbitrum:          {"https://arb1.arbitrum.io/rpc"},
	ChainSepolia:           {"https://rpc.sepolia.org"},
	ChainSolana:            {"https://api.mainnet-beta.solana.com"},
	ChainTron:              {"https://api.trongrid.io"},
}

var BlockExplorers = map[string][]string{
	ChainEthereum:          {"https://etherscan.io"},
	ChainOptimism:          {"https://optimistic.etherscan.io"},
	ChainBinanceSmartChain: {"https://bscscan.com"},
	ChainGnosis:            {"https://gnosisscan.io"},
	ChainPolygon:           {"https://polygonscan.com"},
	ChainBase:              {"https://basescan.org"},
	ChainArbitrum:          {"https://arbiscan.io"},
	ChainSepolia:           {"https://sepolia.etherscan.io"},
	ChainSolana:            {"https://solscan.io"},
	ChainTron:              {"https://tronscan.org"},
}
