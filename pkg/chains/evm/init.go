package evm

import (
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
)

// NewReceiptSources creates receipt status sources for the EVM chains in endpoints
// Chains without custom endpoints fall back to the official endpoints
func NewReceiptSources(logger *slog.Logger, endpoints map[types.Chain][]string) map[types.Chain]*ReceiptSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sources := make(map[types.Chain]*ReceiptSource)

	for _, chain := range chains.SupportedChains() {
		if !chains.IsEVM(chain) {
			continue
		}

		chainEndpoints := endpoints[chain]
		if len(chainEndpoints) == 0 {
			chainEndpoints = constants.OfficialRPCEndpoints[string(chain)]
		}
		if len(chainEndpoints) == 0 {
			logger.Warn("no endpoints available for chain", "chain", chain)
			continue
		}

		sources[chain] = NewReceiptSource(chain, chainEndpoints)
	}

	return sources
}
