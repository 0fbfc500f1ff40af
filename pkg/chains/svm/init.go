package svm

import (
	"io"
	"log/slog"

	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
)

// NewDefaultStatusSource creates the Solana status source
// Falls back to the official endpoints when endpoints is empty
func NewDefaultStatusSource(logger *slog.Logger, endpoints []string) *StatusSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(endpoints) == 0 {
		endpoints = constants.OfficialRPCEndpoints[constants.ChainSolana]
		logger.Info("using official endpoints for Solana status source")
	}
	return NewStatusSource(types.Chain(constants.ChainSolana), endpoints)
}
