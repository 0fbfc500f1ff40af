package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DFXswiss/services-sub002/pkg/backend"
	"github.com/DFXswiss/services-sub002/pkg/broadcast"
	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/chains/svm"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var (
		backendURL string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "status <chain> <txHash>",
		Short: "Show the status of a transaction",
		Long: `Show the status of a transaction.

The backend status endpoint is used when --backend (or backendUrl in the
config) is set. Otherwise EVM receipts and Solana signature statuses are
read from the chain's RPC endpoints.

With --wait the command polls until the transaction settles or the
confirmation timeout runs out.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, ok := chains.ToChain(args[0])
			if !ok {
				return fmt.Errorf("unsupported chain: %s", args[0])
			}
			if backendURL == "" {
				backendURL = a.cfg.BackendURL
			}

			logger := a.cfg.Logger(os.Stderr)
			source, err := statusSource(a, chain, backendURL)
			if err != nil {
				return err
			}

			if !wait {
				ctx, cancel := context.WithTimeout(cmd.Context(), constants.BackendTimeout)
				defer cancel()

				status, err := source.TransactionStatus(ctx, chain, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			}

			registry, err := chains.NewRegistry()
			if err != nil {
				return err
			}
			b := broadcast.NewBroadcaster(registry, source, broadcast.WithLogger(logger))

			result, err := b.AwaitConfirmation(cmd.Context(), chain, args[1], broadcast.Options{
				Timeout:      time.Duration(a.cfg.ConfirmationTimeout),
				PollInterval: time.Duration(a.cfg.ConfirmationInterval),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend", "", "transaction backend base URL")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the transaction settles")
	return cmd
}

func statusSource(a *app, chain types.Chain, backendURL string) (broadcast.StatusSource, error) {
	logger := a.cfg.Logger(os.Stderr)

	if backendURL != "" {
		client, err := backend.NewClient(backendURL, backend.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	family, _ := chains.FamilyOf(chain)
	switch family {
	case types.FamilyEVM:
		sources := evm.NewReceiptSources(logger, map[types.Chain][]string{chain: a.cfg.Endpoints(chain)})
		source, ok := sources[chain]
		if !ok {
			return nil, fmt.Errorf("no RPC endpoints for %s", chain)
		}
		return source, nil
	case types.FamilySolana:
		return svm.NewDefaultStatusSource(logger, a.cfg.Endpoints(chain)), nil
	default:
		return nil, fmt.Errorf("%s status needs the transaction backend (--backend)", chain)
	}
}
