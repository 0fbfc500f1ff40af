package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/constants"
	"github.com/DFXswiss/services-sub002/pkg/gasless"
	"github.com/DFXswiss/services-sub002/pkg/provider"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/wallet"
	"github.com/spf13/cobra"
)

func newCapabilitiesCmd(a *app) *cobra.Command {
	var (
		rpcURL string
		chain  string
	)

	cmd := &cobra.Command{
		Use:   "capabilities <address>",
		Short: "Query wallet capabilities (wallet_getCapabilities) over JSON-RPC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rpcURL == "" {
				return fmt.Errorf("--rpc is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.BackendTimeout)
			defer cancel()

			p, err := provider.DialRPCProvider(ctx, rpcURL)
			if err != nil {
				return err
			}
			defer p.Close()

			dispatcher := gasless.NewDispatcher(p,
				gasless.WithLogger(a.cfg.Logger(os.Stderr)),
				gasless.WithVersion(a.cfg.CallsVersion))

			capabilities, err := dispatcher.GetCapabilities(ctx, args[0])
			if err != nil {
				return err
			}

			if chain == "" {
				return printJSON(cmd.OutOrStdout(), capabilities)
			}

			resolved, ok := chains.ToChain(chain)
			if !ok {
				return fmt.Errorf("unsupported chain: %s", chain)
			}
			hex, ok := chains.ToChainHex(resolved)
			if !ok {
				return &chains.UnsupportedChainError{Chain: resolved}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"chain":            resolved,
				"paymasterService": capabilities.Supported(hex, types.CapabilityPaymasterService),
				"atomicBatch":      capabilities.Supported(hex, types.CapabilityAtomicBatch),
				"auxiliaryFunds":   capabilities.Supported(hex, types.CapabilityAuxiliaryFunds),
				"atomic":           capabilities.AtomicStatus(hex),
			})
		},
	}

	cmd.Flags().StringVar(&rpcURL, "rpc", "", "wallet JSON-RPC endpoint")
	cmd.Flags().StringVar(&chain, "chain", "", "summarize the capabilities of one chain")
	return cmd
}

func newDetectCmd() *cobra.Command {
	var (
		userAgent string
		mobile    bool
		flags     []string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Resolve the active wallet kind from a user agent and provider flags",
		Long: `Resolve the active wallet kind from a user agent and provider flags.

Example:
  walletkit detect --mobile --flag ethereum --flag isMetaMask \
    --user-agent "Mozilla/5.0 (iPhone) MetaMaskMobile/7.24.0"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := wallet.Environment{UserAgent: userAgent, Mobile: mobile, Flags: make(map[string]bool)}
			for _, flag := range flags {
				env.Flags[strings.TrimSpace(flag)] = true
			}

			kind, ok := wallet.NewDetector(env).DetectActiveKind()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no wallet detected")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), kind)
			return nil
		},
	}

	cmd.Flags().StringVar(&userAgent, "user-agent", "", "browser user agent")
	cmd.Flags().BoolVar(&mobile, "mobile", false, "mobile device")
	cmd.Flags().StringSliceVar(&flags, "flag", nil, "injected provider flag (repeatable)")
	return cmd
}
