package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/spf13/cobra"
)

func newChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List supported chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CHAIN\tFAMILY\tID\tHEX\tCURRENCY")
			for _, chain := range chains.SupportedChains() {
				info, _ := chains.Info(chain)
				hex := info.Hex
				if hex == "" {
					hex = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", chain, info.Family, info.ID, hex, info.NativeCurrency.Symbol)
			}
			return w.Flush()
		},
	}
}

func newChainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chain [name|id|hex]",
		Short: "Resolve a chain by name, numeric id or hex id",
		Long: `Resolve a chain by name, numeric id or hex id.
Without an argument the config's defaultChain is shown.

Examples:
  walletkit chain 8453
  walletkit chain 0x2105
  walletkit chain Polygon`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := string(a.cfg.DefaultChain)
			if len(args) == 1 {
				query = args[0]
			}
			chain, ok := chains.ToChain(query)
			if !ok {
				return fmt.Errorf("unsupported chain: %s", query)
			}
			info, _ := chains.Info(chain)
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newAddChainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-chain <chain>",
		Short: "Print the wallet_addEthereumChain payload of a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, ok := chains.ToChain(args[0])
			if !ok {
				return fmt.Errorf("unsupported chain: %s", args[0])
			}
			payload, ok := chains.ToAddChainPayload(chain)
			if !ok {
				if chains.IsEVM(chain) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is known to every wallet, no add-chain step needed\n", chain)
					return nil
				}
				return &chains.UnsupportedChainError{Chain: chain}
			}
			return printJSON(cmd.OutOrStdout(), payload)
		},
	}
}
