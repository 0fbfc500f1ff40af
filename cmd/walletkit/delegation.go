package main

import (
	"fmt"
	"strconv"

	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/delegation"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newAuthorizationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authorization <chainId> <delegator> [nonce]",
		Short: "Print the EIP-7702 authorization typed data and its digest",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID, err := strconv.ParseInt(args[0], 0, 64)
			if err != nil || chainID <= 0 {
				return fmt.Errorf("invalid chain id: %s", args[0])
			}
			if !common.IsHexAddress(args[1]) {
				return fmt.Errorf("invalid delegator address: %s", args[1])
			}
			delegator := common.HexToAddress(args[1]).Hex()

			var nonce *uint64
			if len(args) == 3 {
				n, err := strconv.ParseUint(args[2], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid nonce: %s", args[2])
				}
				nonce = &n
			}

			typedData := delegation.AuthorizationTypedData(chainID, delegator, nonce)
			payload, err := evm.MarshalTypedData(typedData)
			if err != nil {
				return err
			}
			digest, err := evm.TypedDataHash(typedData)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"typedData": json.RawMessage(payload),
				"digest":    hexutil.Encode(digest),
			})
		},
	}
}

func newParseSignatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-signature <signature>",
		Short: "Split a 65-byte signature into r, s and yParity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := delegation.ParseSignature(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"r":       sig.R,
				"s":       sig.S,
				"yParity": sig.YParity,
			})
		},
	}
}
