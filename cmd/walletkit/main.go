// Command walletkit inspects chains, delegation payloads, signatures and
// transaction status from the command line
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/DFXswiss/services-sub002/pkg/config"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// Version is overridable via -ldflags "-X main.Version=..."
var Version = "0.1.0"

// app is the state shared by all sub-commands
type app struct {
	cfgPath string
	verbose bool
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "walletkit",
		Short:         "Multi-chain wallet transaction toolkit",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if a.verbose {
				cfg.LogLevel = "debug"
			}
			a.cfg = cfg
			return nil
		},
	}

	if envPath := os.Getenv("WALLETKIT_CONFIG"); envPath != "" {
		a.cfgPath = envPath
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", a.cfgPath, "config file (JSON)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newChainsCmd(),
		newChainCmd(a),
		newAddChainCmd(),
		newAuthorizationCmd(),
		newParseSignatureCmd(),
		newStatusCmd(a),
		newCapabilitiesCmd(a),
		newDetectCmd(),
	)
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// printJSON writes v indented to w
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
