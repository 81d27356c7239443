package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/config"
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the curated tokens for a chain",
	Long: `List the curated token set for the active chain.

Examples:
  swapctl tokens
  swapctl tokens --chain 8453`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) {
	chainID := chainFlag
	if chainID == 0 {
		if cfg, err := config.Load(cfgPath); err == nil {
			chainID = cfg.Wallet.ChainID
		} else {
			chainID = chain.DefaultChainID
		}
	}
	ch := chain.Get(chainID)
	tokens := ch.Tokens
	if len(tokens) == 0 {
		printError(fmt.Errorf("no tokens registered for chain %d", chainID))
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 72))
	color.Green("  %s (chain %d)", strings.ToUpper(ch.Name), ch.ID)
	fmt.Println(strings.Repeat("=", 72))
	for _, tok := range tokens {
		addr := tok.Address.Hex()
		if tok.Native {
			addr = "native"
		}
		fmt.Printf("  %-8s %2d decimals  %s\n",
			color.YellowString(tok.Symbol),
			tok.Decimals,
			color.HiBlackString(addr))
	}
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
