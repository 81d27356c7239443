package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/quote"
	"github.com/maduonyekaemeka33/DexSignal/internal/swap"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <token-in> to <token-out>",
	Short: "Estimate swap output without executing",
	Long: `Quote the expected output for a swap via the router's getAmountsOut,
including the minimum received after the configured slippage tolerance.

Examples:
  swapctl quote 1.5 ETH to USDC
  swapctl quote 2500 USDC to WBTC --chain 1`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	amountStr, inStr, outStr, err := parsePair(args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a, err := newApp(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tokenIn, err := a.findToken(inStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	tokenOut, err := a.findToken(outStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	amount, err := chain.ParseUnits(amountStr, tokenIn.Decimals)
	if err != nil {
		printError(fmt.Errorf("amount %q: %w", amountStr, err))
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching quote..."
	s.Start()
	q, err := a.engine.QuoteNow(ctx, quote.Request{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amount,
		ChainID:  a.ch.ID,
	})
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	minOut := swap.MinAmountOut(q.AmountOut, a.cfg.Swap.SlippagePercent)

	fmt.Println()
	color.Green("QUOTE — %s", a.ch.Name)
	fmt.Printf("  In:           %s %s\n", amountStr, tokenIn.Symbol)
	fmt.Printf("  Out (est):    %s %s\n", chain.FormatUnits(q.AmountOut, tokenOut.Decimals), tokenOut.Symbol)
	fmt.Printf("  Min received: %s %s (%.2f%% slippage)\n",
		chain.FormatUnits(minOut, tokenOut.Decimals), tokenOut.Symbol, a.cfg.Swap.SlippagePercent)
	fmt.Printf("  Route:        %d hop(s)\n\n", len(q.Path)-1)
}
