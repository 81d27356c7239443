package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/swap"
)

var slippageFlag float64

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <token-in> to <token-out>",
	Short: "Execute a token swap",
	Long: `Swap tokens through the chain's router. The flow checks the balance,
raises the router allowance when needed, quotes, and submits the swap,
waiting for on-chain confirmation.

Examples:
  swapctl swap 0.5 ETH to USDC
  swapctl swap 100 USDC to DAI --slippage 0.5
  swapctl swap 1000 SHIB to ETH --chain 1`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().Float64Var(&slippageFlag, "slippage", 0, "Slippage tolerance percent (default from config)")
}

var stateLabels = map[swap.State]string{
	swap.StateCheckingAllowance: "Checking allowance...",
	swap.StateApproving:         "Approving router...",
	swap.StatePreparingSwap:     "Preparing swap...",
	swap.StateAwaitingSignature: "Signing transaction...",
	swap.StatePending:           "Waiting for confirmation...",
}

func runSwap(cmd *cobra.Command, args []string) {
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
	s.Start()
	defer s.Stop()

	orch := a.orchestrator(slippageFlag, func(st swap.State) {
		if label, ok := stateLabels[st]; ok {
			s.Suffix = " " + label
		}
	})

	res, err := orch.Swap(ctx, swap.Intent{TokenIn: tokenIn, TokenOut: tokenOut, AmountIn: amount})
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Swap confirmed")
	fmt.Printf("  Tx:           %s\n", res.TxHash.Hex())
	fmt.Printf("  Method:       %s\n", res.Method)
	fmt.Printf("  Min received: %s %s\n", chain.FormatUnits(res.AmountOutMin, tokenOut.Decimals), tokenOut.Symbol)
	fmt.Printf("  Balance %-5s %s\n", tokenIn.Symbol+":", chain.FormatUnits(res.BalanceIn, tokenIn.Decimals))
	fmt.Printf("  Balance %-5s %s\n", tokenOut.Symbol+":", chain.FormatUnits(res.BalanceOut, tokenOut.Decimals))
	if a.ch.Explorer != "" {
		fmt.Printf("\n  %s\n\n", color.HiBlackString("%s/tx/%s", a.ch.Explorer, res.TxHash.Hex()))
	}
}
