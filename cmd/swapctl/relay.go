package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	sol "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/maduonyekaemeka33/DexSignal/internal/config"
	"github.com/maduonyekaemeka33/DexSignal/internal/dex/solana"
	"github.com/maduonyekaemeka33/DexSignal/internal/util"
)

var (
	relaySlippageBps int
	relayQuoteOnly   bool
)

var relayCmd = &cobra.Command{
	Use:   "relay <amount> <input-mint> to <output-mint>",
	Short: "Swap through the Solana aggregator",
	Long: `Relay a swap through the aggregator: fetch a route, receive a
ready-to-sign transaction, sign it with the key from ` + solana.DefaultKeyEnvName + `,
and submit it. Amounts are raw smallest units (lamports for SOL).

Examples:
  swapctl relay 1000000000 So11111111111111111111111111111111111111112 to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
  swapctl relay 5000000 <input-mint> to <output-mint> --slippage-bps 100 --quote-only`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().IntVar(&relaySlippageBps, "slippage-bps", 50, "Slippage tolerance in basis points")
	relayCmd.Flags().BoolVar(&relayQuoteOnly, "quote-only", false, "Fetch the route without signing or sending")
}

// parseRawAmount reads a raw smallest-unit amount. Decimal points are
// rejected outright rather than silently truncated.
func parseRawAmount(s string) (uint64, error) {
	if strings.Contains(s, ".") {
		return 0, fmt.Errorf("amount %q must be in raw smallest units", s)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return v, nil
}

func runRelay(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	amountStr, inMint, outMint, err := parsePair(args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	amount, err := parseRawAmount(amountStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	key := solanaKey(relayQuoteOnly)
	feeAccount := os.Getenv(cfg.Aggregator.FeeAccountEnvName)
	client := solana.NewClient(cfg.Aggregator.RPCURL, cfg.Aggregator.BaseURL, key, cfg.Aggregator.Commitment, log,
		solana.WithPlatformFee(cfg.Aggregator.PlatformFeeBps, feeAccount))

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching route..."
	s.Start()
	defer s.Stop()

	quote, err := client.GetQuote(ctx, inMint, outMint, amount, relaySlippageBps)
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}

	if relayQuoteOnly {
		s.Stop()
		printSuccess("Route found")
		printRelayQuote(quote)
		return
	}

	s.Suffix = " Signing and sending..."
	sig, err := client.BuildAndSendSwap(ctx, quote)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Swap submitted")
	printRelayQuote(quote)
	fmt.Printf("  Signature:    %s\n", sig.String())
	fmt.Printf("\n  %s\n\n", color.HiBlackString("https://solscan.io/tx/%s", sig.String()))
}

// solanaKey loads the signing key; quote-only mode skips it entirely so a
// route can be inspected without any key material present.
func solanaKey(quoteOnly bool) sol.PrivateKey {
	if quoteOnly {
		return nil
	}
	key, err := solana.LoadPrivateKeyFromEnv("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return key
}

func printRelayQuote(q *solana.Quote) {
	fmt.Printf("  In:           %s %s\n", q.InAmount, q.InputMint)
	fmt.Printf("  Out:          %s %s\n", q.OutAmount, q.OutputMint)
	fmt.Printf("  Min out:      %s\n", q.OtherAmount)
	if q.PriceImpactPct != "" {
		fmt.Printf("  Price impact: %s%%\n", q.PriceImpactPct)
	}
}
