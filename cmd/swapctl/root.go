package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/config"
	"github.com/maduonyekaemeka33/DexSignal/internal/erc20"
	"github.com/maduonyekaemeka33/DexSignal/internal/quote"
	"github.com/maduonyekaemeka33/DexSignal/internal/swap"
	"github.com/maduonyekaemeka33/DexSignal/internal/util"
	"github.com/maduonyekaemeka33/DexSignal/internal/wallet"
)

var (
	cfgPath   string
	chainFlag uint64
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "Swap tokens through on-chain DEX routers",
	Long: `swapctl drives token swaps against UniswapV2-style routers: quoting,
allowance management, and swap execution from the command line.

Examples:
  swapctl quote 1.5 ETH to USDC
  swapctl swap 100 USDC to DAI --slippage 0.5
  swapctl tokens --chain 56
  swapctl approvals list USDC
  swapctl approvals revoke USDC
  swapctl relay 1000000000 <input-mint> to <output-mint> --quote-only`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "internal/config/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().Uint64Var(&chainFlag, "chain", 0, "Chain id (overrides config)")
}

func printError(err error) {
	color.Red("\nError: %v\n", err)
}

func printSuccess(message string) {
	color.Green("\n%s\n", message)
}

// app bundles everything a command needs once the session is connected.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	ch     chain.Chain
	sess   *wallet.Session
	oracle *erc20.Oracle
	engine *quote.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	chainID := cfg.Wallet.ChainID
	if chainFlag != 0 {
		chainID = chainFlag
	}
	ch := chain.Get(chainID)

	rpcURL := cfg.Wallet.RPCURL(chainID)
	if rpcURL == "" {
		return nil, fmt.Errorf("no rpc url configured for chain %d", chainID)
	}
	sess, err := wallet.Dial(rpcURL, wallet.Kind(cfg.Wallet.Kind), log, wallet.WithKeyEnvName(cfg.Wallet.KeyEnvName))
	if err != nil {
		return nil, err
	}
	if _, _, err := sess.Connect(ctx); err != nil {
		return nil, err
	}

	caller := sess.Backend()
	return &app{
		cfg:    cfg,
		log:    log,
		ch:     ch,
		sess:   sess,
		oracle: erc20.NewOracle(caller, log),
		engine: quote.NewEngine(quote.NewOnChainSource(caller), log,
			quote.WithDebounce(time.Duration(cfg.Swap.QuoteDebounceMs)*time.Millisecond)),
	}, nil
}

func (a *app) orchestrator(slippage float64, onState func(swap.State)) *swap.Orchestrator {
	if slippage <= 0 {
		slippage = a.cfg.Swap.SlippagePercent
	}
	return swap.New(a.ch, a.sess, a.oracle, a.engine, swap.Config{
		SlippagePercent: slippage,
		Deadline:        time.Duration(a.cfg.Swap.DeadlineMinutes) * time.Minute,
		ApprovalMode:    erc20.ParseApprovalMode(a.cfg.Swap.ApprovalMode),
		FeeOnTransfer:   a.cfg.Swap.FeeOnTransfer,
	}, a.log, swap.WithStateFunc(onState))
}

// findToken resolves a symbol or 0x address on the active chain.
func (a *app) findToken(s string) (chain.Token, error) {
	tok, ok := chain.FindToken(a.ch.ID, s)
	if !ok {
		return chain.Token{}, fmt.Errorf("unknown token %q on %s", s, a.ch.Name)
	}
	return tok, nil
}

// parsePair interprets "<amount> <in> to <out>" argument lists.
func parsePair(args []string) (amount, in, out string, err error) {
	joined := strings.Join(args, " ")
	parts := strings.Fields(joined)
	if len(parts) != 4 || !strings.EqualFold(parts[2], "to") {
		return "", "", "", fmt.Errorf("expected: <amount> <token-in> to <token-out>")
	}
	return parts[0], parts[1], parts[3], nil
}
