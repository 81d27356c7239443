package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/erc20"
)

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Inspect and revoke router allowances",
}

var approvalsListCmd = &cobra.Command{
	Use:   "list [token...]",
	Short: "Show the router allowance for tokens",
	Long: `Show the current router allowance for the given tokens, or for every
curated token on the chain when none are named. Allowances are always read
fresh from the chain.

Examples:
  swapctl approvals list
  swapctl approvals list USDC DAI
  swapctl approvals list 0x6B175474E89094C44Da98b954EedeAC495271d0F`,
	Run: runApprovalsList,
}

var approvalsRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Set a token's router allowance to zero",
	Args:  cobra.ExactArgs(1),
	Run:   runApprovalsRevoke,
}

func init() {
	rootCmd.AddCommand(approvalsCmd)
	approvalsCmd.AddCommand(approvalsListCmd)
	approvalsCmd.AddCommand(approvalsRevokeCmd)
}

// resolveApprovalToken accepts a curated symbol or any 0x address.
func resolveApprovalToken(ctx context.Context, a *app, s string) (chain.Token, error) {
	if tok, err := a.findToken(s); err == nil {
		return tok, nil
	}
	if !common.IsHexAddress(s) {
		return chain.Token{}, fmt.Errorf("unknown token %q on %s", s, a.ch.Name)
	}
	addr := common.HexToAddress(s)
	info, err := a.oracle.TokenInfo(ctx, addr)
	if err != nil {
		return chain.Token{}, fmt.Errorf("read token %s: %w", s, err)
	}
	return chain.Token{Symbol: info.Symbol, Name: info.Name, Address: addr, Decimals: info.Decimals}, nil
}

func runApprovalsList(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	account, ok := a.sess.Account()
	if !ok {
		printError(fmt.Errorf("wallet not connected"))
		os.Exit(1)
	}

	var tokens []chain.Token
	if len(args) == 0 {
		for _, tok := range a.ch.Tokens {
			if !tok.Native {
				tokens = append(tokens, tok)
			}
		}
	} else {
		for _, arg := range args {
			tok, err := resolveApprovalToken(ctx, a, arg)
			if err != nil {
				printError(err)
				os.Exit(1)
			}
			tokens = append(tokens, tok)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 72))
	color.Green("  ROUTER ALLOWANCES — %s", a.ch.Name)
	fmt.Println(strings.Repeat("=", 72))
	for _, tok := range tokens {
		allowance := a.oracle.Allowance(ctx, tok.Address, account, a.ch.Router)
		display := chain.FormatUnits(allowance, tok.Decimals)
		switch {
		case erc20.IsUnlimited(allowance):
			display = color.CyanString("unlimited")
		case allowance.Sign() == 0:
			display = color.HiBlackString("none")
		}
		fmt.Printf("  %-8s %s\n", color.YellowString(tok.Symbol), display)
	}
	fmt.Println()
}

func runApprovalsRevoke(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	tok, err := resolveApprovalToken(ctx, a, args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if tok.Native {
		printError(fmt.Errorf("%s is the native asset; it has no allowance", tok.Symbol))
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Revoking %s allowance...", tok.Symbol)
	s.Start()

	handle, err := a.oracle.Revoke(ctx, a.sess, tok.Address, a.ch.Router)
	if err == nil {
		_, err = a.sess.AwaitConfirmation(ctx, handle)
	}
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("%s allowance revoked", tok.Symbol))
	fmt.Printf("  Tx: %s\n\n", handle.Hash.Hex())
}
