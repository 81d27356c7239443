package swap

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/erc20"
	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
	"github.com/maduonyekaemeka33/DexSignal/internal/quote"
	"github.com/maduonyekaemeka33/DexSignal/internal/router"
	"github.com/maduonyekaemeka33/DexSignal/internal/wallet"
)

// State is the lifecycle of a single swap attempt. Transitions are strictly
// forward; a new attempt starts over from Idle.
type State string

const (
	StateIdle              State = "idle"
	StateCheckingAllowance State = "checking_allowance"
	StateApproving         State = "approving"
	StatePreparingSwap     State = "preparing_swap"
	StateAwaitingSignature State = "awaiting_signature"
	StatePending           State = "pending"
	StateConfirmed         State = "confirmed"
	StateFailed            State = "failed"
)

// Preflight reasons reported while the attempt is still Idle. They double as
// the action-button label in a front end.
const (
	ReasonNoWallet            = "Connect Wallet"
	ReasonNoTokens            = "Select Tokens"
	ReasonNoAmount            = "Enter Amount"
	ReasonInsufficientBalance = "Insufficient Balance"
)

// PreflightError reports an unmet precondition. The swap never leaves Idle
// when one is returned.
type PreflightError struct {
	Reason string
}

func (e *PreflightError) Error() string { return e.Reason }

// Wallet is the slice of the session the orchestrator needs.
type Wallet interface {
	Account() (common.Address, bool)
	NativeBalance(ctx context.Context, account common.Address) *big.Int
	SignAndSend(ctx context.Context, req wallet.TxRequest) (wallet.TxHandle, error)
	AwaitConfirmation(ctx context.Context, h wallet.TxHandle) (*types.Receipt, error)
}

// TokenOracle reads and mutates ERC-20 state.
type TokenOracle interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) *big.Int
	BalanceOf(ctx context.Context, token, account common.Address) *big.Int
	Approve(ctx context.Context, sender erc20.Sender, token, spender common.Address, amount *big.Int) (wallet.TxHandle, error)
}

// Quoter supplies a fresh expected output for the pair.
type Quoter interface {
	QuoteNow(ctx context.Context, req quote.Request) (*quote.Quote, error)
}

// Intent is what the user asked for: swap AmountIn of TokenIn into TokenOut.
type Intent struct {
	TokenIn  chain.Token
	TokenOut chain.Token
	AmountIn *big.Int
}

// Result reports a confirmed swap.
type Result struct {
	TxHash       common.Hash
	Method       string
	AmountOutMin *big.Int
	BalanceIn    *big.Int
	BalanceOut   *big.Int
}

// Config tunes a single orchestrator. Zero values are replaced by defaults
// matching the interface: 1% slippage, 10 minute deadline, unlimited approvals.
type Config struct {
	SlippagePercent float64
	Deadline        time.Duration
	ApprovalMode    erc20.ApprovalMode
	FeeOnTransfer   bool
}

func (c Config) withDefaults() Config {
	if c.SlippagePercent <= 0 {
		c.SlippagePercent = 1.0
	}
	if c.Deadline <= 0 {
		c.Deadline = 10 * time.Minute
	}
	if c.ApprovalMode == "" {
		c.ApprovalMode = erc20.ModeUnlimited
	}
	return c
}

// Orchestrator drives a swap through its states. It owns no goroutines; Swap
// blocks until the attempt confirms or fails.
type Orchestrator struct {
	ch     chain.Chain
	wallet Wallet
	oracle TokenOracle
	quoter Quoter
	cfg    Config
	log    zerolog.Logger

	onState func(State)
	state   State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStateFunc registers a hook invoked on every state transition.
func WithStateFunc(fn func(State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

// New builds an orchestrator bound to one chain.
func New(ch chain.Chain, w Wallet, oracle TokenOracle, quoter Quoter, cfg Config, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ch:     ch,
		wallet: w,
		oracle: oracle,
		quoter: quoter,
		cfg:    cfg.withDefaults(),
		log:    log.With().Str("component", "swap").Logger(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) setState(s State) {
	o.state = s
	metrics.SwapsTotal.WithLabelValues(string(s)).Inc()
	o.log.Debug().Str("state", string(s)).Msg("swap state")
	if o.onState != nil {
		o.onState(s)
	}
}

// MinAmountOut applies the slippage tolerance to a quoted output, rounding
// down. The percentage is carried in basis points so fractional tolerances
// stay exact in integer math.
func MinAmountOut(quoted *big.Int, slippagePercent float64) *big.Int {
	bps := int64(math.Floor((100 - slippagePercent) * 100))
	if bps < 0 {
		bps = 0
	}
	out := new(big.Int).Mul(quoted, big.NewInt(bps))
	return out.Div(out, big.NewInt(10000))
}

// balanceOf reads the spendable balance of a token for the connected account.
// Native balances come from the node directly, everything else via balanceOf.
func (o *Orchestrator) balanceOf(ctx context.Context, tok chain.Token, account common.Address) *big.Int {
	if tok.Native {
		return o.wallet.NativeBalance(ctx, account)
	}
	return o.oracle.BalanceOf(ctx, tok.Address, account)
}

// preflight checks the preconditions that keep the attempt in Idle. The
// returned reason doubles as the disabled-button label.
func (o *Orchestrator) preflight(ctx context.Context, in Intent) (common.Address, error) {
	account, ok := o.wallet.Account()
	if !ok {
		return common.Address{}, &PreflightError{Reason: ReasonNoWallet}
	}
	if in.TokenIn.Symbol == "" || in.TokenOut.Symbol == "" {
		return common.Address{}, &PreflightError{Reason: ReasonNoTokens}
	}
	if in.AmountIn == nil || in.AmountIn.Sign() <= 0 {
		return common.Address{}, &PreflightError{Reason: ReasonNoAmount}
	}
	balance := o.balanceOf(ctx, in.TokenIn, account)
	if balance.Cmp(in.AmountIn) < 0 {
		return common.Address{}, &PreflightError{Reason: ReasonInsufficientBalance}
	}
	return account, nil
}

// ensureAllowance brings the router allowance up to the intent amount,
// approving first when the configured mode requires it. The allowance is
// always re-read on chain after an approval confirms; cached values are never
// trusted.
func (o *Orchestrator) ensureAllowance(ctx context.Context, in Intent, account common.Address) error {
	allowance := o.oracle.Allowance(ctx, in.TokenIn.Address, account, o.ch.Router)
	if !erc20.NeedsApproval(o.cfg.ApprovalMode, allowance, in.AmountIn) {
		return nil
	}

	o.setState(StateApproving)
	amount := erc20.ApprovalAmount(o.cfg.ApprovalMode, in.AmountIn)
	o.log.Info().
		Str("token", in.TokenIn.Symbol).
		Str("mode", string(o.cfg.ApprovalMode)).
		Msg("approving router")
	handle, err := o.oracle.Approve(ctx, o.wallet, in.TokenIn.Address, o.ch.Router, amount)
	if err != nil {
		return fmt.Errorf("approve %s: %w", in.TokenIn.Symbol, err)
	}
	if _, err := o.wallet.AwaitConfirmation(ctx, handle); err != nil {
		return fmt.Errorf("approve %s: %w", in.TokenIn.Symbol, err)
	}
	metrics.ApprovalsTotal.WithLabelValues(string(o.cfg.ApprovalMode)).Inc()

	allowance = o.oracle.Allowance(ctx, in.TokenIn.Address, account, o.ch.Router)
	if allowance.Cmp(in.AmountIn) < 0 {
		return fmt.Errorf("allowance %s still below amount after approval", allowance)
	}
	return nil
}

// Swap runs the full state machine for one intent. It returns a *Failure on
// any post-Idle error and a *PreflightError when a precondition is unmet.
func (o *Orchestrator) Swap(ctx context.Context, in Intent) (*Result, error) {
	o.state = StateIdle

	account, err := o.preflight(ctx, in)
	if err != nil {
		return nil, err
	}

	o.setState(StateCheckingAllowance)
	if !in.TokenIn.Native {
		if err := o.ensureAllowance(ctx, in, account); err != nil {
			o.setState(StateFailed)
			return nil, Classify(err)
		}
	}

	o.setState(StatePreparingSwap)
	variant := router.ResolveVariant(in.TokenIn, in.TokenOut)
	path, err := router.BuildPath(in.TokenIn, in.TokenOut, o.ch.WrappedNative)
	if err != nil {
		o.setState(StateFailed)
		return nil, Classify(err)
	}

	minOut := big.NewInt(0)
	q, err := o.quoter.QuoteNow(ctx, quote.Request{
		TokenIn:  in.TokenIn,
		TokenOut: in.TokenOut,
		AmountIn: in.AmountIn,
		ChainID:  o.ch.ID,
	})
	if err != nil {
		// No quote means no slippage floor. Proceed unprotected rather
		// than fail: the user already committed to the swap.
		o.log.Warn().Err(err).Msg("quote unavailable, swapping without minimum output")
	} else {
		minOut = MinAmountOut(q.AmountOut, o.cfg.SlippagePercent)
	}

	deadline := big.NewInt(time.Now().Add(o.cfg.Deadline).Unix())
	call, err := router.BuildSwap(variant, o.cfg.FeeOnTransfer, in.AmountIn, minOut, path, account, deadline)
	if err != nil {
		o.setState(StateFailed)
		return nil, Classify(err)
	}

	o.setState(StateAwaitingSignature)
	handle, err := o.wallet.SignAndSend(ctx, wallet.TxRequest{
		To:    o.ch.Router,
		Value: call.Value,
		Data:  call.Data,
	})
	if err != nil {
		o.setState(StateFailed)
		return nil, Classify(err)
	}

	o.setState(StatePending)
	o.log.Info().Str("tx", handle.Hash.Hex()).Msg("swap submitted")
	if _, err := o.wallet.AwaitConfirmation(ctx, handle); err != nil {
		o.setState(StateFailed)
		return nil, Classify(err)
	}

	o.setState(StateConfirmed)
	res := &Result{
		TxHash:       handle.Hash,
		Method:       call.Method,
		AmountOutMin: minOut,
		BalanceIn:    o.balanceOf(ctx, in.TokenIn, account),
		BalanceOut:   o.balanceOf(ctx, in.TokenOut, account),
	}
	o.log.Info().
		Str("tx", res.TxHash.Hex()).
		Str("method", res.Method).
		Str("min_out", minOut.String()).
		Msg("swap confirmed")
	return res, nil
}
