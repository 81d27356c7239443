package swap

import (
	"errors"
	"strings"

	"github.com/maduonyekaemeka33/DexSignal/internal/wallet"
)

// Kind is the closed set of user-facing failure categories. Every chain or
// provider error is folded into one of these at the operation boundary.
type Kind string

const (
	KindWalletUnavailable     Kind = "wallet_unavailable"
	KindUserRejected          Kind = "user_rejected"
	KindInsufficientFunds     Kind = "insufficient_funds"
	KindInsufficientLiquidity Kind = "insufficient_liquidity"
	KindSlippageExceeded      Kind = "slippage_exceeded"
	KindTransferRestricted    Kind = "transfer_restricted"
	KindDeadlineExpired       Kind = "deadline_expired"
	KindGasEstimationFailed   Kind = "gas_estimation_failed"
	KindUnknown               Kind = "unknown"
)

// Failure carries the classified kind plus the advice shown to the user.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// messages holds the user-facing text per kind, matching the remedies the
// interface suggests.
var messages = map[Kind]string{
	KindWalletUnavailable:     "No wallet available. Install or open a wallet and reconnect.",
	KindUserRejected:          "Transaction rejected by user.",
	KindInsufficientFunds:     "Insufficient funds to cover gas + amount.",
	KindInsufficientLiquidity: "No liquidity available for this pair. The pool may be empty or the token is a honeypot.",
	KindSlippageExceeded:      "Insufficient output amount — the price moved. Try increasing slippage.",
	KindTransferRestricted:    "Token transfer failed. The token may have a transfer tax, be a honeypot, or restrict transfers.",
	KindDeadlineExpired:       "Transaction deadline expired. Please try again.",
	KindGasEstimationFailed:   "Cannot estimate gas. The token may block swaps (honeypot) or have a very high tax.",
}

// classification is decided by an ordered substring table over the lowercased
// error text; the first matching rule wins. Keeping the mapping as data makes
// the taxonomy auditable and unit-testable.
type rule struct {
	kind       Kind
	substrings []string
}

var rules = []rule{
	{KindUserRejected, []string{"user rejected", "user denied", "action_rejected"}},
	{KindSlippageExceeded, []string{"insufficient_output_amount", "insufficient output"}},
	{KindInsufficientLiquidity, []string{"insufficient_liquidity", "insufficient liquidity", "ds-math-sub-underflow"}},
	{KindTransferRestricted, []string{"transfer_from_failed", "transferfrom failed", "transfer failed", "transfer_failed"}},
	{KindDeadlineExpired, []string{"deadline", "expired"}},
	{KindInsufficientFunds, []string{"insufficient funds", "insufficient balance"}},
	{KindGasEstimationFailed, []string{"cannot estimate gas", "unpredictable_gas_limit", "gas required exceeds allowance", "estimate gas"}},
	// A bare revert with no recognizable reason usually means the token
	// restricts trading.
	{KindTransferRestricted, []string{"execution reverted"}},
}

// Classify folds any error from the swap flow into a Failure. Sentinel errors
// from the wallet session are matched first, then the substring table.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	switch {
	case errors.Is(err, wallet.ErrWalletUnavailable):
		return &Failure{Kind: KindWalletUnavailable, Message: messages[KindWalletUnavailable], Err: err}
	case errors.Is(err, wallet.ErrUserRejected):
		return &Failure{Kind: KindUserRejected, Message: messages[KindUserRejected], Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, sub := range r.substrings {
			if strings.Contains(msg, sub) {
				return &Failure{Kind: r.kind, Message: messages[r.kind], Err: err}
			}
		}
	}
	return &Failure{Kind: KindUnknown, Message: "Swap failed: " + err.Error(), Err: err}
}
