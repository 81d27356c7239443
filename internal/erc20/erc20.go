// Package erc20 reads and writes ERC-20 state: balances, token metadata, and
// the allowance/approve pair the swap flow depends on.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/wallet"
)

const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(fmt.Sprintf("erc20: bad ABI: %v", err))
	}
	return parsed
}()

// MaxAllowance is the unlimited-approval sentinel (2^256 - 1).
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// unlimitedThreshold marks allowances treated as effectively unlimited for
// display. Some tokens decrement huge approvals, so exact MaxUint256 is too strict.
var unlimitedThreshold = new(big.Int).Rsh(MaxAllowance, 1)

// IsUnlimited reports whether an allowance is effectively unlimited.
func IsUnlimited(allowance *big.Int) bool {
	return allowance != nil && allowance.Cmp(unlimitedThreshold) >= 0
}

// ApprovalMode selects how much transfer right an approval grants.
type ApprovalMode string

const (
	// ModeUnlimited approves MaxAllowance once; re-requested only when the
	// current allowance is exactly zero.
	ModeUnlimited ApprovalMode = "unlimited"
	// ModeExact approves precisely the pending amount; re-issued whenever the
	// current allowance falls short.
	ModeExact ApprovalMode = "exact"
)

// ParseApprovalMode normalizes a config string, defaulting to unlimited.
func ParseApprovalMode(s string) ApprovalMode {
	if strings.EqualFold(s, string(ModeExact)) {
		return ModeExact
	}
	return ModeUnlimited
}

// NeedsApproval applies the per-mode rule to a freshly read allowance.
func NeedsApproval(mode ApprovalMode, allowance, amount *big.Int) bool {
	if mode == ModeUnlimited {
		return allowance.Sign() == 0
	}
	return allowance.Cmp(amount) < 0
}

// ApprovalAmount returns what an approval in the given mode should grant.
func ApprovalAmount(mode ApprovalMode, amount *big.Int) *big.Int {
	if mode == ModeUnlimited {
		return MaxAllowance
	}
	return amount
}

// Caller performs read-only contract calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Sender submits state-changing transactions.
type Sender interface {
	SignAndSend(ctx context.Context, req wallet.TxRequest) (wallet.TxHandle, error)
}

// Info is the metadata read off a pasted contract address.
type Info struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// Oracle is the read/write gateway to ERC-20 contracts.
type Oracle struct {
	caller Caller
	log    zerolog.Logger
}

func NewOracle(caller Caller, log zerolog.Logger) *Oracle {
	return &Oracle{caller: caller, log: log}
}

// Allowance reads allowance(owner, spender) on token. Any failure yields zero:
// "no allowance" is the conservative reading, forcing a re-approval instead of
// risking an under-approved swap.
func (o *Oracle) Allowance(ctx context.Context, token, owner, spender common.Address) *big.Int {
	out, err := o.callBig(ctx, token, "allowance", owner, spender)
	if err != nil {
		o.log.Warn().Err(err).Str("token", token.Hex()).Msg("allowance read failed")
		return new(big.Int)
	}
	return out
}

// BalanceOf reads balanceOf(account) on token; zero on any failure.
func (o *Oracle) BalanceOf(ctx context.Context, token, account common.Address) *big.Int {
	out, err := o.callBig(ctx, token, "balanceOf", account)
	if err != nil {
		o.log.Warn().Err(err).Str("token", token.Hex()).Msg("balance read failed")
		return new(big.Int)
	}
	return out
}

// TokenInfo reads symbol, name, and decimals from an arbitrary contract address.
func (o *Oracle) TokenInfo(ctx context.Context, token common.Address) (Info, error) {
	var info Info

	out, err := o.call(ctx, token, "symbol")
	if err != nil {
		return info, fmt.Errorf("read symbol: %w", err)
	}
	info.Symbol = out[0].(string)

	out, err = o.call(ctx, token, "name")
	if err != nil {
		return info, fmt.Errorf("read name: %w", err)
	}
	info.Name = out[0].(string)

	out, err = o.call(ctx, token, "decimals")
	if err != nil {
		return info, fmt.Errorf("read decimals: %w", err)
	}
	info.Decimals = out[0].(uint8)

	return info, nil
}

// Approve grants spender transfer rights over amount of token.
func (o *Oracle) Approve(ctx context.Context, sender Sender, token, spender common.Address, amount *big.Int) (wallet.TxHandle, error) {
	data, err := parsedABI.Pack("approve", spender, amount)
	if err != nil {
		return wallet.TxHandle{}, fmt.Errorf("pack approve: %w", err)
	}
	return sender.SignAndSend(ctx, wallet.TxRequest{To: token, Value: new(big.Int), Data: data})
}

// Revoke zeroes out spender's allowance on token.
func (o *Oracle) Revoke(ctx context.Context, sender Sender, token, spender common.Address) (wallet.TxHandle, error) {
	return o.Approve(ctx, sender, token, spender, new(big.Int))
}

func (o *Oracle) call(ctx context.Context, token common.Address, method string, args ...any) ([]any, error) {
	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := o.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := parsedABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}

func (o *Oracle) callBig(ctx context.Context, token common.Address, method string, args ...any) (*big.Int, error) {
	out, err := o.call(ctx, token, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned unexpected type %T", method, out[0])
	}
	return v, nil
}
