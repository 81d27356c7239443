// Package router speaks the standard two-token AMM router interface:
// getAmountsOut reads plus the three swap entry points and their
// fee-on-transfer variants.
package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
)

const routerABI = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":true,"type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETH","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokensSupportingFeeOnTransferTokens","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokensSupportingFeeOnTransferTokens","outputs":[],"payable":true,"type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETHSupportingFeeOnTransferTokens","outputs":[],"type":"function"}
]`

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		panic(fmt.Sprintf("router: bad ABI: %v", err))
	}
	return parsed
}()

// ErrNoPath means the two tokens cannot form a route (same asset on both sides).
var ErrNoPath = errors.New("no route between tokens")

// Variant is the closed set of swap shapes, resolved once per attempt so the
// entry-point choice is a table lookup instead of scattered nativeness checks.
type Variant int

const (
	TokenToToken Variant = iota
	NativeIn
	NativeOut
)

func (v Variant) String() string {
	switch v {
	case NativeIn:
		return "native-in"
	case NativeOut:
		return "native-out"
	default:
		return "token-to-token"
	}
}

// ResolveVariant classifies a token pair. Native-in wins if both sides claim
// native, which the path builder rejects anyway.
func ResolveVariant(tokenIn, tokenOut chain.Token) Variant {
	switch {
	case tokenIn.Native:
		return NativeIn
	case tokenOut.Native:
		return NativeOut
	default:
		return TokenToToken
	}
}

// methodTable statically maps variant × fee-on-transfer mode to the router
// entry point.
var methodTable = map[Variant][2]string{
	NativeIn:     {"swapExactETHForTokens", "swapExactETHForTokensSupportingFeeOnTransferTokens"},
	NativeOut:    {"swapExactTokensForETH", "swapExactTokensForETHSupportingFeeOnTransferTokens"},
	TokenToToken: {"swapExactTokensForTokens", "swapExactTokensForTokensSupportingFeeOnTransferTokens"},
}

// Method returns the router function for this variant.
func (v Variant) Method(feeOnTransfer bool) string {
	pair := methodTable[v]
	if feeOnTransfer {
		return pair[1]
	}
	return pair[0]
}

// BuildPath resolves native placeholders to the wrapped-native address and
// routes through it when neither side is the wrapped asset itself.
func BuildPath(tokenIn, tokenOut chain.Token, wrappedNative common.Address) ([]common.Address, error) {
	addrIn := tokenIn.Address
	if tokenIn.Native {
		addrIn = wrappedNative
	}
	addrOut := tokenOut.Address
	if tokenOut.Native {
		addrOut = wrappedNative
	}
	if addrIn == addrOut {
		return nil, ErrNoPath
	}
	if addrIn == wrappedNative || addrOut == wrappedNative {
		return []common.Address{addrIn, addrOut}, nil
	}
	return []common.Address{addrIn, wrappedNative, addrOut}, nil
}

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Router binds the contract address to a caller.
type Router struct {
	Address common.Address
	caller  Caller
}

func New(address common.Address, caller Caller) *Router {
	return &Router{Address: address, caller: caller}
}

// AmountsOut quotes amountIn along path and returns the final hop's output.
func (r *Router) AmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	data, err := parsedABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}
	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.Address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call getAmountsOut: %w", err)
	}
	out, err := parsedABI.Unpack("getAmountsOut", raw)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, fmt.Errorf("getAmountsOut returned no amounts")
	}
	return amounts[len(amounts)-1], nil
}

// SwapCall is a fully shaped router invocation: calldata plus the native value
// to attach (non-zero only for native-in swaps).
type SwapCall struct {
	Method string
	Data   []byte
	Value  *big.Int
}

// BuildSwap packs the selected entry point. Native-in swaps carry amountIn as
// the attached value instead of a calldata argument.
func BuildSwap(variant Variant, feeOnTransfer bool, amountIn, minAmountOut *big.Int, path []common.Address, to common.Address, deadline *big.Int) (SwapCall, error) {
	method := variant.Method(feeOnTransfer)

	var (
		data []byte
		err  error
	)
	if variant == NativeIn {
		data, err = parsedABI.Pack(method, minAmountOut, path, to, deadline)
	} else {
		data, err = parsedABI.Pack(method, amountIn, minAmountOut, path, to, deadline)
	}
	if err != nil {
		return SwapCall{}, fmt.Errorf("pack %s: %w", method, err)
	}

	value := new(big.Int)
	if variant == NativeIn {
		value = new(big.Int).Set(amountIn)
	}
	return SwapCall{Method: method, Data: data, Value: value}, nil
}

// MethodName resolves a calldata selector back to its router function, for
// logging and tests.
func MethodName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	method, err := parsedABI.MethodById(data[:4])
	if err != nil {
		return ""
	}
	return method.Name
}
