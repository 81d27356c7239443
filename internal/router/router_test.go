package router

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
)

var (
	wrapped = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tokenA  = chain.Token{Symbol: "AAA", Address: common.HexToAddress("0x000000000000000000000000000000000000aaaa"), Decimals: 18}
	tokenB  = chain.Token{Symbol: "BBB", Address: common.HexToAddress("0x000000000000000000000000000000000000bbbb"), Decimals: 18}
	native  = chain.Token{Symbol: "ETH", Address: chain.NativeSentinel, Decimals: 18, Native: true}
	weth    = chain.Token{Symbol: "WETH", Address: wrapped, Decimals: 18}
)

func TestBuildPathThroughWrappedNative(t *testing.T) {
	path, err := BuildPath(tokenA, tokenB, wrapped)
	if err != nil {
		t.Fatalf("BuildPath returned error: %v", err)
	}
	if len(path) != 3 {
		t.Fatalf("expected 3-hop path, got %d hops", len(path))
	}
	if path[1] != wrapped {
		t.Fatalf("middle hop must be the wrapped native, got %s", path[1])
	}
	if path[0] != tokenA.Address || path[2] != tokenB.Address {
		t.Fatalf("unexpected endpoints %s -> %s", path[0], path[2])
	}
}

func TestBuildPathDirectWhenWrappedInvolved(t *testing.T) {
	cases := []struct {
		name     string
		in, out  chain.Token
		first    common.Address
		last     common.Address
	}{
		{"wrapped out", tokenA, weth, tokenA.Address, wrapped},
		{"wrapped in", weth, tokenB, wrapped, tokenB.Address},
		{"native in resolves to wrapped", native, tokenB, wrapped, tokenB.Address},
		{"native out resolves to wrapped", tokenA, native, tokenA.Address, wrapped},
	}
	for _, tc := range cases {
		path, err := BuildPath(tc.in, tc.out, wrapped)
		if err != nil {
			t.Fatalf("%s: BuildPath returned error: %v", tc.name, err)
		}
		if len(path) != 2 {
			t.Fatalf("%s: expected 2-hop path, got %d hops", tc.name, len(path))
		}
		if path[0] != tc.first || path[1] != tc.last {
			t.Fatalf("%s: unexpected path %v", tc.name, path)
		}
	}
}

func TestBuildPathSameAsset(t *testing.T) {
	if _, err := BuildPath(native, weth, wrapped); !errors.Is(err, ErrNoPath) {
		t.Fatalf("native vs wrapped must collapse to no path, got %v", err)
	}
	if _, err := BuildPath(tokenA, tokenA, wrapped); !errors.Is(err, ErrNoPath) {
		t.Fatalf("identical tokens must yield no path, got %v", err)
	}
}

func TestResolveVariant(t *testing.T) {
	if v := ResolveVariant(native, tokenB); v != NativeIn {
		t.Fatalf("expected NativeIn, got %s", v)
	}
	if v := ResolveVariant(tokenA, native); v != NativeOut {
		t.Fatalf("expected NativeOut, got %s", v)
	}
	if v := ResolveVariant(tokenA, tokenB); v != TokenToToken {
		t.Fatalf("expected TokenToToken, got %s", v)
	}
}

func TestVariantMethodTable(t *testing.T) {
	cases := []struct {
		variant Variant
		fee     bool
		want    string
	}{
		{NativeIn, false, "swapExactETHForTokens"},
		{NativeIn, true, "swapExactETHForTokensSupportingFeeOnTransferTokens"},
		{NativeOut, false, "swapExactTokensForETH"},
		{NativeOut, true, "swapExactTokensForETHSupportingFeeOnTransferTokens"},
		{TokenToToken, false, "swapExactTokensForTokens"},
		{TokenToToken, true, "swapExactTokensForTokensSupportingFeeOnTransferTokens"},
	}
	for _, tc := range cases {
		if got := tc.variant.Method(tc.fee); got != tc.want {
			t.Fatalf("Method(%s, fee=%v) = %s, want %s", tc.variant, tc.fee, got, tc.want)
		}
	}
}

func TestBuildSwapNativeInAttachesValue(t *testing.T) {
	amountIn := big.NewInt(1e18)
	path := []common.Address{wrapped, tokenB.Address}
	call, err := BuildSwap(NativeIn, false, amountIn, big.NewInt(1), path, common.Address{9}, big.NewInt(999))
	if err != nil {
		t.Fatalf("BuildSwap returned error: %v", err)
	}
	if call.Value.Cmp(amountIn) != 0 {
		t.Fatalf("native-in swap must attach amountIn as value, got %s", call.Value)
	}
	if MethodName(call.Data) != "swapExactETHForTokens" {
		t.Fatalf("unexpected method %s", MethodName(call.Data))
	}
}

func TestBuildSwapTokenInNoValue(t *testing.T) {
	path := []common.Address{tokenA.Address, wrapped, tokenB.Address}
	call, err := BuildSwap(TokenToToken, true, big.NewInt(100), big.NewInt(90), path, common.Address{9}, big.NewInt(999))
	if err != nil {
		t.Fatalf("BuildSwap returned error: %v", err)
	}
	if call.Value.Sign() != 0 {
		t.Fatalf("token-in swap must not attach value, got %s", call.Value)
	}
	if MethodName(call.Data) != "swapExactTokensForTokensSupportingFeeOnTransferTokens" {
		t.Fatalf("unexpected method %s", MethodName(call.Data))
	}
}

type fakeCaller struct {
	out []byte
	err error
}

func (f *fakeCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return f.out, f.err
}

func TestAmountsOutReturnsFinalHop(t *testing.T) {
	amounts := []*big.Int{big.NewInt(100), big.NewInt(55), big.NewInt(42)}
	packed, err := parsedABI.Methods["getAmountsOut"].Outputs.Pack(amounts)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}
	r := New(common.Address{7}, &fakeCaller{out: packed})

	got, err := r.AmountsOut(context.Background(), big.NewInt(100), []common.Address{tokenA.Address, wrapped, tokenB.Address})
	if err != nil {
		t.Fatalf("AmountsOut returned error: %v", err)
	}
	if got.Int64() != 42 {
		t.Fatalf("expected final hop 42, got %s", got)
	}
}

func TestAmountsOutPropagatesRevert(t *testing.T) {
	r := New(common.Address{7}, &fakeCaller{err: errors.New("execution reverted: INSUFFICIENT_LIQUIDITY")})
	if _, err := r.AmountsOut(context.Background(), big.NewInt(1), []common.Address{tokenA.Address, wrapped}); err == nil {
		t.Fatal("expected error from reverting call")
	}
}
