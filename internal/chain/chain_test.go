package chain

import (
	"math/big"
	"testing"
)

func TestGetFallsBackToDefaultChain(t *testing.T) {
	unknown := Get(999999)
	def := Get(DefaultChainID)
	if unknown.ID != def.ID {
		t.Fatalf("expected fallback to chain %d, got %d", def.ID, unknown.ID)
	}
	if RouterFor(999999) != def.Router {
		t.Fatalf("router lookup did not fall back")
	}
	if WrappedNativeFor(999999) != def.WrappedNative {
		t.Fatalf("wrapped native lookup did not fall back")
	}
	if len(TokensFor(999999)) != len(def.Tokens) {
		t.Fatalf("token list lookup did not fall back")
	}
}

func TestNativeTokenIsSentinel(t *testing.T) {
	for _, id := range []uint64{1, 56, 137, 42161, 8453} {
		native := Get(id).Native()
		if !native.Native {
			t.Fatalf("chain %d missing native token", id)
		}
		if native.Address != NativeSentinel {
			t.Fatalf("chain %d native address %s is not the sentinel", id, native.Address)
		}
	}
}

func TestFindToken(t *testing.T) {
	usdc, ok := FindToken(1, "usdc")
	if !ok || usdc.Decimals != 6 {
		t.Fatalf("expected USDC with 6 decimals, got %+v ok=%v", usdc, ok)
	}
	byAddr, ok := FindToken(1, usdc.Address.Hex())
	if !ok || byAddr.Symbol != "USDC" {
		t.Fatalf("address lookup failed: %+v ok=%v", byAddr, ok)
	}
	if _, ok := FindToken(1, "NOPE"); ok {
		t.Fatal("expected miss for unknown symbol")
	}
}

func TestParseUnits(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1.0", 18, "1000000000000000000"},
		{"0.5", 6, "500000"},
		{"1.2345678", 6, "1234567"}, // excess precision truncated
		{"0", 18, "0"},
	}
	for _, tc := range cases {
		got, err := ParseUnits(tc.in, tc.decimals)
		if err != nil {
			t.Fatalf("ParseUnits(%q) returned error: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseUnits(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if _, err := ParseUnits("-1", 18); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := ParseUnits("abc", 18); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestFormatUnits(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatUnits(wei, 18); got != "1.5" {
		t.Fatalf("FormatUnits = %s, want 1.5", got)
	}
	if got := FormatUnits(nil, 18); got != "0" {
		t.Fatalf("FormatUnits(nil) = %s, want 0", got)
	}
}
