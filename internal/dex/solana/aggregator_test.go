package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

func TestNewClientCommitment(t *testing.T) {
	wallet := solana.NewWallet()
	cases := map[string]rpc.CommitmentType{
		"processed": rpc.CommitmentProcessed,
		"finalized": rpc.CommitmentFinalized,
		"confirmed": rpc.CommitmentConfirmed,
		"":          rpc.CommitmentConfirmed,
	}
	for in, want := range cases {
		c := NewClient("https://rpc", "https://agg", wallet.PrivateKey, in, zerolog.Nop())
		if c.Commitment() != want {
			t.Errorf("commit %q = %v, want %v", in, c.Commitment(), want)
		}
	}
}

func TestGetQuoteInjectsPlatformFee(t *testing.T) {
	wallet := solana.NewWallet()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/quote" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("inputMint") != "AAA" || q.Get("outputMint") != "BBB" {
			t.Fatalf("mints missing from query: %v", q)
		}
		if q.Get("platformFeeBps") != "20" {
			t.Fatalf("platformFeeBps = %q, want 20", q.Get("platformFeeBps"))
		}
		json.NewEncoder(w).Encode(Quote{InputMint: "AAA", OutputMint: "BBB", InAmount: "10", OutAmount: "20", SlippageBps: 50})
	}))
	defer server.Close()

	c := NewClient("https://rpc", server.URL, wallet.PrivateKey, "processed", zerolog.Nop(),
		WithPlatformFee(20, "FeeAccount111"), WithHTTPClient(server.Client()))

	quote, err := c.GetQuote(context.Background(), "AAA", "BBB", 10, 50)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.OutAmount != "20" {
		t.Fatalf("OutAmount = %s, want 20", quote.OutAmount)
	}
}

func TestGetQuoteOmitsZeroFee(t *testing.T) {
	wallet := solana.NewWallet()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("platformFeeBps") {
			t.Fatal("platformFeeBps should be absent when no fee is configured")
		}
		json.NewEncoder(w).Encode(Quote{OutAmount: "1"})
	}))
	defer server.Close()

	c := NewClient("https://rpc", server.URL, wallet.PrivateKey, "confirmed", zerolog.Nop(), WithHTTPClient(server.Client()))
	if _, err := c.GetQuote(context.Background(), "AAA", "BBB", 10, 50); err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
}

func TestPlatformFeeClamped(t *testing.T) {
	wallet := solana.NewWallet()
	c := NewClient("https://rpc", "https://agg", wallet.PrivateKey, "confirmed", zerolog.Nop(),
		WithPlatformFee(500, "FeeAccount111"))
	if c.platformFeeBps != maxPlatformFeeBps {
		t.Fatalf("platformFeeBps = %d, want %d", c.platformFeeBps, maxPlatformFeeBps)
	}
}

func TestGetQuoteSurfacesAPIError(t *testing.T) {
	wallet := solana.NewWallet()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiError{Error: "Could not find any route"})
	}))
	defer server.Close()

	c := NewClient("https://rpc", server.URL, wallet.PrivateKey, "confirmed", zerolog.Nop(), WithHTTPClient(server.Client()))
	_, err := c.GetQuote(context.Background(), "AAA", "BBB", 10, 50)
	if err == nil || !strings.Contains(err.Error(), "Could not find any route") {
		t.Fatalf("err = %v, want upstream message surfaced", err)
	}
}

func TestSwapPayloadCarriesFeeAccount(t *testing.T) {
	wallet := solana.NewWallet()
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/swap" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		// A bogus body stops the flow before signing; the request shape
		// is what this test asserts.
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiError{Error: "stop"})
	}))
	defer server.Close()

	c := NewClient("https://rpc", server.URL, wallet.PrivateKey, "confirmed", zerolog.Nop(),
		WithPlatformFee(20, "FeeAccount111"), WithHTTPClient(server.Client()))

	_, err := c.BuildAndSendSwap(context.Background(), &Quote{OutAmount: "1"})
	if err == nil {
		t.Fatal("expected error from stubbed swap endpoint")
	}
	if payload["feeAccount"] != "FeeAccount111" {
		t.Fatalf("feeAccount = %v", payload["feeAccount"])
	}
	if payload["dynamicComputeUnitLimit"] != true {
		t.Fatalf("dynamicComputeUnitLimit = %v", payload["dynamicComputeUnitLimit"])
	}
	if payload["prioritizationFeeLamports"] != "auto" {
		t.Fatalf("prioritizationFeeLamports = %v", payload["prioritizationFeeLamports"])
	}
	if payload["userPublicKey"] != wallet.PublicKey().String() {
		t.Fatalf("userPublicKey = %v", payload["userPublicKey"])
	}
}

func TestLoadPrivateKeyFromEnv(t *testing.T) {
	wallet := solana.NewWallet()
	t.Setenv("TEST_AGG_KEY", wallet.PrivateKey.String())

	key, err := LoadPrivateKeyFromEnv("TEST_AGG_KEY")
	if err != nil {
		t.Fatalf("LoadPrivateKeyFromEnv: %v", err)
	}
	if !key.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatal("loaded key does not match")
	}

	os.Unsetenv("TEST_AGG_KEY")
	if _, err := LoadPrivateKeyFromEnv("TEST_AGG_KEY"); err == nil {
		t.Fatal("expected error for unset env var")
	}
}
