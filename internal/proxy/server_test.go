package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, upstream *httptest.Server, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		ListenAddr:        "127.0.0.1:0",
		AllowedOrigins:    []string{"http://localhost:3000"},
		CacheTTL:          time.Minute,
		AggregatorBaseURL: upstream.URL,
		PairsBaseURL:      upstream.URL,
		MarketsBaseURL:    upstream.URL,
		PlatformFeeBps:    20,
		FeeAccount:        "FeeAccount111",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, zerolog.Nop(), WithHTTPClient(upstream.Client()))
}

func TestQuoteOverridesPlatformFee(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/quote" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("platformFeeBps"); got != "20" {
			t.Errorf("platformFeeBps = %q, want 20", got)
		}
		if got := r.URL.Query().Get("inputMint"); got != "AAA" {
			t.Errorf("inputMint = %q", got)
		}
		w.Write([]byte(`{"outAmount":"42"}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	// The client-supplied fee must not survive.
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quote?inputMint=AAA&platformFeeBps=9999", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"42"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestFeeClampedAtCap(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("platformFeeBps"); got != "100" {
			t.Errorf("platformFeeBps = %q, want 100", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, func(c *Config) { c.PlatformFeeBps = 5000 })
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quote", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSwapInjectsFeeAccount(t *testing.T) {
	var payload map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/swap" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"swapTransaction":"AAA="}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/swap", strings.NewReader(`{"userPublicKey":"abc","quoteResponse":{}}`))
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if payload["feeAccount"] != "FeeAccount111" {
		t.Fatalf("feeAccount = %v", payload["feeAccount"])
	}
	if payload["userPublicKey"] != "abc" {
		t.Fatalf("userPublicKey = %v", payload["userPublicKey"])
	}
}

func TestSwapRejectsBadBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be reached")
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/swap", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpstreamErrorsCollapseToGeneric500(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"internal routing table exploded at node 7"}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quote", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "routing table") {
		t.Fatalf("upstream detail leaked to the client: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "upstream request failed") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestPairsCachedForTTL(t *testing.T) {
	hits := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/latest/dex/pairs/ethereum" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"pairs":[]}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pairs/ethereum", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if hits != 1 {
		t.Fatalf("upstream hit %d times, want 1", hits)
	}
}

func TestMarketsPassesQueryThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "dogecoin" {
			t.Errorf("ids = %q", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets?vs_currency=usd&ids=dogecoin", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSHeadersPresent(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quote", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}
