package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
)

// writeJSON relays a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// upstreamError answers with a fixed generic message. The caller is expected
// to have logged the real cause; clients never see upstream internals.
func (s *Server) upstreamError(w http.ResponseWriter, route string) {
	metrics.ProxyRequestsTotal.WithLabelValues(route, "500").Inc()
	writeJSON(w, http.StatusInternalServerError, []byte(`{"error":"upstream request failed"}`))
}

func (s *Server) ok(w http.ResponseWriter, route string, body []byte) {
	metrics.ProxyRequestsTotal.WithLabelValues(route, "200").Inc()
	writeJSON(w, http.StatusOK, body)
}

// forward performs one upstream request and returns the body for 2xx answers.
func (s *Server) forward(r *http.Request, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), method, url, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// handleQuote forwards the quote request, overriding any client-supplied
// platform fee with the server-configured one.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Del("platformFeeBps")
	if s.cfg.PlatformFeeBps > 0 {
		q.Set("platformFeeBps", strconv.Itoa(s.cfg.PlatformFeeBps))
	}
	url := strings.TrimSuffix(s.cfg.AggregatorBaseURL, "/") + "/v6/quote?" + q.Encode()

	body, err := s.forward(r, http.MethodGet, url, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("route", "quote").Msg("upstream failed")
		s.upstreamError(w, "quote")
		return
	}
	s.ok(w, "quote", body)
}

// handleSwap forwards the swap build request, injecting the fee account so
// the browser never learns it.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues("swap", "400").Inc()
		writeJSON(w, http.StatusBadRequest, []byte(`{"error":"invalid request body"}`))
		return
	}
	if s.cfg.FeeAccount != "" && s.cfg.PlatformFeeBps > 0 {
		payload["feeAccount"] = s.cfg.FeeAccount
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		s.upstreamError(w, "swap")
		return
	}

	url := strings.TrimSuffix(s.cfg.AggregatorBaseURL, "/") + "/v6/swap"
	body, err := s.forward(r, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		s.log.Warn().Err(err).Str("route", "swap").Msg("upstream failed")
		s.upstreamError(w, "swap")
		return
	}
	s.ok(w, "swap", body)
}

// handlePairs serves pair listings for one chain, memoized for the cache TTL.
func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	chain := strings.ToLower(chi.URLParam(r, "chain"))
	key := "pairs:" + chain
	if cached, ok := s.cache.Get(key); ok {
		s.ok(w, "pairs", cached.([]byte))
		return
	}

	url := strings.TrimSuffix(s.cfg.PairsBaseURL, "/") + "/latest/dex/pairs/" + chain
	body, err := s.forward(r, http.MethodGet, url, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("route", "pairs").Str("chain", chain).Msg("upstream failed")
		s.upstreamError(w, "pairs")
		return
	}
	s.cache.SetDefault(key, body)
	s.ok(w, "pairs", body)
}

// handleMarkets serves the coin-market table, memoized for the cache TTL. The
// query string passes through so the client controls ids and ordering.
func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	key := "markets:" + r.URL.RawQuery
	if cached, ok := s.cache.Get(key); ok {
		s.ok(w, "markets", cached.([]byte))
		return
	}

	url := strings.TrimSuffix(s.cfg.MarketsBaseURL, "/") + "/coins/markets"
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}
	body, err := s.forward(r, http.MethodGet, url, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("route", "markets").Msg("upstream failed")
		s.upstreamError(w, "markets")
		return
	}
	s.cache.SetDefault(key, body)
	s.ok(w, "markets", body)
}
