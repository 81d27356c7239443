// Package solana relays swaps through the Jupiter v6 aggregator: quote over
// HTTP, receive a ready-to-sign transaction, sign locally, submit via RPC.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
)

// maxPlatformFeeBps caps the fee injected into quotes at 1%.
const maxPlatformFeeBps = 100

// Client talks to the aggregator REST API and the chain RPC.
type Client struct {
	base           string
	rpc            *rpc.Client
	owner          solana.PrivateKey
	commit         rpc.CommitmentType
	http           *http.Client
	platformFeeBps int
	feeAccount     string
	log            zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPlatformFee injects a platform fee into every quote, collected into
// account. Values above the 100 bps cap are clamped.
func WithPlatformFee(bps int, account string) Option {
	return func(c *Client) {
		if bps < 0 {
			bps = 0
		}
		if bps > maxPlatformFeeBps {
			bps = maxPlatformFeeBps
		}
		c.platformFeeBps = bps
		c.feeAccount = account
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds an aggregator client. commit is one of processed,
// confirmed, finalized; anything else falls back to confirmed.
func NewClient(rpcURL, base string, owner solana.PrivateKey, commit string, log zerolog.Logger, opts ...Option) *Client {
	level := rpc.CommitmentConfirmed
	switch commit {
	case "processed":
		level = rpc.CommitmentProcessed
	case "finalized":
		level = rpc.CommitmentFinalized
	}
	c := &Client{
		base:   base,
		rpc:    rpc.New(rpcURL),
		owner:  owner,
		commit: level,
		http:   &http.Client{Timeout: 8 * time.Second},
		log:    log.With().Str("component", "aggregator").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commitment returns the configured confirmation level.
func (c *Client) Commitment() rpc.CommitmentType { return c.commit }

// Quote is the aggregator's route response, passed back verbatim when
// requesting the swap transaction.
type Quote struct {
	InputMint      string          `json:"inputMint"`
	OutputMint     string          `json:"outputMint"`
	InAmount       string          `json:"inAmount"`
	OutAmount      string          `json:"outAmount"`
	OtherAmount    string          `json:"otherAmountThreshold"`
	SlippageBps    int             `json:"slippageBps"`
	PlatformFee    json.RawMessage `json:"platformFee,omitempty"`
	RoutePlan      json.RawMessage `json:"routePlan,omitempty"`
	PriceImpactPct string          `json:"priceImpactPct"`
}

// apiError is the {"error": "..."} body the aggregator returns on failures.
type apiError struct {
	Error string `json:"error"`
}

func decodeError(resp *http.Response, what string) error {
	var e apiError
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("%s: %s (status %d)", what, e.Error, resp.StatusCode)
	}
	return fmt.Errorf("%s: status %d", what, resp.StatusCode)
}

// GetQuote fetches a route for swapping amount (smallest units) of inputMint
// into outputMint. The configured platform fee is injected into the request.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", fmt.Sprintf("%d", amount))
	q.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	q.Set("onlyDirectRoutes", "false")
	if c.platformFeeBps > 0 {
		q.Set("platformFeeBps", fmt.Sprintf("%d", c.platformFeeBps))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v6/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues("aggregator", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.QuotesTotal.WithLabelValues("aggregator", "error").Inc()
		return nil, decodeError(resp, "aggregator quote")
	}

	var out Quote
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.QuotesTotal.WithLabelValues("aggregator", "error").Inc()
		return nil, err
	}
	metrics.QuotesTotal.WithLabelValues("aggregator", "ok").Inc()
	return &out, nil
}

// BuildAndSendSwap asks the aggregator for a ready-to-sign transaction for
// quote, signs it with the local key, and submits it via RPC.
func (c *Client) BuildAndSendSwap(ctx context.Context, quote *Quote) (sig solana.Signature, err error) {
	payload := map[string]any{
		"userPublicKey":             c.owner.PublicKey().String(),
		"wrapAndUnwrapSol":          true,
		"asLegacyTransaction":       false,
		"useTokenLedger":            false,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
		"quoteResponse":             quote,
	}
	if c.feeAccount != "" && c.platformFeeBps > 0 {
		payload["feeAccount"] = c.feeAccount
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return sig, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return sig, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return sig, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sig, decodeError(resp, "aggregator swap")
	}

	var sr struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return sig, err
	}
	raw, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return sig, fmt.Errorf("decode tx: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return sig, fmt.Errorf("unmarshal tx: %w", err)
	}

	if _, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.owner.PublicKey()) {
			return &c.owner
		}
		return nil
	}); err != nil {
		return sig, fmt.Errorf("sign: %w", err)
	}

	sig, err = c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commit,
	})
	if err == nil {
		c.log.Info().Str("signature", sig.String()).Msg("swap submitted via aggregator")
	}
	return sig, err
}
