// Package market hosts the polled read-only views behind the dashboard:
// on-chain pair listings, aggregate coin markets, and a live USD price stream.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
)

// SortBy selects the pair ranking column.
type SortBy string

const (
	SortVolume    SortBy = "volume"
	SortLiquidity SortBy = "liquidity"
	SortAge       SortBy = "age"
)

// Pair is one listed trading pair, normalized from the upstream payload.
type Pair struct {
	ChainID      string
	Address      string
	URL          string
	BaseSymbol   string
	BaseName     string
	BaseAddress  string
	QuoteSymbol  string
	PriceUSD     float64
	Change24h    float64
	Volume24h    float64
	LiquidityUSD float64
	FDV          float64
	CreatedAt    time.Time
}

type pairsResponse struct {
	Pairs []wirePair `json:"pairs"`
}

type wirePair struct {
	ChainID     string    `json:"chainId"`
	PairAddress string    `json:"pairAddress"`
	URL         string    `json:"url"`
	BaseToken   wireToken `json:"baseToken"`
	QuoteToken  wireToken `json:"quoteToken"`
	PriceUsd    string    `json:"priceUsd"`
	Volume      struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

type wireToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

func (w *wirePair) normalize() Pair {
	price, _ := strconv.ParseFloat(w.PriceUsd, 64)
	return Pair{
		ChainID:      w.ChainID,
		Address:      w.PairAddress,
		URL:          w.URL,
		BaseSymbol:   w.BaseToken.Symbol,
		BaseName:     w.BaseToken.Name,
		BaseAddress:  w.BaseToken.Address,
		QuoteSymbol:  w.QuoteToken.Symbol,
		PriceUSD:     price,
		Change24h:    w.PriceChange.H24,
		Volume24h:    w.Volume.H24,
		LiquidityUSD: w.Liquidity.USD,
		FDV:          w.FDV,
		CreatedAt:    time.UnixMilli(w.PairCreatedAt),
	}
}

const (
	defaultPollInterval = 30 * time.Second
	defaultTop          = 25
)

// PairsView polls the pair-data API and keeps the latest ranked snapshot.
type PairsView struct {
	baseURL  string
	chain    string
	sortBy   SortBy
	top      int
	interval time.Duration
	client   *http.Client
	log      zerolog.Logger

	mu    sync.RWMutex
	pairs []Pair
}

// PairsOption configures a PairsView.
type PairsOption func(*PairsView)

// WithPairsInterval overrides the polling cadence.
func WithPairsInterval(d time.Duration) PairsOption {
	return func(v *PairsView) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithPairsTop caps the snapshot length.
func WithPairsTop(n int) PairsOption {
	return func(v *PairsView) {
		if n > 0 {
			v.top = n
		}
	}
}

// WithPairsClient injects an HTTP client, mainly for tests.
func WithPairsClient(c *http.Client) PairsOption {
	return func(v *PairsView) { v.client = c }
}

// NewPairsView builds a view over one chain's pair listings.
func NewPairsView(baseURL, chain string, sortBy SortBy, log zerolog.Logger, opts ...PairsOption) *PairsView {
	v := &PairsView{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		chain:    strings.ToLower(chain),
		sortBy:   sortBy,
		top:      defaultTop,
		interval: defaultPollInterval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "market.pairs").Logger(),
	}
	if v.sortBy == "" {
		v.sortBy = SortVolume
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Snapshot returns the latest ranked pairs. The slice is a copy.
func (v *PairsView) Snapshot() []Pair {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Pair, len(v.pairs))
	copy(out, v.pairs)
	return out
}

// Run polls until the context is canceled. An in-flight fetch racing the
// cancellation never updates the view.
func (v *PairsView) Run(ctx context.Context) error {
	if err := v.poll(ctx); err != nil && ctx.Err() == nil {
		v.log.Warn().Err(err).Msg("initial pairs poll failed")
	}

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := v.poll(ctx); err != nil && ctx.Err() == nil {
				v.log.Warn().Err(err).Msg("pairs poll failed")
			}
		}
	}
}

func (v *PairsView) poll(ctx context.Context) error {
	pairs, err := v.fetch(ctx)
	if err != nil {
		metrics.MarketPollsTotal.WithLabelValues("pairs", "error").Inc()
		return err
	}
	v.apply(ctx, pairs)
	metrics.MarketPollsTotal.WithLabelValues("pairs", "ok").Inc()
	return nil
}

// apply replaces the whole snapshot. A fetch that finished after teardown is
// discarded rather than resurrecting a stopped view.
func (v *PairsView) apply(ctx context.Context, pairs []Pair) {
	if ctx.Err() != nil {
		return
	}
	rankPairs(pairs, v.sortBy)
	if len(pairs) > v.top {
		pairs = pairs[:v.top]
	}
	v.mu.Lock()
	v.pairs = pairs
	v.mu.Unlock()
}

func (v *PairsView) fetch(ctx context.Context) ([]Pair, error) {
	url := fmt.Sprintf("%s/latest/dex/pairs/%s", v.baseURL, v.chain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	pairs := make([]Pair, 0, len(payload.Pairs))
	for i := range payload.Pairs {
		pairs = append(pairs, payload.Pairs[i].normalize())
	}
	return pairs, nil
}

func rankPairs(pairs []Pair, by SortBy) {
	sort.SliceStable(pairs, func(i, j int) bool {
		switch by {
		case SortLiquidity:
			return pairs[i].LiquidityUSD > pairs[j].LiquidityUSD
		case SortAge:
			return pairs[i].CreatedAt.After(pairs[j].CreatedAt)
		default:
			return pairs[i].Volume24h > pairs[j].Volume24h
		}
	})
}
