package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
)

// Coin is one row of the aggregate coin-market table.
type Coin struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	PriceUSD  float64 `json:"current_price"`
	MarketCap float64 `json:"market_cap"`
	Rank      int     `json:"market_cap_rank"`
	Change24h float64 `json:"price_change_percentage_24h"`
	Volume24h float64 `json:"total_volume"`
}

// CoinsView polls the market-cap API for a fixed id list and keeps the latest
// snapshot. Lifecycle matches PairsView.
type CoinsView struct {
	baseURL  string
	ids      []string
	vs       string
	interval time.Duration
	client   *http.Client
	log      zerolog.Logger

	mu    sync.RWMutex
	coins []Coin
}

// CoinsOption configures a CoinsView.
type CoinsOption func(*CoinsView)

// WithCoinsInterval overrides the polling cadence.
func WithCoinsInterval(d time.Duration) CoinsOption {
	return func(v *CoinsView) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithCoinsClient injects an HTTP client, mainly for tests.
func WithCoinsClient(c *http.Client) CoinsOption {
	return func(v *CoinsView) { v.client = c }
}

// NewCoinsView builds a view over the given coin ids, quoted in vsCurrency.
func NewCoinsView(baseURL string, ids []string, vsCurrency string, log zerolog.Logger, opts ...CoinsOption) *CoinsView {
	v := &CoinsView{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		ids:      ids,
		vs:       vsCurrency,
		interval: defaultPollInterval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "market.coins").Logger(),
	}
	if v.vs == "" {
		v.vs = "usd"
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Snapshot returns the latest coin rows. The slice is a copy.
func (v *CoinsView) Snapshot() []Coin {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Coin, len(v.coins))
	copy(out, v.coins)
	return out
}

// Run polls until the context is canceled.
func (v *CoinsView) Run(ctx context.Context) error {
	if err := v.poll(ctx); err != nil && ctx.Err() == nil {
		v.log.Warn().Err(err).Msg("initial coins poll failed")
	}

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := v.poll(ctx); err != nil && ctx.Err() == nil {
				v.log.Warn().Err(err).Msg("coins poll failed")
			}
		}
	}
}

func (v *CoinsView) poll(ctx context.Context) error {
	coins, err := v.fetch(ctx)
	if err != nil {
		metrics.MarketPollsTotal.WithLabelValues("coins", "error").Inc()
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	v.mu.Lock()
	v.coins = coins
	v.mu.Unlock()
	metrics.MarketPollsTotal.WithLabelValues("coins", "ok").Inc()
	return nil
}

func (v *CoinsView) fetch(ctx context.Context) ([]Coin, error) {
	q := url.Values{}
	q.Set("vs_currency", v.vs)
	q.Set("ids", strings.Join(v.ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", fmt.Sprint(len(v.ids)))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/coins/markets?"+q.Encode(), nil)
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

	var coins []Coin
	if err := json.NewDecoder(resp.Body).Decode(&coins); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return coins, nil
}
