// Package quote computes estimated swap output for a token pair and amount,
// debouncing bursts of input and guaranteeing that only the newest request's
// result is ever delivered.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/chain"
	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
	"github.com/maduonyekaemeka33/DexSignal/internal/router"
)

// ErrUnavailable marks a pair with no quotable route (empty or draining pool).
// Distinct from "not yet computed": callers surface it as its own state.
var ErrUnavailable = errors.New("no liquidity available")

// Request identifies one quoting input. Any change to amount, tokens, or chain
// supersedes the previous request.
type Request struct {
	TokenIn  chain.Token
	TokenOut chain.Token
	AmountIn *big.Int
	ChainID  uint64
}

// Quote is an ephemeral estimate; it is invalidated by any newer request.
type Quote struct {
	Path      []common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
	ValidAt   time.Time
}

// Source produces quotes. Implementations: the on-chain router read and the
// remote aggregator client.
type Source interface {
	Name() string
	Quote(ctx context.Context, req Request) (*Quote, error)
}

// OnChainSource quotes through the chain's router via getAmountsOut.
type OnChainSource struct {
	caller router.Caller
}

func NewOnChainSource(caller router.Caller) *OnChainSource {
	return &OnChainSource{caller: caller}
}

func (s *OnChainSource) Name() string { return "onchain" }

func (s *OnChainSource) Quote(ctx context.Context, req Request) (*Quote, error) {
	wrapped := chain.WrappedNativeFor(req.ChainID)
	path, err := router.BuildPath(req.TokenIn, req.TokenOut, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	r := router.New(chain.RouterFor(req.ChainID), s.caller)
	out, err := r.AmountsOut(ctx, req.AmountIn, path)
	if err != nil {
		// getAmountsOut reverting is the router's way of saying "no pool".
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return &Quote{
		Path:      path,
		AmountIn:  new(big.Int).Set(req.AmountIn),
		AmountOut: out,
		ValidAt:   time.Now(),
	}, nil
}

const defaultDebounce = 400 * time.Millisecond

// Engine debounces quote requests. A new request cancels the pending one, and
// a superseded in-flight fetch has its result discarded on arrival.
type Engine struct {
	source   Source
	debounce time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// Option configures Engine construction parameters.
type Option func(*Engine)

// WithDebounce overrides the quiet period before a quote is fetched.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

func NewEngine(source Source, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{source: source, debounce: defaultDebounce, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request schedules a quote after the debounce window. deliver runs at most
// once, and never for a request that has been superseded — last input wins.
func (e *Engine) Request(ctx context.Context, req Request, deliver func(*Quote, error)) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		e.fetch(ctx, gen, req, deliver)
	})
	e.mu.Unlock()
}

// Cancel drops any pending request without issuing a new one.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
}

// QuoteNow bypasses the debounce for callers that already know input is final
// (the orchestrator re-quoting right before a swap).
func (e *Engine) QuoteNow(ctx context.Context, req Request) (*Quote, error) {
	q, err := e.source.Quote(ctx, req)
	e.count(err)
	return q, err
}

func (e *Engine) fetch(ctx context.Context, gen uint64, req Request, deliver func(*Quote, error)) {
	if e.stale(gen) || ctx.Err() != nil {
		return
	}
	q, err := e.source.Quote(ctx, req)
	e.count(err)
	// Re-check after the fetch: a newer request may have arrived mid-flight.
	if e.stale(gen) || ctx.Err() != nil {
		e.log.Debug().Str("source", e.source.Name()).Msg("stale quote discarded")
		return
	}
	deliver(q, err)
}

func (e *Engine) stale(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen != e.gen
}

func (e *Engine) count(err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "error"
	}
	metrics.QuotesTotal.WithLabelValues(e.source.Name(), outcome).Inc()
}
