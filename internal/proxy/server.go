// Package proxy fronts the aggregator and market-data APIs for the browser
// client: it injects the platform fee server-side, shields upstreams with a
// short-lived cache, and keeps the wire error contract generic.
package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// maxPlatformFeeBps caps the injected fee at 1%.
const maxPlatformFeeBps = 100

// Config shapes one proxy server.
type Config struct {
	ListenAddr        string
	AllowedOrigins    []string
	RateLimit         int
	RateWindow        time.Duration
	CacheTTL          time.Duration
	AggregatorBaseURL string
	PairsBaseURL      string
	MarketsBaseURL    string
	PlatformFeeBps    int
	FeeAccount        string
}

// Server is the HTTP proxy. Endpoint handlers live in handlers.go.
type Server struct {
	cfg    Config
	log    zerolog.Logger
	client *http.Client
	cache  *gocache.Cache
	srv    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHTTPClient overrides the upstream HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) { s.client = c }
}

// New builds the proxy server. The injected platform fee is clamped to the
// 100 bps cap.
func New(cfg Config, log zerolog.Logger, opts ...Option) *Server {
	if cfg.PlatformFeeBps < 0 {
		cfg.PlatformFeeBps = 0
	}
	if cfg.PlatformFeeBps > maxPlatformFeeBps {
		cfg.PlatformFeeBps = maxPlatformFeeBps
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		log:    log.With().Str("component", "proxy").Logger(),
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler assembles the middleware stack and routes.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(s.requestLogger)
	mux.Use(middleware.Recoverer)
	if s.cfg.RateLimit > 0 {
		mux.Use(httprate.LimitByIP(s.cfg.RateLimit, s.cfg.RateWindow))
	}

	mux.Get("/api/quote", s.handleQuote)
	mux.Post("/api/swap", s.handleSwap)
	mux.Get("/api/pairs/{chain}", s.handlePairs)
	mux.Get("/api/markets", s.handleMarkets)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	return c.Handler(mux)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// ListenAndServe runs until the context is canceled, then drains with a
// five-second grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("proxy listening")
		errCh <- s.srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
