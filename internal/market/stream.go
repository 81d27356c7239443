package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
)

const defaultStreamURL = "wss://stream.binance.com:9443/stream"

// PriceTick is one live USD price observation.
type PriceTick struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

type streamEnvelope struct {
	Stream string      `json:"stream"`
	Data   streamTrade `json:"data"`
}

type streamTrade struct {
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// PriceStream keeps live USD reference prices for the views via a public
// trade websocket. Disconnects reconnect with exponential backoff.
type PriceStream struct {
	url     string
	symbols []string
	log     zerolog.Logger

	mu     sync.RWMutex
	prices map[string]float64
}

// StreamOption configures a PriceStream.
type StreamOption func(*PriceStream)

// WithStreamURL overrides the websocket endpoint, mainly for tests.
func WithStreamURL(url string) StreamOption {
	return func(s *PriceStream) {
		if url != "" {
			s.url = url
		}
	}
}

// NewPriceStream subscribes to trade streams for the given symbols
// (exchange notation, e.g. "ETHUSDT").
func NewPriceStream(symbols []string, log zerolog.Logger, opts ...StreamOption) *PriceStream {
	s := &PriceStream{
		url:     defaultStreamURL,
		symbols: symbols,
		log:     log.With().Str("component", "market.stream").Logger(),
		prices:  make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Price returns the latest observed price for symbol, or false if none seen.
func (s *PriceStream) Price(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	px, ok := s.prices[strings.ToUpper(symbol)]
	return px, ok
}

// Run consumes the stream until the context is canceled, pushing each tick to
// out when it is non-nil.
func (s *PriceStream) Run(ctx context.Context, out chan<- PriceTick) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("price stream requires at least one symbol")
	}

	streams := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		streams[i] = strings.ToLower(sym) + "@trade"
	}
	url := fmt.Sprintf("%s?streams=%s", s.url, strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("price stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *PriceStream) consume(ctx context.Context, url string, out chan<- PriceTick) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Strs("symbols", s.symbols).Msg("connected price stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.Warn().Err(err).Msg("price stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		symbol := parseStreamSymbol(env.Stream)
		px, err := strconv.ParseFloat(env.Data.Price, 64)
		if err != nil {
			s.log.Warn().Err(err).Msg("invalid price from stream")
			continue
		}

		s.mu.Lock()
		s.prices[symbol] = px
		s.mu.Unlock()
		metrics.PriceTicksTotal.WithLabelValues(symbol).Inc()

		if out != nil {
			tick := PriceTick{Symbol: symbol, Price: px, Ts: time.UnixMilli(env.Data.TradeTime)}
			select {
			case out <- tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func parseStreamSymbol(stream string) string {
	parts := strings.Split(stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToUpper(stream)
	}
	return strings.ToUpper(parts[0])
}
