package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/maduonyekaemeka33/DexSignal/internal/config"
	"github.com/maduonyekaemeka33/DexSignal/internal/market"
	"github.com/maduonyekaemeka33/DexSignal/internal/metrics"
	"github.com/maduonyekaemeka33/DexSignal/internal/proxy"
	"github.com/maduonyekaemeka33/DexSignal/internal/util"
)

func main() {
	cfgPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pairs := market.NewPairsView(
		cfg.Market.Pairs.BaseURL,
		cfg.Market.Pairs.Chain,
		market.SortBy(cfg.Market.Pairs.SortBy),
		log,
		market.WithPairsInterval(time.Duration(cfg.Market.Pairs.PollIntervalMs)*time.Millisecond),
		market.WithPairsTop(cfg.Market.Pairs.Top),
	)
	go func() {
		if err := pairs.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("pairs view stopped")
			cancel()
		}
	}()

	coins := market.NewCoinsView(
		cfg.Market.Coins.BaseURL,
		cfg.Market.Coins.IDs,
		cfg.Market.Coins.VsCurrency,
		log,
		market.WithCoinsInterval(time.Duration(cfg.Market.Coins.PollIntervalMs)*time.Millisecond),
	)
	go func() {
		if err := coins.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("coins view stopped")
			cancel()
		}
	}()

	if cfg.Market.PriceStream.Enabled {
		stream := market.NewPriceStream(cfg.Market.PriceStream.Symbols, log)
		go func() {
			if err := stream.Run(ctx, nil); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("price stream stopped")
			}
		}()
	}

	srv := proxy.New(proxy.Config{
		ListenAddr:        cfg.Proxy.ListenAddr,
		AllowedOrigins:    cfg.Proxy.AllowedOrigins,
		RateLimit:         cfg.Proxy.RateLimit,
		RateWindow:        time.Duration(cfg.Proxy.RateWindowSecs) * time.Second,
		CacheTTL:          time.Duration(cfg.Proxy.CacheTTLSecs) * time.Second,
		AggregatorBaseURL: cfg.Aggregator.BaseURL,
		PairsBaseURL:      cfg.Market.Pairs.BaseURL,
		MarketsBaseURL:    cfg.Market.Coins.BaseURL,
		PlatformFeeBps:    cfg.Aggregator.PlatformFeeBps,
		FeeAccount:        os.Getenv(cfg.Aggregator.FeeAccountEnvName),
	}, log)

	log.Info().Str("env", cfg.App.Env).Msg("dexd started")
	if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("proxy server failed")
	}
	log.Info().Msg("shutting down")
}
