package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quotes_total", Help: "Quote requests issued, by source and outcome"},
		[]string{"source", "outcome"},
	)
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "swaps_total", Help: "Swap state transitions, by state entered"},
		[]string{"state"},
	)
	ApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "approvals_total", Help: "Approval transactions submitted, by mode"},
		[]string{"mode"},
	)
	MarketPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "market_polls_total", Help: "Market data polls, by view and outcome"},
		[]string{"view", "outcome"},
	)
	ProxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "proxy_requests_total", Help: "Proxy API requests, by route and status class"},
		[]string{"route", "status"},
	)
	PriceTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "price_ticks_total", Help: "Streamed price ticks ingested"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(
		QuotesTotal, SwapsTotal, ApprovalsTotal,
		MarketPollsTotal, ProxyRequestsTotal, PriceTicksTotal,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
