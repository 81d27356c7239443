// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Wallet describes how the signing session is established. Kind "injected"
// loads a local private key from the environment; "relay" defers signing to
// the RPC node's managed accounts.
type Wallet struct {
	Kind       string            `yaml:"kind"`
	ChainID    uint64            `yaml:"chain_id"`
	RPCURLs    map[uint64]string `yaml:"rpc_urls"`
	KeyEnvName string            `yaml:"key_env_name"`
}

// RPCURL returns the endpoint configured for id, or the empty string.
func (w Wallet) RPCURL(id uint64) string { return w.RPCURLs[id] }

// Swap groups the orchestrator's user-tunable knobs.
type Swap struct {
	SlippagePercent float64 `yaml:"slippage_percent"`
	DeadlineMinutes int     `yaml:"deadline_minutes"`
	ApprovalMode    string  `yaml:"approval_mode"` // "unlimited" | "exact"
	FeeOnTransfer   bool    `yaml:"fee_on_transfer"`
	QuoteDebounceMs int     `yaml:"quote_debounce_ms"`
}

// Aggregator configures the remote quote/swap aggregator relay and its proxy.
type Aggregator struct {
	BaseURL           string `yaml:"base_url"`
	RPCURL            string `yaml:"rpc_url"`
	Commitment        string `yaml:"commitment"`
	PlatformFeeBps    int    `yaml:"platform_fee_bps"`
	FeeAccountEnvName string `yaml:"fee_account_env_name"`
}

// Pairs configures the pair-data polling view.
type Pairs struct {
	BaseURL        string `yaml:"base_url"`
	Chain          string `yaml:"chain"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	Top            int    `yaml:"top"`
	SortBy         string `yaml:"sort_by"` // "volume" | "liquidity" | "age"
}

// Coins configures the market-cap polling view.
type Coins struct {
	BaseURL        string   `yaml:"base_url"`
	VsCurrency     string   `yaml:"vs_currency"`
	IDs            []string `yaml:"ids"`
	PerPage        int      `yaml:"per_page"`
	PollIntervalMs int      `yaml:"poll_interval_ms"`
}

// PriceStream configures the websocket USD price feed for native assets.
type PriceStream struct {
	Enabled bool     `yaml:"enabled"`
	Symbols []string `yaml:"symbols"`
}

// Market collects the independent market-data views.
type Market struct {
	Pairs       Pairs       `yaml:"pairs"`
	Coins       Coins       `yaml:"coins"`
	PriceStream PriceStream `yaml:"price_stream"`
}

// Proxy configures the HTTP API surface served by dexd.
type Proxy struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit"`
	RateWindowSecs int      `yaml:"rate_window_secs"`
	CacheTTLSecs   int      `yaml:"cache_ttl_secs"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Wallet     Wallet     `yaml:"wallet"`
	Swap       Swap       `yaml:"swap"`
	Aggregator Aggregator `yaml:"aggregator"`
	Market     Market     `yaml:"market"`
	Proxy      Proxy      `yaml:"proxy"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Wallet.Kind == "" {
		c.Wallet.Kind = "injected"
	}
	if c.Wallet.ChainID == 0 {
		c.Wallet.ChainID = 1
	}
	if c.Wallet.KeyEnvName == "" {
		c.Wallet.KeyEnvName = "DEXSIGNAL_PRIVATE_KEY"
	}
	if c.Swap.SlippagePercent <= 0 {
		c.Swap.SlippagePercent = 1.0
	}
	if c.Swap.DeadlineMinutes <= 0 {
		c.Swap.DeadlineMinutes = 10
	}
	if c.Swap.ApprovalMode == "" {
		c.Swap.ApprovalMode = "unlimited"
	}
	if c.Swap.QuoteDebounceMs <= 0 {
		c.Swap.QuoteDebounceMs = 400
	}
	if c.Aggregator.BaseURL == "" {
		c.Aggregator.BaseURL = "https://quote-api.jup.ag"
	}
	if c.Aggregator.RPCURL == "" {
		c.Aggregator.RPCURL = "https://api.mainnet-beta.solana.com"
	}
	if c.Aggregator.Commitment == "" {
		c.Aggregator.Commitment = "confirmed"
	}
	if c.Aggregator.PlatformFeeBps <= 0 {
		c.Aggregator.PlatformFeeBps = 20
	}
	if c.Aggregator.FeeAccountEnvName == "" {
		c.Aggregator.FeeAccountEnvName = "DEXSIGNAL_FEE_ACCOUNT"
	}
	if c.Market.Pairs.BaseURL == "" {
		c.Market.Pairs.BaseURL = "https://api.dexscreener.com"
	}
	if c.Market.Pairs.Chain == "" {
		c.Market.Pairs.Chain = "solana"
	}
	if c.Market.Pairs.PollIntervalMs <= 0 {
		c.Market.Pairs.PollIntervalMs = 30000
	}
	if c.Market.Pairs.Top <= 0 {
		c.Market.Pairs.Top = 25
	}
	if c.Market.Pairs.SortBy == "" {
		c.Market.Pairs.SortBy = "volume"
	}
	if c.Market.Coins.BaseURL == "" {
		c.Market.Coins.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Market.Coins.VsCurrency == "" {
		c.Market.Coins.VsCurrency = "usd"
	}
	if len(c.Market.Coins.IDs) == 0 {
		c.Market.Coins.IDs = []string{"shiba-inu", "dogecoin", "pepe", "bonk", "floki-inu", "dogwifcoin"}
	}
	if c.Market.Coins.PerPage <= 0 {
		c.Market.Coins.PerPage = 10
	}
	if c.Market.Coins.PollIntervalMs <= 0 {
		c.Market.Coins.PollIntervalMs = 60000
	}
	if c.Proxy.ListenAddr == "" {
		c.Proxy.ListenAddr = ":8080"
	}
	if c.Proxy.RateLimit <= 0 {
		c.Proxy.RateLimit = 60
	}
	if c.Proxy.RateWindowSecs <= 0 {
		c.Proxy.RateWindowSecs = 60
	}
	if c.Proxy.CacheTTLSecs <= 0 {
		c.Proxy.CacheTTLSecs = 20
	}
}
