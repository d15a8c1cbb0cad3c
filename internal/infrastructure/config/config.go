package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Capacity         int `toml:"capacity"`
		RefreshEverySec  int `toml:"refresh_every_sec"`
		SnapshotEveryMin int `toml:"snapshot_every_min"`
	} `toml:"app"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Stream struct {
		WsURL            string `toml:"ws_url"`
		HeartbeatSec     int    `toml:"heartbeat_sec"`
		ReconnectWaitSec int    `toml:"reconnect_wait_sec"`
	} `toml:"stream"`

	Fallback struct {
		QuoteURL   string `toml:"quote_url"`
		RatesURL   string `toml:"rates_url"`
		Pivot      string `toml:"pivot"`
		PollSec    int    `toml:"poll_sec"`
		TimeoutSec int    `toml:"timeout_sec"`
	} `toml:"fallback"`

	Chart struct {
		Listen string `toml:"listen"`
		Title  string `toml:"title"`
	} `toml:"chart"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Capacity <= 0 {
		cfg.App.Capacity = 300
	}
	if cfg.App.RefreshEverySec <= 0 {
		cfg.App.RefreshEverySec = 1
	}
	if cfg.App.SnapshotEveryMin <= 0 {
		cfg.App.SnapshotEveryMin = 5
	}
	if strings.TrimSpace(cfg.Stream.WsURL) == "" {
		cfg.Stream.WsURL = "wss://ws.twelvedata.com/v1/quotes/price"
	}
	if cfg.Stream.HeartbeatSec <= 0 {
		cfg.Stream.HeartbeatSec = 10
	}
	if cfg.Stream.ReconnectWaitSec <= 0 {
		cfg.Stream.ReconnectWaitSec = 5
	}
	if strings.TrimSpace(cfg.Fallback.QuoteURL) == "" {
		cfg.Fallback.QuoteURL = "https://api.twelvedata.com"
	}
	if strings.TrimSpace(cfg.Fallback.RatesURL) == "" {
		cfg.Fallback.RatesURL = "https://api.exchangerate.host"
	}
	if strings.TrimSpace(cfg.Fallback.Pivot) == "" {
		cfg.Fallback.Pivot = "USD"
	}
	if cfg.Fallback.PollSec <= 0 {
		cfg.Fallback.PollSec = 60
	}
	if cfg.Fallback.TimeoutSec <= 0 {
		cfg.Fallback.TimeoutSec = 10
	}
	if strings.TrimSpace(cfg.Chart.Listen) == "" {
		cfg.Chart.Listen = ":8087"
	}
	if strings.TrimSpace(cfg.Chart.Title) == "" {
		cfg.Chart.Title = "Live FX: % Change Since Session Start (UTC)"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// LoadAPIKey returns the streaming credential from the environment, a .env
// file, or secrets/twelve_data.key. Empty means degraded capability: keyless
// fallback only, streaming subscribe still attempted.
func LoadAPIKey() string {
	_ = godotenv.Load()
	if key := strings.TrimSpace(os.Getenv("TWELVE_DATA_API_KEY")); key != "" {
		return key
	}
	b, err := os.ReadFile(filepath.Join("secrets", "twelve_data.key"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
