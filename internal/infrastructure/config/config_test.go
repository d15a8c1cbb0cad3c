package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[symbols]
list = ["eur/usd", "EUR/USD", " usd/jpy "]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"EUR/USD", "USD/JPY"}, cfg.Symbols.List)
	assert.Equal(t, 300, cfg.App.Capacity)
	assert.Equal(t, 1, cfg.App.RefreshEverySec)
	assert.Equal(t, 10, cfg.Stream.HeartbeatSec)
	assert.Equal(t, 5, cfg.Stream.ReconnectWaitSec)
	assert.Equal(t, "wss://ws.twelvedata.com/v1/quotes/price", cfg.Stream.WsURL)
	assert.Equal(t, 60, cfg.Fallback.PollSec)
	assert.Equal(t, 10, cfg.Fallback.TimeoutSec)
	assert.Equal(t, "USD", cfg.Fallback.Pivot)
	assert.Equal(t, ":8087", cfg.Chart.Listen)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[app]
capacity = 50

[symbols]
list = ["GBP/USD"]

[stream]
reconnect_wait_sec = 2

[fallback]
poll_sec = 30
pivot = "eur"
`))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.App.Capacity)
	assert.Equal(t, 2, cfg.Stream.ReconnectWaitSec)
	assert.Equal(t, 30, cfg.Fallback.PollSec)
	assert.Equal(t, "eur", cfg.Fallback.Pivot)
}

func TestLoadRejectsEmptySymbols(t *testing.T) {
	_, err := Load(writeConfig(t, `
[symbols]
list = ["", "  "]
`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
