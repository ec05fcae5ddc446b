package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "once", c.App.Mode)
	assert.Equal(t, 7, c.Alignment.ToleranceDays)
	assert.Equal(t, "include_with_default", c.Alignment.MissingPolicy)
	assert.Equal(t, 50.0, c.Alignment.DefaultValue)
	assert.Equal(t, []string{"Bitcoin", "Crypto", "Binance", "CoinMarketCap", "DefiLlama"}, c.Trends.Keywords)
	assert.Equal(t, "data.json", c.Output.Path)
	assert.True(t, c.Output.Pretty)
	assert.Equal(t, 180, c.Horizons.Primary.Days)
	assert.False(t, c.Horizons.Extended.Enabled)
	assert.Equal(t, "12m", c.Horizons.Extended.Name)
}

func TestLoadYAMLKeepsExplicitZero(t *testing.T) {
	path := writeFile(t, "config.yaml", `
alignment:
  tolerance_days: 0
  missing_policy: exclude_unmatched
output:
  pretty: false
horizons:
  extended:
    enabled: true
trends:
  keywords: [Bitcoin]
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, c.Alignment.ToleranceDays)
	assert.Equal(t, "exclude_unmatched", c.Alignment.MissingPolicy)
	assert.False(t, c.Output.Pretty)
	assert.True(t, c.Horizons.Extended.Enabled)
	assert.Equal(t, 365, c.Horizons.Extended.Days)
	assert.Equal(t, []string{"Bitcoin"}, c.Trends.Keywords)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[app]
mode = "serve"

[alignment]
tolerance_days = 3

[trends]
source = "csv"

[horizons.primary]
csv_path = "trends.csv"
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", c.App.Mode)
	assert.Equal(t, 3, c.Alignment.ToleranceDays)
	assert.Equal(t, "trends.csv", c.Horizons.Primary.CSVPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad mode", "app:\n  mode: forever\n"},
		{"bad policy", "alignment:\n  missing_policy: maybe\n"},
		{"negative tolerance", "alignment:\n  tolerance_days: -1\n"},
		{"csv without path", "trends:\n  source: csv\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
		{"empty keywords", "trends:\n  keywords: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "secret")
	t.Setenv("TRENDPULL_KEYWORDS", "Bitcoin,Ethereum")
	t.Setenv("TRENDPULL_OUTPUT_PATH", "/tmp/out.json")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, "secret", c.Trends.SerpAPI.APIKey)
	assert.Equal(t, []string{"Bitcoin", "Ethereum"}, c.Trends.Keywords)
	assert.Equal(t, "/tmp/out.json", c.Output.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
