package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "skip", cfg.Aggregate.Policy)
	assert.Equal(t, "commission", cfg.Aggregate.DailyMeasure)
	assert.Equal(t, 0, cfg.Aggregate.FrequencyLimit)
	assert.True(t, cfg.Aggregate.Sort)
	assert.Equal(t, "png", cfg.Output.Format)
	assert.Equal(t, 0, cfg.Fetch.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeFile(t, dir, "config.yaml", `
source: from-yaml.csv
aggregate:
  policy: zero
  frequency_limit: 1001
output:
  format: svg
`)

	t.Setenv("ORDERVIZ_AGGREGATE_POLICY", "abort")

	flags := pflag.NewFlagSet("render", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--format", "PNG"}))

	cfg, err := Load(Options{ConfigFile: cfgFile, EnvFile: filepath.Join(dir, "missing.env"), Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "from-yaml.csv", cfg.Source)
	assert.Equal(t, 1001, cfg.Aggregate.FrequencyLimit)
	assert.Equal(t, "abort", cfg.Aggregate.Policy, "env beats yaml")
	assert.Equal(t, "png", cfg.Output.Format, "changed flag beats yaml")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "TELEGRAM_BOT_TOKEN=abc\nTELEGRAM_CHAT_ID=42\n")
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("TELEGRAM_CHAT_ID")
	})

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Telegram.BotToken)
	assert.EqualValues(t, 42, cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Source:    "orders.csv",
			Fetch:     FetchConfig{Timeout: time.Second, MaxResponseSize: 1},
			Aggregate: AggregateConfig{Policy: "skip", DailyMeasure: "commission"},
			Output:    OutputConfig{Format: "png"},
		}
	}

	cfg := base()
	require.NoError(t, validateConfig(&cfg))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source", func(c *Config) { c.Source = "" }},
		{"bad policy", func(c *Config) { c.Aggregate.Policy = "ignore" }},
		{"bad measure", func(c *Config) { c.Aggregate.DailyMeasure = "refunds" }},
		{"bad format", func(c *Config) { c.Output.Format = "gif" }},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, validateConfig(&cfg))
		})
	}
}
