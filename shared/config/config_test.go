package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Path does not exist; the loader falls back to defaults.
	cfg, err := LoadConfig("does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Monitor.PollIntervalSeconds)
	assert.Equal(t, 10, cfg.Monitor.TweetIntervalSeconds)
	assert.Equal(t, 72, cfg.Monitor.WindowHours)
	assert.Equal(t, 30, cfg.Monitor.TweetDelayMinutes)
	assert.Equal(t, []int{5, 10, 20, 50, 100}, cfg.Monitor.Multiples)

	assert.Equal(t, 501, cfg.Quote.ChainID)
	assert.EqualValues(t, 100000000, cfg.Quote.AmountRaw)
	assert.Equal(t, "So11111111111111111111111111111111111111112", cfg.Quote.FromToken)

	assert.Equal(t, "0 0 0 * * *", cfg.Digest.CronSpec)
}

func TestMonitorConfigDurations(t *testing.T) {
	m := MonitorConfig{
		PollIntervalSeconds:  120,
		TweetIntervalSeconds: 10,
		WindowHours:          72,
		TweetDelayMinutes:    30,
	}
	assert.Equal(t, 2*time.Minute, m.PollInterval())
	assert.Equal(t, 10*time.Second, m.TweetInterval())
	assert.Equal(t, 30*time.Minute, m.TweetDelay())
	assert.Equal(t, 72*time.Hour, m.Window())
}

func TestGlobalConfig(t *testing.T) {
	cfg := &Config{}
	SetGlobalConfig(cfg)
	assert.Same(t, cfg, GetGlobalConfig())
}
