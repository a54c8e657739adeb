package monitor

import (
	"testing"
	"time"

	"mooncall/agent/internal/models"
	"mooncall/agent/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "900", FormatNumber(900))
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "1.50K", FormatNumber(1500))
	assert.Equal(t, "999.99K", FormatNumber(999_990))
	assert.Equal(t, "1.50M", FormatNumber(1_500_000))
	assert.Equal(t, "4200.00M", FormatNumber(4_200_000_000))
}

func TestParseMarketCap(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"900", 900},
		{"12.3K", 12_300},
		{"12.3k", 12_300},
		{"4.2M", 4_200_000},
		{"1B", 1e9},
		{" 53.4K ", 53_400},
		{"", 0},
		{"garbage", 0},
		{"K", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMarketCap(tt.in), "input %q", tt.in)
	}
}

func TestParseMarketCapRoundTripsFormatNumber(t *testing.T) {
	assert.InDelta(t, 53_400, ParseMarketCap(FormatNumber(53_400)), 10)
	assert.InDelta(t, 4_200_000, ParseMarketCap(FormatNumber(4_200_000)), 1000)
}

func TestTokenAge(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2d 5h", tokenAge(now.Add(-53*time.Hour), now))
	assert.Equal(t, "0d 0h", tokenAge(now.Add(-10*time.Minute), now))
	assert.Equal(t, "unknown", tokenAge(time.Time{}, now))
	assert.Equal(t, "unknown", tokenAge(now.Add(time.Hour), now))
}

func TestFormatMultipleAlert(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	token := models.MonitoredToken{
		Token:        "PONKE",
		CA:           "5z3EqYQo9HiCEs3R84RCDMu2n7anpDMxRhdK8PSWmrRC",
		InitialMcap:  50_000,
		ReceivedTime: now.Add(-6 * time.Hour),
	}
	data := &services.TokenMarketData{
		Symbol:        "PONKE",
		PriceUsd:      0.00012345,
		TwitterURL:    "https://x.com/ponke_sol",
		PairCreatedAt: now.Add(-30 * time.Hour),
	}

	text := FormatMultipleAlert(token, data, 5, "Join the channel", now)

	assert.Contains(t, text, "Callback on $PONKE")
	assert.Contains(t, text, "@ponke_sol")
	assert.Contains(t, text, "Up 400% since the call")
	assert.Contains(t, text, "Market cap at call: 50.00K")
	assert.Contains(t, text, "Current market cap: 250.00K")
	assert.Contains(t, text, "CA: 5z3EqYQo9HiCEs3R84RCDMu2n7anpDMxRhdK8PSWmrRC")
	assert.Contains(t, text, "1d 6h ago")
	assert.Contains(t, text, "Join the channel")
	assert.Contains(t, text, "#SOLANA #MEMECOIN #PONKE")
}

func TestFormatMultipleAlertWithoutOptionalParts(t *testing.T) {
	now := time.Now()
	token := models.MonitoredToken{Token: "WIF", CA: "ca", InitialMcap: 100_000, ReceivedTime: now}
	data := &services.TokenMarketData{Symbol: "WIF", PriceUsd: 1.5}

	text := FormatMultipleAlert(token, data, 10, "", now)

	assert.NotContains(t, text, "@")
	assert.Contains(t, text, "Token created: unknown ago")
}
