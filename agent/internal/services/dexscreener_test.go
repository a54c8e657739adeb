package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mooncall/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	appLogger, err := logger.NewLogger(logger.Config{Level: "error", Environment: "development"})
	require.NoError(t, err)
	return appLogger
}

func withDexScreenerServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	previous := dexScreenerAPI
	dexScreenerAPI = server.URL
	t.Cleanup(func() { dexScreenerAPI = previous })
}

const pairResponse = `[
  {
    "chainId": "solana",
    "dexId": "raydium",
    "pairAddress": "pairAAA",
    "baseToken": {"address": "caX", "name": "Ponke", "symbol": "PONKE"},
    "priceNative": "0.0000071",
    "priceUsd": "0.0012",
    "volume": {"h24": 150000.5},
    "liquidity": {"usd": 75000},
    "fdv": 1200000,
    "marketCap": 1100000,
    "pairCreatedAt": 1718000000000,
    "info": {"socials": [
      {"type": "telegram", "url": "https://t.me/ponke"},
      {"type": "twitter", "url": "https://x.com/ponke_sol"}
    ]}
  },
  {
    "chainId": "solana",
    "dexId": "orca",
    "pairAddress": "pairBBB",
    "baseToken": {"symbol": "PONKE"},
    "priceUsd": "0.0011",
    "fdv": 900000
  }
]`

func TestFetchTokenMarketData(t *testing.T) {
	withDexScreenerServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/caX", r.URL.Path)
		w.Write([]byte(pairResponse))
	})

	data, err := FetchTokenMarketData(context.Background(), "caX", newTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "PONKE", data.Symbol)
	assert.Equal(t, 0.0012, data.PriceUsd)
	assert.Equal(t, 0.0000071, data.PriceNative)
	assert.Equal(t, 150000.5, data.Volume24h)
	assert.Equal(t, 1200000.0, data.FDV)
	assert.Equal(t, 1100000.0, data.MarketCap)
	assert.Equal(t, 75000.0, data.LiquidityUsd)
	assert.Equal(t, "https://x.com/ponke_sol", data.TwitterURL)
	assert.Equal(t, 2, data.PairCount)
	assert.Equal(t, time.UnixMilli(1718000000000), data.PairCreatedAt)
}

func TestFetchTokenMarketDataUsesFirstPair(t *testing.T) {
	withDexScreenerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pairResponse))
	})

	data, err := FetchTokenMarketData(context.Background(), "caX", newTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1200000.0, data.FDV, "the first listed pair wins, not the later one")
}

func TestFetchTokenMarketDataNoPairs(t *testing.T) {
	withDexScreenerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := FetchTokenMarketData(context.Background(), "caGone", newTestLogger(t))
	assert.ErrorContains(t, err, "no trading pairs found")
}

func TestFetchTokenMarketDataServerError(t *testing.T) {
	withDexScreenerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := FetchTokenMarketData(context.Background(), "caX", newTestLogger(t))
	assert.Error(t, err)
}

func TestGrowthCap(t *testing.T) {
	assert.Equal(t, 500.0, (&TokenMarketData{FDV: 500, MarketCap: 400}).GrowthCap())
	assert.Equal(t, 400.0, (&TokenMarketData{FDV: 0, MarketCap: 400}).GrowthCap())
	assert.Equal(t, 0.0, (&TokenMarketData{}).GrowthCap())
}
