package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mooncall/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteResponse = `{
  "code": "0",
  "msg": "",
  "data": [{
    "fromToken": {"tokenSymbol": "wSOL", "decimal": "9", "tokenUnitPrice": "150.5"},
    "toToken": {"tokenSymbol": "PONKE", "decimal": "6", "tokenUnitPrice": "0.0012"},
    "fromTokenAmount": "100000000",
    "toTokenAmount": "12500000000",
    "priceImpactPercentage": "0.12",
    "tradeFee": "0.0005",
    "quoteCompareList": [{"dexName": "Raydium"}, {"dexName": "Orca"}]
  }]
}`

func testQuoteClient(server *httptest.Server) *OkxQuoteClient {
	return NewOkxQuoteClient(config.QuoteConfig{
		ChainID:   501,
		AmountRaw: 100000000,
		FromToken: "So11111111111111111111111111111111111111112",
		BaseURL:   server.URL,
	})
}

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/dex/aggregator/quote", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "501", query.Get("chainId"))
		assert.Equal(t, "100000000", query.Get("amount"))
		assert.Equal(t, "So11111111111111111111111111111111111111112", query.Get("fromTokenAddress"))
		assert.Equal(t, "caQ", query.Get("toTokenAddress"))
		w.Write([]byte(quoteResponse))
	}))
	defer server.Close()

	record, err := testQuoteClient(server).GetQuote(context.Background(), "caQ")
	require.NoError(t, err)

	assert.Equal(t, "caQ", record.CA)
	assert.Equal(t, "wSOL", record.FromTokenSymbol)
	assert.InDelta(t, 0.1, record.FromTokenAmount, 1e-9, "9 decimals scale 100000000 to 0.1 SOL")
	assert.Equal(t, 150.5, record.FromTokenPrice)
	assert.Equal(t, "PONKE", record.ToTokenSymbol)
	assert.InDelta(t, 12500, record.ToTokenAmount, 1e-6)
	assert.Equal(t, 0.12, record.PriceImpact)
	assert.Equal(t, 0.0005, record.TradeFee)
	assert.Equal(t, "Raydium", record.DexName)
}

func TestGetQuoteRejectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "51001", "msg": "token not found", "data": []}`))
	}))
	defer server.Close()

	_, err := testQuoteClient(server).GetQuote(context.Background(), "caQ")
	assert.ErrorContains(t, err, "51001")
}

func TestGetQuoteEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "0", "msg": "", "data": []}`))
	}))
	defer server.Close()

	_, err := testQuoteClient(server).GetQuote(context.Background(), "caQ")
	assert.ErrorContains(t, err, "no data")
}

func TestTwitterClientDryRun(t *testing.T) {
	client := NewTwitterClient("", "", "", "", newTestLogger(t))
	assert.NoError(t, client.Post(context.Background(), "hello"), "dry-run always succeeds")
}
