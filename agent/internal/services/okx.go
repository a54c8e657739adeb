package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mooncall/agent/internal/models"
	"mooncall/shared/config"
)

// OkxQuoteClient asks the OKX DEX aggregator for a buy quote. The quote is
// recorded for later PnL analysis; no order is ever placed.
type OkxQuoteClient struct {
	cfg        config.QuoteConfig
	httpClient *http.Client
}

func NewOkxQuoteClient(cfg config.QuoteConfig) *OkxQuoteClient {
	return &OkxQuoteClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// QuoteContext returns a detached context bounded by the quote timeout, for
// callers that fetch quotes outside a request lifecycle.
func QuoteContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), fetchTimeout)
}

type okxQuoteResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		FromToken        okxTokenInfo `json:"fromToken"`
		ToToken          okxTokenInfo `json:"toToken"`
		FromTokenAmount  string       `json:"fromTokenAmount"`
		ToTokenAmount    string       `json:"toTokenAmount"`
		PriceImpactPct   string       `json:"priceImpactPercentage"`
		TradeFee         string       `json:"tradeFee"`
		QuoteCompareList []struct {
			DexName string `json:"dexName"`
		} `json:"quoteCompareList"`
	} `json:"data"`
}

type okxTokenInfo struct {
	TokenSymbol    string `json:"tokenSymbol"`
	Decimal        string `json:"decimal"`
	TokenUnitPrice string `json:"tokenUnitPrice"`
}

// GetQuote fetches a quote for buying the given token with the configured
// amount of the source token and normalizes it into a PurchaseRecord.
func (c *OkxQuoteClient) GetQuote(ctx context.Context, tokenCA string) (*models.PurchaseRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v5/dex/aggregator/quote", c.cfg.BaseURL)

	params := url.Values{}
	params.Set("chainId", strconv.Itoa(c.cfg.ChainID))
	params.Set("amount", strconv.FormatInt(c.cfg.AmountRaw, 10))
	params.Set("fromTokenAddress", c.cfg.FromToken)
	params.Set("toTokenAddress", tokenCA)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request for %s: %w", tokenCA, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed for %s: %w", tokenCA, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request for %s returned status %s", tokenCA, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading quote response for %s: %w", tokenCA, err)
	}

	var quote okxQuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("quote JSON parsing failed for %s: %w", tokenCA, err)
	}
	if quote.Code != "0" {
		return nil, fmt.Errorf("quote rejected for %s: code=%s msg=%s", tokenCA, quote.Code, quote.Msg)
	}
	if len(quote.Data) == 0 {
		return nil, fmt.Errorf("quote response for %s carries no data", tokenCA)
	}

	data := quote.Data[0]
	record := &models.PurchaseRecord{
		CA:              tokenCA,
		FromTokenSymbol: data.FromToken.TokenSymbol,
		FromTokenAmount: scaledAmount(data.FromTokenAmount, data.FromToken.Decimal),
		FromTokenPrice:  parseQuoteFloat(data.FromToken.TokenUnitPrice),
		ToTokenSymbol:   data.ToToken.TokenSymbol,
		ToTokenAmount:   scaledAmount(data.ToTokenAmount, data.ToToken.Decimal),
		ToTokenPrice:    parseQuoteFloat(data.ToToken.TokenUnitPrice),
		PriceImpact:     parseQuoteFloat(data.PriceImpactPct),
		TradeFee:        parseQuoteFloat(data.TradeFee),
		Timestamp:       time.Now(),
	}
	if len(data.QuoteCompareList) > 0 {
		record.DexName = data.QuoteCompareList[0].DexName
	}
	return record, nil
}

// scaledAmount converts a raw integer string amount into token units using
// the reported decimal count.
func scaledAmount(rawAmount, decimals string) float64 {
	amount := parseQuoteFloat(rawAmount)
	d, err := strconv.Atoi(decimals)
	if err != nil || d <= 0 {
		return amount
	}
	return amount / math.Pow10(d)
}

func parseQuoteFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
