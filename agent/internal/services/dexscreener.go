package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mooncall/shared/logger"

	"golang.org/x/time/rate"
)

// DexScreener free tier allows ~300 requests/min; stay under it.
var dexScreenerLimiter = rate.NewLimiter(rate.Limit(4.66), 5)

// var so tests can point it at a local server.
var dexScreenerAPI = "https://api.dexscreener.com/tokens/v1/solana"

// fetchTimeout bounds every market-data call so one unresponsive token can
// never stall a polling cycle.
const fetchTimeout = 10 * time.Second

type Pair struct {
	ChainID       string             `json:"chainId"`
	DexID         string             `json:"dexId"`
	URL           string             `json:"url"`
	PairAddress   string             `json:"pairAddress"`
	BaseToken     Token              `json:"baseToken"`
	QuoteToken    Token              `json:"quoteToken"`
	PriceNative   string             `json:"priceNative"`
	PriceUsd      string             `json:"priceUsd"`
	Volume        map[string]float64 `json:"volume"`
	Liquidity     *Liquidity         `json:"liquidity"`
	FDV           float64            `json:"fdv"`
	MarketCap     float64            `json:"marketCap"`
	PairCreatedAt int64              `json:"pairCreatedAt"`
	Info          *TokenInfo         `json:"info"`
}

type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Liquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

type SocialInfo struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type TokenInfo struct {
	ImageURL string       `json:"imageUrl"`
	Socials  []SocialInfo `json:"socials"`
}

// TokenMarketData is the normalized snapshot of one token's primary trading
// pair at poll time.
type TokenMarketData struct {
	Symbol        string
	PriceUsd      float64
	PriceNative   float64
	Volume24h     float64
	FDV           float64
	MarketCap     float64
	LiquidityUsd  float64
	PairCreatedAt time.Time
	TwitterURL    string
	PairCount     int
}

// GrowthCap is the market-cap proxy used for growth multiples: fully-diluted
// valuation, falling back to the reported market cap when FDV is absent.
func (d *TokenMarketData) GrowthCap() float64 {
	if d.FDV > 0 {
		return d.FDV
	}
	return d.MarketCap
}

// FetchTokenMarketData resolves a contract address to its current pair data.
// Network failures, non-2xx responses and malformed payloads all come back as
// a plain error: callers log and treat the token as unavailable for this
// cycle, nothing propagates as fatal.
func FetchTokenMarketData(ctx context.Context, tokenCA string, appLogger *logger.Logger) (*TokenMarketData, error) {
	if err := dexScreenerLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error for %s: %w", tokenCA, err)
	}

	url := fmt.Sprintf("%s/%s", dexScreenerAPI, tokenCA)
	client := &http.Client{Timeout: fetchTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", tokenCA, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DexScreener API request failed for %s: %w", tokenCA, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded (429) for %s", tokenCA)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed for %s with status: %s", tokenCA, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading API response for %s: %w", tokenCA, err)
	}

	var pairs []Pair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("JSON parsing failed for %s: %w", tokenCA, err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no trading pairs found for %s", tokenCA)
	}

	// DexScreener lists the primary (highest-liquidity) pair first; the first
	// entry is the deterministic choice.
	pair := pairs[0]
	data := &TokenMarketData{
		Symbol:    pair.BaseToken.Symbol,
		FDV:       pair.FDV,
		MarketCap: pair.MarketCap,
		PairCount: len(pairs),
	}

	data.PriceUsd = parsePairFloat(pair.PriceUsd)
	data.PriceNative = parsePairFloat(pair.PriceNative)

	if v, ok := pair.Volume["h24"]; ok {
		data.Volume24h = v
	} else {
		appLogger.Debug("Volume data for 'h24' missing, treating as 0", "token", tokenCA, "pair", pair.PairAddress)
	}

	if pair.Liquidity != nil {
		data.LiquidityUsd = pair.Liquidity.Usd
	} else {
		appLogger.Debug("Liquidity data missing, treating as 0", "token", tokenCA, "pair", pair.PairAddress)
	}

	if pair.PairCreatedAt > 0 {
		data.PairCreatedAt = time.UnixMilli(pair.PairCreatedAt)
	}

	if pair.Info != nil {
		for _, social := range pair.Info.Socials {
			if strings.EqualFold(social.Type, "twitter") {
				data.TwitterURL = social.URL
				break
			}
		}
	}

	return data, nil
}

// Prices arrive as strings; an unparsable price is 0, not an error.
func parsePairFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
