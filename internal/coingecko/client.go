package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/endogen/rocketbot/internal/httpx"
	"github.com/endogen/rocketbot/internal/rberr"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// FiatRates is the fiat and crypto price of one base asset unit.
type FiatRates struct {
	USD float64 `json:"usd"`
	EUR float64 `json:"eur"`
	BTC float64 `json:"btc"`
	ETH float64 `json:"eth"`
}

// Client fetches fiat conversion rates from the CoinGecko API.
type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
}

func New(httpClient *httpx.Client, baseURL, apiKey string) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

type coinResponse struct {
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// CoinPrice returns the current price of the asset in USD, EUR, BTC and ETH.
// This call is not retried beyond the HTTP client's policy; callers degrade
// their reports when it fails rather than aborting.
func (c *Client) CoinPrice(ctx context.Context, assetID string) (FiatRates, error) {
	endpoint := fmt.Sprintf(
		"%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false&sparkline=false",
		c.baseURL, url.PathEscape(assetID),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FiatRates{}, rberr.Wrap(rberr.CodeInternal, "build coingecko request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}
	var resp coinResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return FiatRates{}, err
	}
	prices := resp.MarketData.CurrentPrice
	if len(prices) == 0 {
		return FiatRates{}, rberr.New(rberr.CodeUnavailable, fmt.Sprintf("coingecko returned no prices for %s", assetID))
	}
	return FiatRates{
		USD: prices["usd"],
		EUR: prices["eur"],
		BTC: prices["btc"],
		ETH: prices["eth"],
	}, nil
}
