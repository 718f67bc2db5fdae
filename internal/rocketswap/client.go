package rocketswap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/endogen/rocketbot/internal/httpx"
	"github.com/endogen/rocketbot/internal/rberr"
)

const defaultBaseURL = "https://rocketswap.exchange:2053"

// Client talks to the Rocketswap indexer API: staking metadata, user
// positions, pair state and market listings.
type Client struct {
	http    *httpx.Client
	baseURL string
}

func New(httpClient *httpx.Client, baseURL string) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(base, "/"),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return rberr.Wrap(rberr.CodeInternal, "build rocketswap request", err)
	}
	_, err = c.http.DoJSON(ctx, req, out)
	return err
}

type stakingMetaResponse struct {
	Ents []StakingMetaEntry `json:"ents"`
}

// StakingMeta lists all staking contracts and the tokens they stake.
func (c *Client) StakingMeta(ctx context.Context) ([]StakingMetaEntry, error) {
	var resp stakingMetaResponse
	if err := c.getJSON(ctx, "/api/staking_meta", &resp); err != nil {
		return nil, err
	}
	return resp.Ents, nil
}

type userStakingEntry struct {
	YieldInfo *struct {
		TotalStaked amount `json:"total_staked"`
	} `json:"yield_info"`
}

// UserStakingInfo returns the user's staked amount per staking contract.
// Contracts without yield info are omitted.
func (c *Client) UserStakingInfo(ctx context.Context, address string) (map[string]StakingInfo, error) {
	var resp map[string]userStakingEntry
	if err := c.getJSON(ctx, "/api/user_staking_info/"+url.PathEscape(address), &resp); err != nil {
		return nil, err
	}
	out := make(map[string]StakingInfo, len(resp))
	for contract, entry := range resp {
		if entry.YieldInfo == nil {
			continue
		}
		out[contract] = StakingInfo{TotalStaked: float64(entry.YieldInfo.TotalStaked)}
	}
	return out, nil
}

type lpBalanceResponse struct {
	Points map[string]amount `json:"points"`
}

// UserLPBalance returns the user's LP units per pair contract.
func (c *Client) UserLPBalance(ctx context.Context, address string) (map[string]float64, error) {
	var resp lpBalanceResponse
	if err := c.getJSON(ctx, "/api/user_lp_balance/"+url.PathEscape(address), &resp); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(resp.Points))
	for contract, units := range resp.Points {
		out[contract] = float64(units)
	}
	return out, nil
}

type pairEntry struct {
	LP       amount   `json:"lp"`
	Reserves []amount `json:"reserves"`
}

// PairData returns the pooled LP total and reserves for one pair contract.
func (c *Client) PairData(ctx context.Context, contract string) (PairData, error) {
	var resp map[string]pairEntry
	if err := c.getJSON(ctx, "/api/get_pairs/"+url.PathEscape(contract), &resp); err != nil {
		return PairData{}, err
	}
	entry, ok := resp[contract]
	if !ok {
		return PairData{}, rberr.New(rberr.CodeUnavailable, fmt.Sprintf("rocketswap returned no pair data for %s", contract))
	}
	pair := PairData{LP: float64(entry.LP)}
	for i := 0; i < len(entry.Reserves) && i < 2; i++ {
		pair.Reserves[i] = float64(entry.Reserves[i])
	}
	return pair, nil
}

type marketSummaryEntry struct {
	ContractName string   `json:"contract_name"`
	Reserves     []amount `json:"reserves"`
	Token        struct {
		TokenName   string `json:"token_name"`
		TokenSymbol string `json:"token_symbol"`
	} `json:"token"`
}

// MarketSummaries lists all currently listed markets with token metadata.
func (c *Client) MarketSummaries(ctx context.Context) ([]MarketSummary, error) {
	var resp []marketSummaryEntry
	if err := c.getJSON(ctx, "/api/market_summaries_w_token", &resp); err != nil {
		return nil, err
	}
	out := make([]MarketSummary, 0, len(resp))
	for _, entry := range resp {
		summary := MarketSummary{
			ContractName: entry.ContractName,
			TokenName:    entry.Token.TokenName,
			TokenSymbol:  entry.Token.TokenSymbol,
		}
		for i := 0; i < len(entry.Reserves) && i < 2; i++ {
			summary.Reserves[i] = float64(entry.Reserves[i])
		}
		out = append(out, summary)
	}
	return out, nil
}

type tokenResponse struct {
	Token struct {
		ContractName string          `json:"contract_name"`
		TokenName    string          `json:"token_name"`
		TokenSymbol  string          `json:"token_symbol"`
		BaseSupply   json.RawMessage `json:"base_supply"`
	} `json:"token"`
}

// Token returns the AMM's metadata record for one token contract.
func (c *Client) Token(ctx context.Context, contract string) (TokenInfo, error) {
	var resp tokenResponse
	if err := c.getJSON(ctx, "/api/token/"+url.PathEscape(contract), &resp); err != nil {
		return TokenInfo{}, err
	}
	supply := strings.Trim(strings.TrimSpace(string(resp.Token.BaseSupply)), `"`)
	return TokenInfo{
		ContractName: resp.Token.ContractName,
		TokenName:    resp.Token.TokenName,
		TokenSymbol:  resp.Token.TokenSymbol,
		BaseSupply:   supply,
	}, nil
}
