package portfolio

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/coingecko"
	"github.com/endogen/rocketbot/internal/rocketswap"
)

// Staking contracts with this prefix hold LP units, not token units. Their
// staked balance is merged into the matching liquidity position instead of
// being valued as a token stake.
const liqMiningPrefix = "con_liq_mining_"

// MarketData is the Rocketswap API surface the aggregator needs.
// *rocketswap.Client satisfies it.
type MarketData interface {
	StakingMeta(ctx context.Context) ([]rocketswap.StakingMetaEntry, error)
	UserStakingInfo(ctx context.Context, address string) (map[string]rocketswap.StakingInfo, error)
	UserLPBalance(ctx context.Context, address string) (map[string]float64, error)
	PairData(ctx context.Context, contract string) (rocketswap.PairData, error)
}

// PositionKind distinguishes the two position shapes in a summary.
type PositionKind string

const (
	PositionStaking   PositionKind = "staking"
	PositionLiquidity PositionKind = "liquidity"
)

// Position is one valued line of a portfolio summary. Amount is token units
// for staking positions and LP units for liquidity positions; SharePercent
// is only set for liquidity positions.
type Position struct {
	Kind         PositionKind `json:"kind"`
	Contract     string       `json:"contract"`
	Amount       float64      `json:"amount"`
	SharePercent float64      `json:"share_percent,omitempty"`
	ValueBase    float64      `json:"value_base"`
}

// FiatTotals is the portfolio total converted at current base rates.
type FiatTotals struct {
	USD float64 `json:"usd"`
	EUR float64 `json:"eur"`
	BTC float64 `json:"btc"`
	ETH float64 `json:"eth"`
}

// Summary is the aggregated portfolio of one address.
type Summary struct {
	Address   string     `json:"address"`
	Positions []Position `json:"positions"`
	TotalBase float64    `json:"total_base"`
	Fiat      FiatTotals `json:"fiat"`
	FiatOK    bool       `json:"fiat_ok"`
}

// Aggregator values an address's staking and liquidity positions in the base
// currency and converts the total to fiat. Summarize is read-only and
// idempotent; running it twice against the same upstream state yields the
// same summary.
type Aggregator struct {
	market MarketData
	oracle *PriceOracle
	log    *zap.Logger
}

func NewAggregator(market MarketData, oracle *PriceOracle, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{market: market, oracle: oracle, log: log}
}

// Summarize builds the portfolio summary for one address. Line-item values
// are truncated to whole base units; positions that truncate to zero are
// dropped from the report. Pairs with zero pooled LP are skipped entirely:
// without pool supply there is no meaningful share to value.
func (a *Aggregator) Summarize(ctx context.Context, address string) (Summary, error) {
	meta, err := a.market.StakingMeta(ctx)
	if err != nil {
		return Summary{}, err
	}
	stakingToken := make(map[string]string, len(meta))
	for _, entry := range meta {
		stakingToken[entry.ContractName] = entry.StakingToken
	}

	staking, err := a.market.UserStakingInfo(ctx, address)
	if err != nil {
		return Summary{}, err
	}
	lpUnits, err := a.market.UserLPBalance(ctx, address)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Address: address}
	for contract, info := range staking {
		if info.TotalStaked <= 0 {
			continue
		}
		token, ok := stakingToken[contract]
		if !ok {
			a.log.Debug("staking contract missing from meta, skipping",
				zap.String("contract", contract))
			continue
		}
		if strings.HasPrefix(contract, liqMiningPrefix) {
			// Mined units only top up an LP balance the address already
			// holds; without a balance entry there is no pair to value.
			if _, held := lpUnits[token]; held {
				lpUnits[token] += info.TotalStaked
			}
			continue
		}
		value := math.Trunc(info.TotalStaked * a.oracle.QuoteInBase(ctx, token))
		summary.Positions = append(summary.Positions, Position{
			Kind:      PositionStaking,
			Contract:  token,
			Amount:    info.TotalStaked,
			ValueBase: value,
		})
	}

	for token, units := range lpUnits {
		if units <= 0 {
			continue
		}
		pair, err := a.market.PairData(ctx, token)
		if err != nil {
			return Summary{}, err
		}
		if pair.LP <= 0 {
			a.log.Debug("pair has no pooled LP, skipping",
				zap.String("contract", token))
			continue
		}
		share := units / pair.LP * 100
		// Pools are balanced 50/50 by value, so twice the base reserve
		// scaled by the holder's share prices the whole position.
		value := math.Trunc(pair.Reserves[0] * 2 * share / 100)
		summary.Positions = append(summary.Positions, Position{
			Kind:         PositionLiquidity,
			Contract:     token,
			Amount:       units,
			SharePercent: share,
			ValueBase:    value,
		})
	}

	kept := summary.Positions[:0]
	for _, p := range summary.Positions {
		if p.ValueBase == 0 {
			continue
		}
		kept = append(kept, p)
	}
	summary.Positions = kept
	sort.Slice(summary.Positions, func(i, j int) bool {
		if summary.Positions[i].ValueBase != summary.Positions[j].ValueBase {
			return summary.Positions[i].ValueBase > summary.Positions[j].ValueBase
		}
		return summary.Positions[i].Contract < summary.Positions[j].Contract
	})
	// Summed after the sort so the total does not depend on map
	// iteration order.
	for _, p := range summary.Positions {
		summary.TotalBase += p.ValueBase
	}

	if rates, ok := a.oracle.BaseFiat(ctx); ok {
		summary.FiatOK = true
		summary.Fiat = fiatTotals(summary.TotalBase, rates)
	}
	return summary, nil
}

// fiatTotals applies each denomination's display precision: whole units
// for USD and EUR, five and four decimals for BTC and ETH.
func fiatTotals(totalBase float64, rates coingecko.FiatRates) FiatTotals {
	return FiatTotals{
		USD: math.Trunc(totalBase * rates.USD),
		EUR: math.Trunc(totalBase * rates.EUR),
		BTC: roundTo(totalBase*rates.BTC, 5),
		ETH: roundTo(totalBase*rates.ETH, 4),
	}
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
