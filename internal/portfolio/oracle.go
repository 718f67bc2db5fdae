package portfolio

import (
	"context"

	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/coingecko"
)

// VariableReader reads contract storage. *lamden.Client satisfies it.
type VariableReader interface {
	GetVariableFloat(ctx context.Context, contract, variable string, keys ...string) (float64, error)
}

// FiatSource quotes the base currency in fiat. *coingecko.Client satisfies it.
type FiatSource interface {
	CoinPrice(ctx context.Context, assetID string) (coingecko.FiatRates, error)
}

// BaseToken is the chain's native currency contract. It is the unit all
// portfolio values are denominated in, so its own quote is always 1.
const BaseToken = "currency"

// PriceOracle quotes tokens in the base currency through the AMM's on-chain
// prices hash, and the base currency in fiat through the market data API.
// Missing quotes resolve to 0, never to an error: a token with no pool simply
// has no value yet.
type PriceOracle struct {
	chain       VariableReader
	fiat        FiatSource
	ammContract string
	baseAssetID string
	log         *zap.Logger
}

func NewPriceOracle(chain VariableReader, fiat FiatSource, ammContract, baseAssetID string, log *zap.Logger) *PriceOracle {
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceOracle{
		chain:       chain,
		fiat:        fiat,
		ammContract: ammContract,
		baseAssetID: baseAssetID,
		log:         log,
	}
}

// QuoteInBase returns the token's AMM price in base currency units.
func (o *PriceOracle) QuoteInBase(ctx context.Context, token string) float64 {
	if token == BaseToken {
		return 1
	}
	price, err := o.chain.GetVariableFloat(ctx, o.ammContract, "prices", token)
	if err != nil {
		o.log.Warn("price lookup failed, valuing at zero",
			zap.String("token", token), zap.Error(err))
		return 0
	}
	return price
}

// BaseFiat returns the fiat rates of one base currency unit. The second
// return value is false when the rates are unavailable; callers report
// base-denominated totals without fiat conversion in that case.
func (o *PriceOracle) BaseFiat(ctx context.Context) (coingecko.FiatRates, bool) {
	rates, err := o.fiat.CoinPrice(ctx, o.baseAssetID)
	if err != nil {
		o.log.Warn("fiat rates unavailable", zap.Error(err))
		return coingecko.FiatRates{}, false
	}
	return rates, true
}
