package watcher

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/endogen/rocketbot/internal/metrics"
	"github.com/endogen/rocketbot/internal/rocketswap"
	"github.com/endogen/rocketbot/internal/store"
)

// Listing is one newly discovered market, with derived fields ready for
// presentation.
type Listing struct {
	Contract    string  `json:"contract"`
	TokenName   string  `json:"token_name"`
	TokenSymbol string  `json:"token_symbol"`
	PriceBase   float64 `json:"price_base"`
	BaseSupply  string  `json:"base_supply,omitempty"`
}

// SeenStore is the persisted dedup set. It is the single source of truth
// for "already announced"; the watcher keeps no in-memory copy across ticks.
// store.SQLite and store.Redis satisfy it.
type SeenStore interface {
	Seen(ctx context.Context, contract string) (bool, error)
	MarkSeen(ctx context.Context, listing store.Listing) error
}

// Notifier delivers one listing announcement. A returned error leaves the
// listing unmarked so the next tick offers it again.
type Notifier interface {
	NotifyListing(ctx context.Context, listing Listing) error
}

// MarketFeed is the AMM listing surface. *rocketswap.Client satisfies it.
type MarketFeed interface {
	MarketSummaries(ctx context.Context) ([]rocketswap.MarketSummary, error)
	Token(ctx context.Context, contract string) (rocketswap.TokenInfo, error)
}

// Watcher polls the market feed and announces each listing at least once.
// A listing is marked seen only after its notification succeeded, so a
// failed delivery is retried on the next tick.
type Watcher struct {
	feed     MarketFeed
	seen     SeenStore
	notifier Notifier
	interval time.Duration
	log      *zap.Logger
}

func New(feed MarketFeed, seen SeenStore, notifier Notifier, interval time.Duration, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{feed: feed, seen: seen, notifier: notifier, interval: interval, log: log}
}

// Tick runs one discovery pass and returns the listings announced during it.
// Notification failures are logged and skipped, not returned: the feed being
// unreachable is the only error that fails a tick.
func (w *Watcher) Tick(ctx context.Context) ([]Listing, error) {
	metrics.WatcherTicks.Inc()
	markets, err := w.feed.MarketSummaries(ctx)
	if err != nil {
		return nil, err
	}

	var announced []Listing
	for _, market := range markets {
		if market.ContractName == "" {
			continue
		}
		known, err := w.seen.Seen(ctx, market.ContractName)
		if err != nil {
			return announced, err
		}
		if known {
			continue
		}

		listing := Listing{
			Contract:    market.ContractName,
			TokenName:   market.TokenName,
			TokenSymbol: market.TokenSymbol,
		}
		if market.Reserves[1] > 0 {
			listing.PriceBase = market.Reserves[0] / market.Reserves[1]
		}
		if token, err := w.feed.Token(ctx, market.ContractName); err == nil {
			listing.BaseSupply = FormatSupply(token.BaseSupply)
		} else {
			w.log.Warn("token metadata unavailable",
				zap.String("contract", market.ContractName), zap.Error(err))
		}

		if err := w.notifier.NotifyListing(ctx, listing); err != nil {
			metrics.NotifyFailures.Inc()
			w.log.Warn("listing notification failed, will retry next tick",
				zap.String("contract", listing.Contract), zap.Error(err))
			continue
		}
		if err := w.seen.MarkSeen(ctx, store.Listing{
			Contract:  listing.Contract,
			Symbol:    listing.TokenSymbol,
			FirstSeen: time.Now().UTC(),
		}); err != nil {
			// The announcement went out; a failed mark means one more
			// delivery next tick, which at-least-once allows.
			w.log.Error("failed to mark listing as seen",
				zap.String("contract", listing.Contract), zap.Error(err))
			continue
		}
		metrics.NewListings.Inc()
		announced = append(announced, listing)
		w.log.Info("new listing announced",
			zap.String("contract", listing.Contract),
			zap.String("symbol", listing.TokenSymbol),
			zap.Float64("price_base", listing.PriceBase))
	}
	return announced, nil
}

// Run drives ticks on a fixed timer until ctx is cancelled. Ticks are
// strictly sequential; a slow tick delays the next one instead of
// overlapping with it.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("listing watcher started", zap.Duration("interval", w.interval))
	if _, err := w.Tick(ctx); err != nil {
		w.log.Warn("tick failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("listing watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Tick(ctx); err != nil {
				w.log.Warn("tick failed", zap.Error(err))
			}
		}
	}
}

// FormatSupply renders a numeric supply with thousands separators; values
// that do not parse pass through unchanged.
func FormatSupply(supply string) string {
	trimmed := strings.TrimSpace(supply)
	if trimmed == "" {
		return ""
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return trimmed
	}
	whole := int64(v)
	digits := strconv.FormatInt(whole, 10)
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}
