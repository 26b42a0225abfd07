package market

import (
	"context"

	"github.com/rs/zerolog"
)

// CachedProvider wraps a DataProvider with a candle cache and optional
// persistence. Cache hits skip the upstream fetch entirely; fresh data
// is cached and written through to the store.
type CachedProvider struct {
	inner  DataProvider
	cache  Cache
	store  CandleStore
	logger zerolog.Logger
}

// NewCachedProvider decorates a provider with caching and persistence.
// Both cache and store may be nil, leaving the provider pass-through.
func NewCachedProvider(inner DataProvider, cache Cache, store CandleStore, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		store:  store,
		logger: logger.With().Str("component", "cached_provider").Logger(),
	}
}

// FetchHistorical serves candles from cache when possible and falls
// back to the inner provider.
func (p *CachedProvider) FetchHistorical(ctx context.Context, symbol, period, interval string) ([]Candle, error) {
	if p.cache != nil {
		if candles, ok := p.cache.Get(ctx, symbol, interval); ok {
			return candles, nil
		}
	}

	candles, err := p.inner.FetchHistorical(ctx, symbol, period, interval)
	if err != nil || len(candles) == 0 {
		return candles, err
	}

	if p.cache != nil {
		p.cache.Set(ctx, symbol, interval, candles)
	}
	if p.store != nil {
		if err := p.store.UpsertCandles(ctx, symbol, interval, candles); err != nil {
			p.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist candles")
		}
	}

	return candles, nil
}

// GetCurrentPrice delegates to the inner provider; prices are never cached.
func (p *CachedProvider) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return p.inner.GetCurrentPrice(ctx, symbol)
}

var _ DataProvider = (*CachedProvider)(nil)
