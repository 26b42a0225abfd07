// Package cache provides Redis-backed candle caching with an
// in-memory fallback when Redis is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nse-trading-engine/internal/market"
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// ttlForInterval maps candle intervals to cache lifetimes. Intraday
// series go stale fast, daily series survive half a day.
var ttlForInterval = map[string]time.Duration{
	"1m":  30 * time.Second,
	"5m":  2 * time.Minute,
	"15m": 5 * time.Minute,
	"30m": 10 * time.Minute,
	"1h":  30 * time.Minute,
	"4h":  2 * time.Hour,
	"1d":  12 * time.Hour,
}

const defaultTTL = 5 * time.Minute

type memoryEntry struct {
	candles   []market.Candle
	expiresAt time.Time
}

// CandleCache caches candle series keyed by symbol and interval. When
// Redis is down or disabled, a process-local map takes over with the
// same TTL semantics.
type CandleCache struct {
	client *redis.Client

	mu     sync.RWMutex
	memory map[string]memoryEntry

	logger zerolog.Logger
}

var _ market.Cache = (*CandleCache)(nil)

// NewCandleCache connects to Redis when enabled. A failed connection
// degrades to memory-only caching rather than erroring out.
func NewCandleCache(cfg RedisConfig, logger zerolog.Logger) *CandleCache {
	cc := &CandleCache{
		memory: make(map[string]memoryEntry),
		logger: logger.With().Str("component", "candle_cache").Logger(),
	}

	if !cfg.Enabled {
		cc.logger.Info().Msg("Redis disabled, using in-memory cache")
		return cc
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		cc.logger.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		return cc
	}

	cc.client = client
	cc.logger.Info().Str("address", cfg.Address).Msg("Redis connected")
	return cc
}

func cacheKey(symbol, interval string) string {
	return fmt.Sprintf("candles:%s:%s", symbol, interval)
}

func ttlFor(interval string) time.Duration {
	if ttl, ok := ttlForInterval[interval]; ok {
		return ttl
	}
	return defaultTTL
}

// Get returns the cached series for the symbol and interval, if fresh.
func (cc *CandleCache) Get(ctx context.Context, symbol, interval string) ([]market.Candle, bool) {
	key := cacheKey(symbol, interval)

	if cc.client != nil {
		data, err := cc.client.Get(ctx, key).Bytes()
		if err == nil {
			var candles []market.Candle
			if jerr := json.Unmarshal(data, &candles); jerr == nil {
				return candles, true
			}
		} else if err != redis.Nil {
			cc.logger.Debug().Err(err).Str("key", key).Msg("Redis get failed")
		}
	}

	cc.mu.RLock()
	entry, ok := cc.memory[key]
	cc.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.candles, true
}

// Set stores the series under the interval's TTL in both layers.
func (cc *CandleCache) Set(ctx context.Context, symbol, interval string, candles []market.Candle) {
	key := cacheKey(symbol, interval)
	ttl := ttlFor(interval)

	if cc.client != nil {
		data, err := json.Marshal(candles)
		if err == nil {
			if err := cc.client.Set(ctx, key, data, ttl).Err(); err != nil {
				cc.logger.Debug().Err(err).Str("key", key).Msg("Redis set failed")
			}
		}
	}

	cc.mu.Lock()
	cc.memory[key] = memoryEntry{candles: candles, expiresAt: time.Now().Add(ttl)}
	cc.mu.Unlock()
}

// Invalidate removes a cached series from both layers.
func (cc *CandleCache) Invalidate(ctx context.Context, symbol, interval string) {
	key := cacheKey(symbol, interval)
	if cc.client != nil {
		if err := cc.client.Del(ctx, key).Err(); err != nil {
			cc.logger.Debug().Err(err).Str("key", key).Msg("Redis del failed")
		}
	}
	cc.mu.Lock()
	delete(cc.memory, key)
	cc.mu.Unlock()
}

// Close releases the Redis connection.
func (cc *CandleCache) Close() error {
	if cc.client != nil {
		return cc.client.Close()
	}
	return nil
}
