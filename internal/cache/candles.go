// Package cache provides a Redis read-through cache for candle fetches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"graduation-lab/internal/domain"
)

// DefaultTTL keeps one-minute candles no longer than one bucket.
const DefaultTTL = 60 * time.Second

const keyPrefix = "gradlab:candles"

// RedisClient wraps redis.Client.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// CandleCache serves candles from Redis and falls through to the wrapped
// source on a miss. Redis failures degrade to direct fetches.
type CandleCache struct {
	redis  *RedisClient
	source domain.CandleSource
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCandleCache wraps source. A non-positive ttl uses DefaultTTL.
func NewCandleCache(r *RedisClient, source domain.CandleSource, ttl time.Duration, logger zerolog.Logger) *CandleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CandleCache{
		redis:  r,
		source: source,
		ttl:    ttl,
		logger: logger.With().Str("component", "candle_cache").Logger(),
	}
}

// Candles implements domain.CandleSource.
func (c *CandleCache) Candles(ctx context.Context, tokenID string, chart domain.ChartType, count int, to time.Time) ([]domain.Candle, error) {
	key := Key(tokenID, chart, count, to)

	data, err := c.redis.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if candles, ok := decodeEntry(data, count); ok {
			return candles, nil
		}
		c.logger.Warn().Str("key", key).Msg("dropping invalid cache entry")
		if err := c.invalidate(ctx, key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache delete failed")
		}
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	candles, err := c.source.Candles(ctx, tokenID, chart, count, to)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(candles)
	if err != nil {
		return nil, fmt.Errorf("encode candles: %w", err)
	}
	if err := c.redis.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return candles, nil
}

func (c *CandleCache) invalidate(ctx context.Context, key string) error {
	return c.redis.client.Del(ctx, key).Err()
}

// decodeEntry accepts an entry holding at most count candles in strictly
// ascending time order.
func decodeEntry(data []byte, count int) ([]domain.Candle, bool) {
	var candles []domain.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, false
	}
	if count > 0 && len(candles) > count {
		return nil, false
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Time <= candles[i-1].Time {
			return nil, false
		}
	}
	return candles, true
}

// Key builds the cache key. The end time is truncated to the minute; a zero
// end time maps to "latest" so repeated live fetches share an entry until the TTL expires.
func Key(tokenID string, chart domain.ChartType, count int, to time.Time) string {
	end := "latest"
	if !to.IsZero() {
		end = fmt.Sprintf("%d", to.Truncate(time.Minute).Unix())
	}
	return fmt.Sprintf("%s:%s:%s:%d:%s", keyPrefix, chart, tokenID, count, end)
}
