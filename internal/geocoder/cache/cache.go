// Package cache keeps geocode results in Redis so repeated inputs skip the
// reference lookups. Misses are cached too, with a shorter TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"geocoder_backend/internal/geocoder"
	"geocoder_backend/platform/config"
	"geocoder_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "geocode:v1:"
	missValue = "-"
)

// Geocoder decorates a geocoder.Service with a read-through cache for
// Geocode. Other methods pass through.
type Geocoder struct {
	geocoder.Service
	rdb     *redis.Client
	ttl     time.Duration
	missTTL time.Duration
	log     *logger.Logger
}

var _ geocoder.Service = (*Geocoder)(nil)

// NewRedisClient connects to the Redis instance named by REDIS_URL.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// New wraps inner with a cache backed by rdb.
func New(inner geocoder.Service, rdb *redis.Client, cfg config.CacheConfig, log *logger.Logger) *Geocoder {
	return &Geocoder{
		Service: inner,
		rdb:     rdb,
		ttl:     cfg.GetGeocodeCacheTTL(),
		missTTL: cfg.GetGeocodeMissTTL(),
		log:     log,
	}
}

// Geocode returns a cached result for street when present, otherwise
// geocodes and stores the outcome. Redis failures fall back to the
// uncached path.
func (g *Geocoder) Geocode(ctx context.Context, street string) (*geocoder.Result, error) {
	key := Key(street)

	val, err := g.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if val == missValue {
			return nil, nil
		}
		var res geocoder.Result
		if err := json.Unmarshal([]byte(val), &res); err == nil {
			return &res, nil
		}
		g.log.WithContext(ctx).Warn("discarding unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		g.log.WithContext(ctx).Warn("geocode cache read failed", "error", err)
	}

	res, err := g.Service.Geocode(ctx, street)
	if err != nil {
		return nil, err
	}

	g.store(ctx, key, res)
	return res, nil
}

func (g *Geocoder) store(ctx context.Context, key string, res *geocoder.Result) {
	value := missValue
	ttl := g.missTTL
	if res != nil {
		data, err := json.Marshal(res)
		if err != nil {
			g.log.WithContext(ctx).Warn("geocode cache encode failed", "error", err)
			return
		}
		value = string(data)
		ttl = g.ttl
	}
	if ttl <= 0 {
		return
	}
	if err := g.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		g.log.WithContext(ctx).Warn("geocode cache write failed", "error", err)
	}
}

// Key normalises street into a cache key: case and runs of whitespace do
// not change the key.
func Key(street string) string {
	return keyPrefix + strings.Join(strings.Fields(strings.ToLower(street)), " ")
}
