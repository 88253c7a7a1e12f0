package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/observability/metrics"
)

// Cached wraps a Geocoder with a Redis cache keyed by normalized query.
// Only successful resolutions are cached; provider failures fall through on
// every call so transient outages recover.
type Cached struct {
	inner  Geocoder
	client *redis.Client
	ttl    time.Duration
}

func NewCached(inner Geocoder, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{inner: inner, client: client, ttl: ttl}
}

func cacheKey(query string) string {
	return "geocode:" + NormalizeQuery(query)
}

func (c *Cached) Geocode(ctx context.Context, query string) (*Result, error) {
	key := cacheKey(query)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var cached Result
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			metrics.IncGeocodeCacheHit()
			return &cached, nil
		}
	}
	metrics.IncGeocodeCacheMiss()

	result, err := c.inner.Geocode(ctx, query)
	if err != nil || result == nil {
		return result, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.Log.WithError(err).WithField("query", query).Warn("Failed to cache geocode result")
		}
	}
	return result, nil
}
