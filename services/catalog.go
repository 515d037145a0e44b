package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-service/models"
	awspkg "storefront-service/pkg/aws"
)

// CatalogReader resolves product ids to the authoritative catalog entry.
// Unknown ids are absent from the returned map.
type CatalogReader interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// MetricsRecorder is the slice of the CloudWatch client the services use.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

// ProductCache stores catalog entries by id.
type ProductCache interface {
	GetMany(ctx context.Context, ids []string) (map[string]models.Product, error)
	SetMany(ctx context.Context, products map[string]models.Product, ttl time.Duration) error
}

const productKeyPrefix = "catalog:product:"

// RedisProductCache keeps one JSON value per product.
type RedisProductCache struct {
	client *redis.Client
}

func NewRedisProductCache(client *redis.Client) *RedisProductCache {
	return &RedisProductCache{client: client}
}

func (c *RedisProductCache) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKeyPrefix + id
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p models.Product
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			continue
		}
		out[ids[i]] = p
	}
	return out, nil
}

func (c *RedisProductCache) SetMany(ctx context.Context, products map[string]models.Product, ttl time.Duration) error {
	if len(products) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", id, err)
		}
		pipe.Set(ctx, productKeyPrefix+id, data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// CachedCatalog is a read-through cache in front of a CatalogReader. The
// cache is an optimization only: any cache error falls back to the reader.
type CachedCatalog struct {
	next    CatalogReader
	cache   ProductCache
	ttl     time.Duration
	metrics MetricsRecorder
	logger  *zap.Logger
}

func NewCachedCatalog(next CatalogReader, cache ProductCache, ttl time.Duration, metrics MetricsRecorder, logger *zap.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCatalog{next: next, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

func (c *CachedCatalog) FindByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	found, err := c.cache.GetMany(ctx, ids)
	if err != nil {
		c.logger.Warn("catalog cache read failed, using store", zap.Error(err))
		found = map[string]models.Product{}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.record(len(ids)-len(missing), len(missing))
	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := c.next.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetMany(ctx, fetched, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	for id, p := range fetched {
		found[id] = p
	}
	return found, nil
}

func (c *CachedCatalog) record(hits, misses int) {
	if c.metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if hits > 0 {
			_ = c.metrics.RecordValue(ctx, awspkg.MetricCacheHits, float64(hits), nil)
		}
		if misses > 0 {
			_ = c.metrics.RecordValue(ctx, awspkg.MetricCacheMisses, float64(misses), nil)
		}
	}()
}
