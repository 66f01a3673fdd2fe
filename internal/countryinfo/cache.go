package countryinfo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bluele/gcache"
	"github.com/redis/go-redis/v9"

	"passport-map/internal/logger"
	"passport-map/internal/metrics"
)

// Cache：资料缓存；读写失败一律视为未命中，不向上传播
type Cache interface {
	Get(ctx context.Context, code3 string) (Facts, bool)
	Set(ctx context.Context, code3 string, f Facts)
}

// MemoryCache：进程内 LRU + TTL
type MemoryCache struct {
	c gcache.Cache
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &MemoryCache{c: b.Build()}
}

func (m *MemoryCache) Get(_ context.Context, code3 string) (Facts, bool) {
	v, err := m.c.Get(code3)
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues("memory").Inc()
		return Facts{}, false
	}
	f, ok := v.(Facts)
	if ok {
		metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
	}
	return f, ok
}

func (m *MemoryCache) Set(_ context.Context, code3 string, f Facts) {
	_ = m.c.Set(code3, f)
}

// RedisCache：以 JSON 存储，键形如 passmap:facts:JPN
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "passmap:facts:"}
}

func (r *RedisCache) Get(ctx context.Context, code3 string) (Facts, bool) {
	b, err := r.rdb.Get(ctx, r.prefix+code3).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L().Debug("redis_get_error", "code3", code3, "err", err)
		}
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return Facts{}, false
	}
	var f Facts
	if err := json.Unmarshal(b, &f); err != nil {
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return Facts{}, false
	}
	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	return f, true
}

func (r *RedisCache) Set(ctx context.Context, code3 string, f Facts) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.prefix+code3, b, r.ttl).Err(); err != nil {
		logger.L().Debug("redis_set_error", "code3", code3, "err", err)
	}
}

// Tiered：先查本地再查 Redis，Redis 命中回填本地
type Tiered struct {
	Local  Cache
	Remote Cache
}

func (t Tiered) Get(ctx context.Context, code3 string) (Facts, bool) {
	if f, ok := t.Local.Get(ctx, code3); ok {
		return f, true
	}
	if t.Remote == nil {
		return Facts{}, false
	}
	f, ok := t.Remote.Get(ctx, code3)
	if ok {
		t.Local.Set(ctx, code3, f)
	}
	return f, ok
}

func (t Tiered) Set(ctx context.Context, code3 string, f Facts) {
	t.Local.Set(ctx, code3, f)
	if t.Remote != nil {
		t.Remote.Set(ctx, code3, f)
	}
}
