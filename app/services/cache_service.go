package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// patternBatchSize is both the SCAN count hint and the DEL batch size
const patternBatchSize = 100

// CacheService is a JSON cache-aside helper over redis.
//
// A nil redis client disables caching: reads miss and writes are no-ops. Redis
// failures are logged and reported as misses so callers always fall back to the
// database.
type CacheService interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeletePattern(ctx context.Context, pattern string) int
	// TryLock takes a short lived lock. The returned release func is never nil.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool)
}

type redisCacheService struct {
	rc         *redis.Client
	prefix     string
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewCacheService wraps a redis client. prefix is prepended to every key.
func NewCacheService(rc *redis.Client, prefix string, defaultTTL time.Duration, logger *zap.Logger) CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	if defaultTTL <= 0 {
		defaultTTL = utils.CacheTTL
	}
	return &redisCacheService{rc: rc, prefix: prefix, defaultTTL: defaultTTL, logger: logger}
}

// GenerateKey builds a deterministic key from a prefix and the non-nil params
// sorted by name, e.g. "products:page=1:size=100".
func GenerateKey(prefix string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prefix)
	for _, k := range names {
		fmt.Fprintf(&b, ":%s=%v", k, params[k])
	}
	return b.String()
}

func (c *redisCacheService) Enabled() bool {
	return c.rc != nil
}

func (c *redisCacheService) Get(ctx context.Context, key string, dest any) bool {
	if c.rc == nil {
		return false
	}

	bs, err := c.rc.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(bs, dest); err != nil {
		c.logger.Warn("Cache entry is corrupt, dropping", zap.String("key", key), zap.Error(err))
		_ = c.rc.Del(ctx, c.prefix+key).Err()
		return false
	}
	return true
}

func (c *redisCacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	bs, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache value is not serialisable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rc.Set(ctx, c.prefix+key, bs, ttl).Err(); err != nil {
		c.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisCacheService) Delete(ctx context.Context, keys ...string) {
	if c.rc == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.rc.Del(ctx, full...).Err(); err != nil {
		c.logger.Warn("Cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// DeletePattern removes every key matching a glob pattern using SCAN, never KEYS.
// The scan completes before the first DEL.
func (c *redisCacheService) DeletePattern(ctx context.Context, pattern string) int {
	if c.rc == nil {
		return 0
	}

	var keys []string
	iter := c.rc.Scan(ctx, 0, c.prefix+pattern, patternBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Cache scan failed", zap.String("pattern", pattern), zap.Error(err))
		return 0
	}

	deleted := 0
	for start := 0; start < len(keys); start += patternBatchSize {
		end := min(start+patternBatchSize, len(keys))
		n, err := c.rc.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			c.logger.Warn("Cache pattern delete failed", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		deleted += int(n)
	}
	return deleted
}

func (c *redisCacheService) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	noop := func() {}
	if c.rc == nil {
		return noop, true
	}

	lockKey := c.prefix + "lock:" + key
	ok, err := c.rc.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		c.logger.Warn("Cache lock failed", zap.String("key", key), zap.Error(err))
		return noop, false
	}
	if !ok {
		return noop, false
	}
	return func() {
		_ = c.rc.Del(context.Background(), lockKey).Err()
	}, true
}
