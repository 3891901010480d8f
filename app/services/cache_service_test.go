package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return NewCacheService(rc, "bhs", 10*time.Minute, zap.NewNop()), mr
}

type cachedPage struct {
	Items []string `json:"items"`
	Total int64    `json:"total"`
}

func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		params map[string]any
		want   string
	}{
		{name: "no params", prefix: "store_products:1", want: "store_products:1"},
		{name: "sorted params", prefix: "products", params: map[string]any{"size": 100, "page": 1}, want: "products:page=1:size=100"},
		{name: "nil params dropped", prefix: "p", params: map[string]any{"q": nil, "a": "x"}, want: "p:a=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateKey(tt.prefix, tt.params))
		})
	}
}

func TestCacheService_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	var got cachedPage
	assert.False(t, cache.Get(ctx, "store_products:s1", &got))

	cache.Set(ctx, "store_products:s1", cachedPage{Items: []string{"tea"}, Total: 1}, 30*time.Minute)
	assert.True(t, mr.Exists("bhs:store_products:s1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("bhs:store_products:s1"))

	require.True(t, cache.Get(ctx, "store_products:s1", &got))
	assert.Equal(t, []string{"tea"}, got.Items)
	assert.Equal(t, int64(1), got.Total)

	cache.Set(ctx, "default_ttl", 1, 0)
	assert.Equal(t, 10*time.Minute, mr.TTL("bhs:default_ttl"))

	cache.Delete(ctx, "store_products:s1")
	assert.False(t, cache.Get(ctx, "store_products:s1", &got))
}

func TestCacheService_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set("bhs:broken", "{not json"))
	var got cachedPage
	assert.False(t, cache.Get(ctx, "broken", &got))
	assert.False(t, mr.Exists("bhs:broken"))
}

func TestCacheService_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	for i := 0; i < 250; i++ {
		cache.Set(ctx, fmt.Sprintf("store_products:%d", i), i, time.Minute)
	}
	cache.Set(ctx, "other", 1, time.Minute)

	assert.Equal(t, 250, cache.DeletePattern(ctx, "store_products:*"))
	assert.True(t, mr.Exists("bhs:other"))
	assert.Len(t, mr.Keys(), 1)
	assert.Zero(t, cache.DeletePattern(ctx, "store_products:*"))
}

func TestCacheService_DeletePatternExactBatches(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	for i := 0; i < 2*patternBatchSize; i++ {
		cache.Set(ctx, fmt.Sprintf("categories:%d", i), i, time.Minute)
	}

	assert.Equal(t, 2*patternBatchSize, cache.DeletePattern(ctx, "categories:*"))
	assert.Empty(t, mr.Keys())
}

func TestCacheService_RedisDownIsMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	cache.Set(ctx, "k", 1, time.Minute)
	mr.Close()

	var v int
	assert.False(t, cache.Get(ctx, "k", &v))
	assert.Zero(t, cache.DeletePattern(ctx, "*"))
}

func TestCacheService_TryLock(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	release, ok := cache.TryLock(ctx, "warmup:s1", time.Second)
	require.True(t, ok)

	_, ok = cache.TryLock(ctx, "warmup:s1", time.Second)
	assert.False(t, ok)

	release()
	_, ok = cache.TryLock(ctx, "warmup:s1", time.Second)
	assert.True(t, ok)
}

func TestCacheService_Disabled(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, "", time.Minute, nil)

	assert.False(t, cache.Enabled())
	cache.Set(ctx, "k", 1, 0)
	var v int
	assert.False(t, cache.Get(ctx, "k", &v))
	assert.Zero(t, cache.DeletePattern(ctx, "*"))
	release, ok := cache.TryLock(ctx, "k", time.Second)
	assert.True(t, ok)
	release()
}
