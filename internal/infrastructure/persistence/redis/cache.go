// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"short-drama-ai-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache 检索结果缓存（Read-Through + singleflight 防击穿）
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// AskCacheKey 按问题、场景、topK 与剧目限定生成缓存键。
// 问题内容做哈希，避免超长键与特殊字符。
func AskCacheKey(question, scene string, topK int, dramaID int64) string {
	sum := sha256.Sum256([]byte(question))
	return fmt.Sprintf("ask:%s:%d:%d:%s", scene, topK, dramaID, hex.EncodeToString(sum[:16]))
}

// GetOrLoadSafe Read-Through 读取：未命中时经 singleflight 合并并发加载。
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.AskCacheHits.WithLabelValues("hit").Inc()
		return val, nil
	}
	if err != redis.Nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.AskCacheHits.WithLabelValues("miss").Inc()

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		// 可能已被并发请求填充
		if val, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
			return val, nil
		}

		data, err := loader()
		if err != nil {
			return nil, err
		}

		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}

		// 缓存写入失败不影响返回结果
		_ = c.client.rdb.Set(ctx, key, bytes, ttl).Err()
		return bytes, nil
	})

	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]byte), nil
}

// Delete 删除缓存
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Delete",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))))
	defer span.End()

	return c.client.rdb.Del(ctx, keys...).Err()
}

// InvalidateAsk 清空全部检索缓存（建库发布后调用）。
func (c *Cache) InvalidateAsk(ctx context.Context) error {
	ctx, span := cacheTracer.Start(ctx, "cache.InvalidateAsk")
	defer span.End()

	iter := c.client.rdb.Scan(ctx, 0, "ask:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return err
	}
	if len(keys) > 0 {
		span.SetAttributes(attribute.Int("cache.invalidated_count", len(keys)))
		return c.client.rdb.Del(ctx, keys...).Err()
	}
	return nil
}
