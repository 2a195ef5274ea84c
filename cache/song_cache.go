package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SplitTrackFM/model"

	"github.com/redis/go-redis/v9"
)

// 缓存条目的最长存活时间；记录本身更早过期时取剩余寿命
const songCacheTTL = time.Hour

// SongCache 歌曲元数据的读穿缓存，减少对存储网络的重复读取。
// 缓存未命中或Redis不可用都不是错误，调用方直接回源。
type SongCache struct {
	client *redis.Client
}

// NewSongCache 基于已连接的Redis客户端创建缓存；client 为 nil 时
// 所有操作都是空操作
func NewSongCache(client *redis.Client) *SongCache {
	return &SongCache{client: client}
}

func songCacheKey(entityKey string) string {
	return fmt.Sprintf("song:meta:%s", entityKey)
}

// Get 读取缓存的元数据，未命中返回 (nil, nil)
func (c *SongCache) Get(ctx context.Context, entityKey string) (*model.SongMetadata, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, songCacheKey(entityKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached song metadata: %w", err)
	}

	var m model.SongMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		// 缓存内容坏了就当未命中，顺手清掉
		c.client.Del(ctx, songCacheKey(entityKey))
		return nil, nil
	}

	return &m, nil
}

// Set 写入缓存，TTL不超过记录的剩余寿命
func (c *SongCache) Set(ctx context.Context, m *model.SongMetadata) error {
	if c == nil || c.client == nil || m == nil || m.EntityKey == "" {
		return nil
	}

	remaining := time.Until(time.UnixMilli(m.ExpiresAt))
	if remaining <= 0 {
		return nil
	}

	ttl := songCacheTTL
	if remaining < ttl {
		ttl = remaining
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal song metadata for cache: %w", err)
	}

	if err := c.client.Set(ctx, songCacheKey(m.EntityKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache song metadata: %w", err)
	}

	return nil
}
