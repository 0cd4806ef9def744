package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/infrastructure/metrics"
)

const (
	// videoCacheKeyPrefix is the prefix for video cache keys in Redis.
	videoCacheKeyPrefix = "video:"

	// videoListKey is the key holding the full newest-first listing.
	videoListKey = "videos:all"
)

// videoJSON is the JSON representation of a Video for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type videoJSON struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	VideoURL       string `json:"video_url"`
	ThumbnailURL   string `json:"thumbnail_url"`
	Transformation string `json:"transformation"`
	CreatedAt      string `json:"created_at"`
}

// RedisVideoCache implements VideoCache using Redis as the backing store.
type RedisVideoCache struct {
	client *redis.Client
}

// NewRedisVideoCache creates a new Redis-backed video cache.
func NewRedisVideoCache(client *redis.Client) *RedisVideoCache {
	return &RedisVideoCache{
		client: client,
	}
}

// Get retrieves a video from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	key := c.buildKey(videoID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil // Cache miss
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	video, err := deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize video: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return video, nil
}

// Set stores a video in Redis cache with the specified TTL.
func (c *RedisVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	key := c.buildKey(video.ID)

	data, err := json.Marshal(toJSON(video))
	if err != nil {
		return fmt.Errorf("serialize video: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// GetList retrieves the cached listing.
// Returns nil, nil on cache miss.
func (c *RedisVideoCache) GetList(ctx context.Context) ([]*model.Video, error) {
	data, err := c.client.Get(ctx, videoListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var items []videoJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("deserialize listing: %w", err)
	}

	videos := make([]*model.Video, 0, len(items))
	for _, item := range items {
		video, err := fromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("deserialize listing entry: %w", err)
		}
		videos = append(videos, video)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return videos, nil
}

// SetList stores the full listing with the specified TTL.
func (c *RedisVideoCache) SetList(ctx context.Context, videos []*model.Video, ttl time.Duration) error {
	items := make([]videoJSON, 0, len(videos))
	for _, video := range videos {
		items = append(items, toJSON(video))
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serialize listing: %w", err)
	}

	if err := c.client.Set(ctx, videoListKey, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// InvalidateList drops the cached listing.
func (c *RedisVideoCache) InvalidateList(ctx context.Context) error {
	if err := c.client.Del(ctx, videoListKey).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// buildKey constructs the Redis key for a video.
func (c *RedisVideoCache) buildKey(videoID uuid.UUID) string {
	return videoCacheKeyPrefix + videoID.String()
}

func toJSON(video *model.Video) videoJSON {
	return videoJSON{
		ID:             video.ID.String(),
		UserID:         video.UserID.String(),
		Title:          video.Title,
		Description:    video.Description,
		VideoURL:       video.VideoURL,
		ThumbnailURL:   video.ThumbnailURL,
		Transformation: video.Transformation,
		CreatedAt:      video.CreatedAt.Format(time.RFC3339Nano),
	}
}

func fromJSON(v videoJSON) (*model.Video, error) {
	id, err := uuid.Parse(v.ID)
	if err != nil {
		return nil, fmt.Errorf("parse video ID: %w", err)
	}

	userID, err := uuid.Parse(v.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user ID: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &model.Video{
		ID:             id,
		UserID:         userID,
		Title:          v.Title,
		Description:    v.Description,
		VideoURL:       v.VideoURL,
		ThumbnailURL:   v.ThumbnailURL,
		Transformation: v.Transformation,
		CreatedAt:      createdAt,
	}, nil
}

func deserialize(data []byte) (*model.Video, error) {
	var v videoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return fromJSON(v)
}

// Compile-time verification that RedisVideoCache implements VideoCache.
var _ VideoCache = (*RedisVideoCache)(nil)
