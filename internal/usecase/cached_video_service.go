package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/infrastructure/cache"
	"github.com/reelvault/reelvault/internal/infrastructure/metrics"
)

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// CacheTTL is the TTL for cached video metadata.
	CacheTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// cachedVideoService wraps VideoService with caching capabilities.
// It implements the decorator pattern to add caching without modifying the original service.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
func NewCachedVideoService(
	delegate VideoService,
	videoCache cache.VideoCache,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate: delegate,
		cache:    videoCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// CreateVideo delegates to the underlying service and drops the cached
// listing so readers observe the new record immediately.
func (s *cachedVideoService) CreateVideo(ctx context.Context, subjectID uuid.UUID, input CreateVideoInput) (*model.Video, error) {
	video, err := s.delegate.CreateVideo(ctx, subjectID, input)
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateList(ctx); err != nil {
		// Cache invalidation failure is non-critical; the listing expires by TTL.
		slog.Warn("failed to invalidate listing cache on create",
			"video_id", video.ID,
			"error", err,
		)
	}

	return video, nil
}

// ListVideos retrieves the listing with caching and singleflight
// stampede protection.
func (s *cachedVideoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	result, err, shared := s.sfGroup.Do("list", func() (any, error) {
		return s.listWithCache(ctx)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	return result.([]*model.Video), nil
}

// GetVideo retrieves video information with caching.
// Uses singleflight to prevent cache stampede on concurrent requests for the same video.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	key := videoID.String()
	result, err, shared := s.sfGroup.Do(key, func() (any, error) {
		return s.getVideoWithCache(ctx, videoID)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	return result.(*model.Video), nil
}

// getVideoWithCache implements the cache-aside pattern.
func (s *cachedVideoService) getVideoWithCache(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.cache.Get(ctx, videoID)
	if err != nil {
		// Log cache error but continue to database
		slog.Warn("cache get failed, falling back to database",
			"video_id", videoID,
			"error", err,
		)
	}

	if video != nil {
		return video, nil // Cache hit
	}

	video, err = s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, video, s.cacheTTL); err != nil {
		slog.Warn("failed to cache video",
			"video_id", videoID,
			"error", err,
		)
	}

	return video, nil
}

// listWithCache applies the same cache-aside pattern to the listing.
// An empty store is an error result and is never cached.
func (s *cachedVideoService) listWithCache(ctx context.Context) ([]*model.Video, error) {
	videos, err := s.cache.GetList(ctx)
	if err != nil {
		slog.Warn("listing cache get failed, falling back to database",
			"error", err,
		)
	}

	if videos != nil {
		return videos, nil
	}

	videos, err = s.delegate.ListVideos(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetList(ctx, videos, s.cacheTTL); err != nil {
		slog.Warn("failed to cache listing",
			"error", err,
		)
	}

	return videos, nil
}
