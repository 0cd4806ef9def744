package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reelvault/reelvault/internal/domain/model"
)

// VideoCache defines the interface for caching video metadata.
// Implementations should handle serialization/deserialization transparently.
type VideoCache interface {
	// Get retrieves a video from cache by ID.
	// Returns nil, nil if the video is not found in cache (cache miss).
	Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	// Set stores a video in cache with the specified TTL.
	Set(ctx context.Context, video *model.Video, ttl time.Duration) error

	// GetList retrieves the cached full listing.
	// Returns nil, nil on cache miss.
	GetList(ctx context.Context) ([]*model.Video, error)

	// SetList stores the full listing with the specified TTL.
	SetList(ctx context.Context, videos []*model.Video, ttl time.Duration) error

	// InvalidateList drops the cached listing. Called after every create so
	// readers never miss a newly registered video.
	InvalidateList(ctx context.Context) error
}
