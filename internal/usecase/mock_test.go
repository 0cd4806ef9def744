package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/domain/repository"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn  func(ctx context.Context, video *model.Video) error
	listFn    func(ctx context.Context) ([]*model.Video, error)
	getByIDFn func(ctx context.Context, id uuid.UUID) (*model.Video, error)
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	presignUploadFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	existsFn        func(ctx context.Context, key string) (bool, error)
}

func (m *mockObjectStorage) PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.presignUploadFn != nil {
		return m.presignUploadFn(ctx, key, expiry)
	}
	return "http://minio:9000/videos/" + key + "?X-Amz-Signature=abc123", nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

// mockEventPublisher provides a configurable mock for EventPublisher.
type mockEventPublisher struct {
	publishIngestFn func(ctx context.Context, event repository.IngestEvent) error
	consumeIngestFn func(ctx context.Context, handler func(event repository.IngestEvent) error) error
}

func (m *mockEventPublisher) PublishIngest(ctx context.Context, event repository.IngestEvent) error {
	if m.publishIngestFn != nil {
		return m.publishIngestFn(ctx, event)
	}
	return nil
}

func (m *mockEventPublisher) ConsumeIngest(ctx context.Context, handler func(event repository.IngestEvent) error) error {
	if m.consumeIngestFn != nil {
		return m.consumeIngestFn(ctx, handler)
	}
	return nil
}

func (m *mockEventPublisher) Close() error {
	return nil
}

// mockVideoCache provides a configurable mock for cache.VideoCache.
type mockVideoCache struct {
	getFn            func(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	setFn            func(ctx context.Context, video *model.Video, ttl time.Duration) error
	getListFn        func(ctx context.Context) ([]*model.Video, error)
	setListFn        func(ctx context.Context, videos []*model.Video, ttl time.Duration) error
	invalidateListFn func(ctx context.Context) error
}

func (m *mockVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	if m.getFn != nil {
		return m.getFn(ctx, videoID)
	}
	return nil, nil
}

func (m *mockVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, video, ttl)
	}
	return nil
}

func (m *mockVideoCache) GetList(ctx context.Context) ([]*model.Video, error) {
	if m.getListFn != nil {
		return m.getListFn(ctx)
	}
	return nil, nil
}

func (m *mockVideoCache) SetList(ctx context.Context, videos []*model.Video, ttl time.Duration) error {
	if m.setListFn != nil {
		return m.setListFn(ctx, videos, ttl)
	}
	return nil
}

func (m *mockVideoCache) InvalidateList(ctx context.Context) error {
	if m.invalidateListFn != nil {
		return m.invalidateListFn(ctx)
	}
	return nil
}
