package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/domain/repository"
)

func TestCachedVideoService_GetVideo_CacheHit(t *testing.T) {
	video := &model.Video{ID: uuid.New(), Title: "cached"}

	delegateCalled := false
	repo := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) {
			delegateCalled = true
			return nil, repository.ErrVideoNotFound
		},
	}
	videoCache := &mockVideoCache{
		getFn: func(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
			return video, nil
		},
	}

	svc := NewCachedVideoService(NewVideoService(repo, &mockEventPublisher{}), videoCache, DefaultCachedVideoServiceConfig())

	got, err := svc.GetVideo(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("GetVideo() unexpected error: %v", err)
	}
	if got.ID != video.ID {
		t.Errorf("GetVideo() = %v, want %v", got.ID, video.ID)
	}
	if delegateCalled {
		t.Error("cache hit must not reach the repository")
	}
}

func TestCachedVideoService_GetVideo_CacheMissPopulatesCache(t *testing.T) {
	video := &model.Video{ID: uuid.New(), Title: "from db"}

	repo := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) {
			return video, nil
		},
	}

	var cached *model.Video
	videoCache := &mockVideoCache{
		setFn: func(ctx context.Context, v *model.Video, ttl time.Duration) error {
			cached = v
			return nil
		},
	}

	svc := NewCachedVideoService(NewVideoService(repo, &mockEventPublisher{}), videoCache, DefaultCachedVideoServiceConfig())

	got, err := svc.GetVideo(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("GetVideo() unexpected error: %v", err)
	}
	if got.ID != video.ID {
		t.Errorf("GetVideo() = %v, want %v", got.ID, video.ID)
	}
	if cached == nil || cached.ID != video.ID {
		t.Error("expected the record to be stored in cache after a miss")
	}
}

func TestCachedVideoService_GetVideo_CacheErrorFallsBack(t *testing.T) {
	video := &model.Video{ID: uuid.New()}

	repo := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) {
			return video, nil
		},
	}
	videoCache := &mockVideoCache{
		getFn: func(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
			return nil, errors.New("redis down")
		},
	}

	svc := NewCachedVideoService(NewVideoService(repo, &mockEventPublisher{}), videoCache, DefaultCachedVideoServiceConfig())

	got, err := svc.GetVideo(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("GetVideo() should fall back to the repository, got: %v", err)
	}
	if got.ID != video.ID {
		t.Errorf("GetVideo() = %v, want %v", got.ID, video.ID)
	}
}

func TestCachedVideoService_ListVideos_EmptyStoreNotCached(t *testing.T) {
	repo := &mockVideoRepository{
		listFn: func(ctx context.Context) ([]*model.Video, error) {
			return nil, repository.ErrNoVideos
		},
	}

	setListCalled := false
	videoCache := &mockVideoCache{
		setListFn: func(ctx context.Context, videos []*model.Video, ttl time.Duration) error {
			setListCalled = true
			return nil
		},
	}

	svc := NewCachedVideoService(NewVideoService(repo, &mockEventPublisher{}), videoCache, DefaultCachedVideoServiceConfig())

	_, err := svc.ListVideos(context.Background())
	if !errors.Is(err, repository.ErrNoVideos) {
		t.Errorf("ListVideos() error = %v, want %v", err, repository.ErrNoVideos)
	}
	if setListCalled {
		t.Error("an empty result must not be cached")
	}
}

func TestCachedVideoService_CreateVideo_InvalidatesListing(t *testing.T) {
	invalidated := false
	videoCache := &mockVideoCache{
		invalidateListFn: func(ctx context.Context) error {
			invalidated = true
			return nil
		},
	}

	svc := NewCachedVideoService(NewVideoService(&mockVideoRepository{}, &mockEventPublisher{}), videoCache, DefaultCachedVideoServiceConfig())

	_, err := svc.CreateVideo(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("CreateVideo() unexpected error: %v", err)
	}
	if !invalidated {
		t.Error("expected the listing cache to be invalidated after create")
	}
}

func TestCachedVideoService_CreateVideo_FailureSkipsInvalidation(t *testing.T) {
	invalidated := false
	videoCache := &mockVideoCache{
		invalidateListFn: func(ctx context.Context) error {
			invalidated = true
			return nil
		},
	}

	input := validInput()
	input.Title = ""

	svc := NewCachedVideoService(NewVideoService(&mockVideoRepository{}, &mockEventPublisher{}), videoCache, DefaultCachedVideoServiceConfig())

	if _, err := svc.CreateVideo(context.Background(), uuid.New(), input); err == nil {
		t.Fatal("expected validation error")
	}
	if invalidated {
		t.Error("failed create must not touch the cache")
	}
}
