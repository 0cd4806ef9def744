package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/domain/repository"
)

// CreateVideoInput contains the descriptive fields for registering a video.
// The locators come from a completed direct-to-store upload.
type CreateVideoInput struct {
	Title          string
	Description    string
	VideoURL       string
	ThumbnailURL   string
	Transformation string
}

// VideoService defines the interface for video metadata business logic.
type VideoService interface {
	// CreateVideo registers a video for the verified subject.
	// The caller must have passed the strict auth check first.
	CreateVideo(ctx context.Context, subjectID uuid.UUID, input CreateVideoInput) (*model.Video, error)

	// ListVideos retrieves all registered videos, newest first.
	// Returns repository.ErrNoVideos when the store is empty.
	ListVideos(ctx context.Context) ([]*model.Video, error)

	// GetVideo retrieves video information by ID.
	GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
}

type videoService struct {
	repo   repository.VideoRepository
	events repository.EventPublisher
}

// NewVideoService creates a new VideoService instance.
// events may be nil when no broker is configured.
func NewVideoService(repo repository.VideoRepository, events repository.EventPublisher) VideoService {
	return &videoService{
		repo:   repo,
		events: events,
	}
}

// CreateVideo validates the descriptive fields, persists the record, and
// announces it. The record write is a single atomic insert; the announcement
// is best-effort and never fails an already-persisted record.
func (s *videoService) CreateVideo(ctx context.Context, subjectID uuid.UUID, input CreateVideoInput) (*model.Video, error) {
	video, err := model.NewVideo(
		subjectID,
		input.Title,
		input.Description,
		input.VideoURL,
		input.ThumbnailURL,
		input.Transformation,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	if s.events != nil {
		event := repository.IngestEvent{
			VideoID:   video.ID,
			UserID:    video.UserID,
			Title:     video.Title,
			VideoURL:  video.VideoURL,
			CreatedAt: video.CreatedAt,
		}
		if err := s.events.PublishIngest(ctx, event); err != nil {
			slog.Warn("failed to publish ingest event",
				"video_id", video.ID,
				"error", err,
			)
		}
	}

	return video, nil
}

// ListVideos retrieves all videos, newest first.
func (s *videoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	return s.repo.List(ctx)
}

// GetVideo retrieves video information by ID.
func (s *videoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	return s.repo.GetByID(ctx, videoID)
}
