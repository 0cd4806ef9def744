package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/reelvault/reelvault/internal/domain/model"
)

// VideoRepository defines the interface for video metadata persistence.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
// Records are write-once: no update or delete operations exist.
type VideoRepository interface {
	// Create persists a new video record.
	// Returns ErrDuplicateVideo if the ID already exists.
	Create(ctx context.Context, video *model.Video) error

	// List retrieves all video records ordered by creation time, newest first.
	// Returns ErrNoVideos when the store is empty.
	List(ctx context.Context) ([]*model.Video, error)

	// GetByID retrieves a video record by its unique identifier.
	// Returns nil and ErrVideoNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
}
