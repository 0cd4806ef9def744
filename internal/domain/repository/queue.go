package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngestEvent announces that a video record has been persisted.
// Downstream consumers (notifications, audit) react asynchronously;
// nothing in the ingest path waits on them.
type IngestEvent struct {
	VideoID   uuid.UUID `json:"video_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPublisher defines the interface for publishing ingest events.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type EventPublisher interface {
	// PublishIngest sends an ingest event to the queue.
	PublishIngest(ctx context.Context, event IngestEvent) error

	// ConsumeIngest starts consuming ingest events from the queue.
	// The handler function is called for each received event.
	ConsumeIngest(ctx context.Context, handler func(event IngestEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
