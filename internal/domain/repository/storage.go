package repository

import (
	"context"
	"time"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
// Clients upload directly against presigned URLs, so the port only covers
// signing and existence checks.
type ObjectStorage interface {
	// PresignUpload asks the store's signing authority for a presigned PUT URL.
	// The URL is valid for the specified duration and scoped to one object key.
	PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)
}
