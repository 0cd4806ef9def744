package repository

import "errors"

var (
	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrNoVideos is returned by List when the store holds no records at all.
	// An empty listing is reported as not-found rather than an empty payload.
	ErrNoVideos = errors.New("no videos found")

	// ErrDuplicateVideo is returned when attempting to create a video that already exists.
	ErrDuplicateVideo = errors.New("video already exists")

	// ErrBucketNotFound is returned when the configured storage bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectNotFound is returned when a storage object does not exist.
	ErrObjectNotFound = errors.New("object not found")
)
