package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Video represents one registered media asset. The binary payload lives in
// the object store; the record only carries locators and descriptive fields.
// Records are write-once: there is no update or delete path.
type Video struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Title          string
	Description    string
	VideoURL       string
	ThumbnailURL   string
	Transformation string
	CreatedAt      time.Time
}

var (
	ErrInvalidUserID   = errors.New("user ID cannot be nil")
	ErrIncompleteVideo = errors.New("incomplete video details")
	ErrTitleTooLong    = errors.New("title exceeds maximum length of 255 characters")
)

// maxTitleLength matches the width of the videos.title column.
const maxTitleLength = 255

// NewVideo builds a Video from a verified subject and its descriptive fields.
// Every descriptive field must be non-empty.
func NewVideo(userID uuid.UUID, title, description, videoURL, thumbnailURL, transformation string) (*Video, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if title == "" || description == "" || videoURL == "" || thumbnailURL == "" || transformation == "" {
		return nil, ErrIncompleteVideo
	}
	if len(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}

	return &Video{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		Description:    description,
		VideoURL:       videoURL,
		ThumbnailURL:   thumbnailURL,
		Transformation: transformation,
		CreatedAt:      time.Now(),
	}, nil
}
