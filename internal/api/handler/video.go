package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/api/middleware"
	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/domain/repository"
	"github.com/reelvault/reelvault/internal/usecase"
)

// Request/Response types

type CreateVideoRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	VideoURL       string `json:"videoUrl"`
	ThumbnailURL   string `json:"thumbnailUrl"`
	Transformation string `json:"transformation"`
}

type VideoResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	VideoURL       string `json:"videoUrl"`
	ThumbnailURL   string `json:"thumbnailUrl"`
	Transformation string `json:"transformation"`
	CreatedAt      string `json:"created_at"`
}

// VideoHandler handles video metadata HTTP requests.
type VideoHandler struct {
	svc usecase.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// Create handles POST /v1/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.Subject(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid identity token")
		return
	}

	var req CreateVideoRequest
	if err := Decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	video, err := h.svc.CreateVideo(r.Context(), subject, usecase.CreateVideoInput{
		Title:          req.Title,
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		ThumbnailURL:   req.ThumbnailURL,
		Transformation: req.Transformation,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, toVideoResponse(video))
}

// List handles GET /v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.ListVideos(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, toVideoResponse(v))
	}
	JSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID must be a valid UUID")
		return
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNoVideos):
		Error(w, http.StatusNotFound, "no_videos", "No videos found")
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	case errors.Is(err, repository.ErrDuplicateVideo):
		Error(w, http.StatusConflict, "duplicate_video", "Video already exists")
	case errors.Is(err, model.ErrIncompleteVideo):
		Error(w, http.StatusBadRequest, "incomplete_video", "All video details are required")
	case errors.Is(err, model.ErrTitleTooLong):
		Error(w, http.StatusBadRequest, "invalid_title", "Title exceeds maximum length")
	case errors.Is(err, model.ErrInvalidUserID):
		Error(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid identity token")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toVideoResponse(v *model.Video) VideoResponse {
	return VideoResponse{
		ID:             v.ID.String(),
		UserID:         v.UserID.String(),
		Title:          v.Title,
		Description:    v.Description,
		VideoURL:       v.VideoURL,
		ThumbnailURL:   v.ThumbnailURL,
		Transformation: v.Transformation,
		CreatedAt:      v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
