package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/api/middleware"
	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/usecase"
)

type mockCredentialService struct {
	issueFn func(ctx context.Context, subjectID uuid.UUID) (*model.UploadCredential, error)
}

func (m *mockCredentialService) Issue(ctx context.Context, subjectID uuid.UUID) (*model.UploadCredential, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx, subjectID)
	}
	return nil, nil
}

func TestCredentialHandler_Issue(t *testing.T) {
	subject := uuid.New()

	tests := []struct {
		name           string
		withSubject    bool
		setupMock      func(m *mockCredentialService)
		wantStatusCode int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:        "issues fresh credential",
			withSubject: true,
			setupMock: func(m *mockCredentialService) {
				m.issueFn = func(ctx context.Context, subjectID uuid.UUID) (*model.UploadCredential, error) {
					return &model.UploadCredential{
						Token:     uuid.NewString(),
						Signature: "a1b2c3",
						Expire:    time.Now().Add(15 * time.Minute).Unix(),
						UploadURL: "http://minio:9000/videos/uploads/x?X-Amz-Signature=a1b2c3",
						Key:       "uploads/" + subjectID.String() + "/x",
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp CredentialResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Token == "" || resp.Signature == "" {
					t.Error("expected token and signature to be non-empty")
				}
				if resp.Expire <= time.Now().Unix() {
					t.Errorf("expected expiry in the future, got %d", resp.Expire)
				}
			},
		},
		{
			name:           "no verified subject",
			withSubject:    false,
			setupMock:      func(m *mockCredentialService) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "signing failure",
			withSubject: true,
			setupMock: func(m *mockCredentialService) {
				m.issueFn = func(ctx context.Context, subjectID uuid.UUID) (*model.UploadCredential, error) {
					return nil, usecase.ErrCredentialSigning
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCredentialService{}
			tt.setupMock(mock)
			h := NewCredentialHandler(mock)

			req := httptest.NewRequest(http.MethodGet, "/v1/upload-credential", nil)
			if tt.withSubject {
				req = req.WithContext(middleware.WithSubject(req.Context(), subject))
			}
			rec := httptest.NewRecorder()

			h.Issue(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Errorf("expected status %d, got %d", tt.wantStatusCode, rec.Code)
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, rec.Body.Bytes())
			}
		})
	}
}
