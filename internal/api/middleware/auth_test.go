package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticate(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	subject := uuid.New()

	validToken, err := verifier.Sign(subject, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	expiredToken, err := verifier.Sign(subject, -time.Hour)
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	foreign := auth.NewVerifier("other-secret")
	tamperedToken, err := foreign.Sign(subject, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign foreign token: %v", err)
	}

	tests := []struct {
		name       string
		setRequest func(r *http.Request)
		wantStatus int
		wantNext   bool
	}{
		{
			name: "valid token via cookie",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: validToken})
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name: "valid token via bearer header",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+validToken)
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing token",
			setRequest: func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: expiredToken})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "tampered token",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: tamperedToken})
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				got, ok := Subject(r.Context())
				if !ok {
					t.Error("expected verified subject in context")
				}
				if got != subject {
					t.Errorf("subject = %v, want %v", got, subject)
				}
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/videos", nil)
			tt.setRequest(req)
			rec := httptest.NewRecorder()

			Authenticate(verifier, discardLogger())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if nextCalled != tt.wantNext {
				t.Errorf("next called = %v, want %v", nextCalled, tt.wantNext)
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	validToken, err := verifier.Sign(uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	// A token signed with a different secret still passes the weak check.
	foreign := auth.NewVerifier("another-secret")
	foreignToken, err := foreign.Sign(uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("failed to sign foreign token: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "valid token", token: validToken, wantStatus: http.StatusOK},
		{name: "unverified but present token", token: foreignToken, wantStatus: http.StatusOK},
		{name: "missing token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "malformed token", token: "opaque", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

			req := httptest.NewRequest(http.MethodGet, "/v1/videos", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.token})
			}
			rec := httptest.NewRecorder()

			RequireToken(discardLogger())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
