package handler

import (
	"net/http"

	"github.com/reelvault/reelvault/internal/api/middleware"
	"github.com/reelvault/reelvault/internal/usecase"
)

type CredentialResponse struct {
	Token     string `json:"token"`
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

// CredentialHandler issues short-lived upload credentials.
type CredentialHandler struct {
	svc usecase.CredentialService
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(svc usecase.CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// Issue handles GET /v1/upload-credential
func (h *CredentialHandler) Issue(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.Subject(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid identity token")
		return
	}

	cred, err := h.svc.Issue(r.Context(), subject)
	if err != nil {
		Error(w, http.StatusInternalServerError, "credential_error", "Could not generate upload credentials")
		return
	}

	JSON(w, http.StatusOK, CredentialResponse{
		Token:     cred.Token,
		Signature: cred.Signature,
		Expire:    cred.Expire,
		UploadURL: cred.UploadURL,
		Key:       cred.Key,
	})
}
