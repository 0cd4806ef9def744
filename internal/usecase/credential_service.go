package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/domain/repository"
	"github.com/reelvault/reelvault/internal/infrastructure/metrics"
)

// ErrCredentialSigning is returned when the object store's signing
// authority fails to produce an upload credential.
var ErrCredentialSigning = errors.New("failed to sign upload credential")

// CredentialService mints short-lived upload credentials scoped to one
// direct-to-store upload each.
type CredentialService interface {
	// Issue mints a fresh credential for the verified subject.
	// Every call produces a new token and object key; credentials are
	// never reused or persisted.
	Issue(ctx context.Context, subjectID uuid.UUID) (*model.UploadCredential, error)
}

// CredentialServiceConfig holds configuration for CredentialService.
type CredentialServiceConfig struct {
	TTL time.Duration
}

// DefaultCredentialServiceConfig returns the default configuration.
func DefaultCredentialServiceConfig() CredentialServiceConfig {
	return CredentialServiceConfig{
		TTL: 15 * time.Minute,
	}
}

type credentialService struct {
	storage repository.ObjectStorage
	ttl     time.Duration
}

// NewCredentialService creates a new CredentialService instance.
func NewCredentialService(storage repository.ObjectStorage, cfg CredentialServiceConfig) CredentialService {
	return &credentialService{
		storage: storage,
		ttl:     cfg.TTL,
	}
}

// Issue asks the object store for a presigned PUT URL and wraps it as a
// credential. The store's own request signature is surfaced so callers can
// treat the store as the signing authority.
func (s *credentialService) Issue(ctx context.Context, subjectID uuid.UUID) (*model.UploadCredential, error) {
	token := uuid.NewString()
	key := s.uploadKey(subjectID, token)
	expire := time.Now().Add(s.ttl).Unix()

	uploadURL, err := s.storage.PresignUpload(ctx, key, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialSigning, err)
	}

	metrics.CredentialsIssuedTotal.Inc()

	return &model.UploadCredential{
		Token:     token,
		Signature: extractSignature(uploadURL),
		Expire:    expire,
		UploadURL: uploadURL,
		Key:       key,
	}, nil
}

// uploadKey names the object one credential is scoped to.
// Format: uploads/{subject_id}/{token}
func (s *credentialService) uploadKey(subjectID uuid.UUID, token string) string {
	return path.Join("uploads", subjectID.String(), token)
}

// extractSignature pulls the store's signature out of a presigned URL.
func extractSignature(presigned string) string {
	u, err := url.Parse(presigned)
	if err != nil {
		return ""
	}
	return u.Query().Get("X-Amz-Signature")
}
