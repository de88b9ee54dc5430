package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zerokey/models"
	"zerokey/providers"
	"zerokey/repository"

	"github.com/google/uuid"
)

// ErrInvalidName indicates a display name that normalizes to an empty slug
var ErrInvalidName = errors.New("invalid credential name")

// Service implements the credential vault: provider detection, slug
// normalization, unified-key derivation, and encrypted persistence.
type Service struct {
	repo   repository.RepositoryInterface
	crypto *Crypto
}

// NewService creates a vault Service
func NewService(repo repository.RepositoryInterface, crypto *Crypto) *Service {
	return &Service{repo: repo, crypto: crypto}
}

// Crypto exposes the secret-key material holder for collaborators that
// decrypt credential fields (the proxy dispatcher).
func (s *Service) Crypto() *Crypto {
	return s.crypto
}

// Create stores a new credential. The provider is auto-detected from the
// raw secret's prefix; the unified key is derived from provider and name
// slug and revealed in full exactly once, in the returned summary.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name, rawSecret string, expiresAt *time.Time) (*models.CredentialSummary, error) {
	provider, err := providers.Detect(rawSecret)
	if err != nil {
		return nil, err
	}

	providerSlug := Slugify(provider)
	nameSlug := Slugify(name)
	if nameSlug == "" {
		return nil, fmt.Errorf("%w: %q normalizes to an empty slug", ErrInvalidName, name)
	}

	unified := s.crypto.DeriveUnifiedKey(providerSlug, nameSlug)

	encryptedKey, err := s.crypto.EncryptString(rawSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt secret: %w", err)
	}
	encryptedUnified, err := s.crypto.EncryptString(unified)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt unified key: %w", err)
	}

	cred := &models.Credential{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Provider:         providerSlug,
		Name:             name,
		NameSlug:         nameSlug,
		EncryptedKey:     encryptedKey,
		EncryptedUnified: encryptedUnified,
		UnifiedEndpoint:  UnifiedEndpoint(providerSlug, nameSlug),
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.CreateCredential(ctx, cred); err != nil {
		return nil, err
	}

	return &models.CredentialSummary{
		ID:              cred.ID,
		Provider:        cred.Provider,
		Name:            cred.Name,
		APIKey:          MaskSecret(rawSecret),
		UnifiedAPIKey:   unified, // full reveal, creation only
		UnifiedEndpoint: cred.UnifiedEndpoint,
		ExpiresAt:       cred.ExpiresAt,
		CreatedAt:       cred.CreatedAt,
	}, nil
}

// List returns the owner's credentials newest first, with both secrets
// masked. The unified key is only ever shown in full at creation.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]models.CredentialSummary, error) {
	creds, err := s.repo.ListCredentials(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CredentialSummary, 0, len(creds))
	for _, c := range creds {
		rawSecret, err := s.crypto.DecryptString(c.EncryptedKey)
		if err != nil {
			return nil, fmt.Errorf("credential %s: %w", c.ID, err)
		}
		unified, err := s.crypto.DecryptString(c.EncryptedUnified)
		if err != nil {
			return nil, fmt.Errorf("credential %s: %w", c.ID, err)
		}

		summaries = append(summaries, models.CredentialSummary{
			ID:              c.ID,
			Provider:        c.Provider,
			Name:            c.Name,
			APIKey:          MaskSecret(rawSecret),
			UnifiedAPIKey:   MaskSecret(unified),
			UnifiedEndpoint: c.UnifiedEndpoint,
			ExpiresAt:       c.ExpiresAt,
			CreatedAt:       c.CreatedAt,
		})
	}

	return summaries, nil
}

// Delete removes a credential and cascades its usage records
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.DeleteCredential(ctx, ownerID, id)
}

// ResolveByName finds a credential by provider and name slug. A nil
// ownerID performs the anonymous lookup used by unified dispatch.
func (s *Service) ResolveByName(ctx context.Context, provider, nameSlug string, ownerID *uuid.UUID) (*models.Credential, error) {
	return s.repo.GetCredentialByName(ctx, Slugify(provider), Slugify(nameSlug), ownerID)
}

// ResolveDefault finds the owner's newest credential for a provider
func (s *Service) ResolveDefault(ctx context.Context, ownerID uuid.UUID, provider string) (*models.Credential, error) {
	return s.repo.GetLatestCredential(ctx, ownerID, Slugify(provider))
}

// Get retrieves one credential scoped to its owner
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Credential, error) {
	return s.repo.GetCredential(ctx, ownerID, id)
}

// UnifiedEndpoint is the anonymous dispatch path for a credential
func UnifiedEndpoint(providerSlug, nameSlug string) string {
	return "/proxy/u/" + providerSlug + "/" + nameSlug
}
