package repository

import (
	"context"

	"zerokey/models"

	"github.com/google/uuid"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error
	Migrate(ctx context.Context) error

	// Owners
	CreateOwner(ctx context.Context, o *models.Owner) error
	GetOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	GetOwnerByUsername(ctx context.Context, username string) (*models.Owner, error)
	GetOwnerByOAuth(ctx context.Context, method models.AuthMethod, oauthID string) (*models.Owner, error)

	// Credentials
	CreateCredential(ctx context.Context, c *models.Credential) error
	GetCredential(ctx context.Context, ownerID, id uuid.UUID) (*models.Credential, error)
	GetCredentialByName(ctx context.Context, provider, nameSlug string, ownerID *uuid.UUID) (*models.Credential, error)
	GetLatestCredential(ctx context.Context, ownerID uuid.UUID, provider string) (*models.Credential, error)
	ListCredentials(ctx context.Context, ownerID uuid.UUID) ([]models.Credential, error)
	ListAllCredentials(ctx context.Context) ([]models.Credential, error)
	DeleteCredential(ctx context.Context, ownerID, id uuid.UUID) error

	// Usage ledger
	CreateUsageRecord(ctx context.Context, u *models.UsageRecord) error
	ListUsageByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.UsageRecord, error)
	ListUsageByCredential(ctx context.Context, ownerID, credentialID uuid.UUID) ([]models.UsageRecord, error)
	ListRecentUsage(ctx context.Context, limit int) ([]models.UsageRecord, error)
	CountUsageByCredential(ctx context.Context, credentialID uuid.UUID) (int, error)
}

// Ensure Repository satisfies the interface
var _ RepositoryInterface = (*Repository)(nil)
