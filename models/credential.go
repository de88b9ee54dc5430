package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is a stored third-party API secret plus its unified-proxy
// alias. Both secrets are encrypted at rest.
type Credential struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"-"`
	Provider         string     `json:"provider"`
	Name             string     `json:"name"`
	NameSlug         string     `json:"name_slug"`
	EncryptedKey     string     `json:"-"` // Never expose encrypted data in JSON
	EncryptedUnified string     `json:"-"` // Never expose encrypted data in JSON
	UnifiedEndpoint  string     `json:"unified_endpoint"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Expired reports whether the credential is expired at the given instant.
// A credential expiring exactly at now counts as expired.
func (c *Credential) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.UTC().After(now.UTC())
}

// CredentialSummary is the caller-facing view of a credential. Secrets are
// masked except for the unified key immediately after creation, which is
// the one time it is revealed in full.
type CredentialSummary struct {
	ID              uuid.UUID  `json:"id"`
	Provider        string     `json:"provider"`
	Name            string     `json:"name"`
	APIKey          string     `json:"api_key"`
	UnifiedAPIKey   string     `json:"unified_api_key"`
	UnifiedEndpoint string     `json:"unified_endpoint"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
