package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthMethod identifies how an owner authenticates
type AuthMethod string

const (
	AuthMethodPassword  AuthMethod = "password"
	AuthMethodGitHub    AuthMethod = "github"
	AuthMethodGitLab    AuthMethod = "gitlab"
	AuthMethodBitbucket AuthMethod = "bitbucket"
)

// Owner is a registered user of the vault. Exactly one auth method is set
// at creation; PasswordHash is present only for password owners.
type Owner struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	AuthMethod   AuthMethod `json:"auth_method"`
	PasswordHash []byte     `json:"-"`
	OAuthID      string     `json:"-"` // provider-side user id for OAuth owners
	CreatedAt    time.Time  `json:"created_at"`
}

// NewPasswordOwner creates an owner authenticated by username/password
func NewPasswordOwner(username, email string, passwordHash []byte) *Owner {
	return &Owner{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		AuthMethod:   AuthMethodPassword,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewOAuthOwner creates an owner authenticated by an external OAuth provider
func NewOAuthOwner(method AuthMethod, oauthID, username, email string) *Owner {
	return &Owner{
		ID:         uuid.New(),
		Username:   username,
		Email:      email,
		AuthMethod: method,
		OAuthID:    oauthID,
		CreatedAt:  time.Now().UTC(),
	}
}
