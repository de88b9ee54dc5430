package auth

import (
	"context"
	"errors"
	"fmt"

	"zerokey/models"
	"zerokey/repository"
)

// ErrInvalidCredentials indicates a login with an unknown username or a
// wrong password. Deliberately indistinguishable between the two.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Service implements owner registration and login
type Service struct {
	repo   repository.RepositoryInterface
	issuer *TokenIssuer
}

// NewService creates an auth Service
func NewService(repo repository.RepositoryInterface, issuer *TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Issuer exposes the token issuer for middleware verification
func (s *Service) Issuer() *TokenIssuer {
	return s.issuer
}

// Register creates a password owner and returns it with a fresh token.
// A taken username surfaces as repository.ErrDuplicate.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.Owner, string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	owner := models.NewPasswordOwner(username, email, hash)
	if err := s.repo.CreateOwner(ctx, owner); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(owner.ID)
	if err != nil {
		return nil, "", err
	}
	return owner, token, nil
}

// Login verifies a password owner's credentials and returns a fresh token
func (s *Service) Login(ctx context.Context, username, password string) (*models.Owner, string, error) {
	owner, err := s.repo.GetOwnerByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if owner.AuthMethod != models.AuthMethodPassword || !CheckPassword(owner.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(owner.ID)
	if err != nil {
		return nil, "", err
	}
	return owner, token, nil
}

// LoginOAuth finds or creates the owner matching an external identity and
// returns a fresh token.
func (s *Service) LoginOAuth(ctx context.Context, method models.AuthMethod, identity *Identity) (*models.Owner, string, error) {
	owner, err := s.repo.GetOwnerByOAuth(ctx, method, identity.ID)
	if errors.Is(err, repository.ErrNotFound) {
		owner = models.NewOAuthOwner(method, identity.ID, identity.Username, identity.Email)
		if createErr := s.repo.CreateOwner(ctx, owner); createErr != nil {
			return nil, "", fmt.Errorf("failed to create oauth owner: %w", createErr)
		}
	} else if err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(owner.ID)
	if err != nil {
		return nil, "", err
	}
	return owner, token, nil
}
