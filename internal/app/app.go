// Package app wires the vault's services together behind one struct the
// HTTP layer and CLI depend on.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"zerokey/config"
	"zerokey/internal/auth"
	"zerokey/models"
	"zerokey/providers"
	"zerokey/proxy"
	"zerokey/repository"
	"zerokey/vault"

	"github.com/google/uuid"
)

// App holds application dependencies
type App struct {
	cfg        *config.Config
	repo       repository.RepositoryInterface
	vault      *vault.Service
	auth       *auth.Service
	oauth      map[models.AuthMethod]*auth.OAuthProvider
	dispatcher *proxy.Dispatcher
}

// New creates the App from configuration and a repository. The outbound
// HTTP client is shared by the dispatcher and the OAuth providers.
func New(cfg *config.Config, repo repository.RepositoryInterface) (*App, error) {
	crypto, err := vault.NewCrypto(cfg.Vault.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize crypto: %w", err)
	}

	vaultSvc := vault.NewService(repo, crypto)

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)
	authSvc := auth.NewService(repo, issuer)

	client := &http.Client{Timeout: time.Duration(cfg.Proxy.UpstreamTimeoutSeconds) * time.Second}

	registry := providers.NewRegistry(providers.Options{
		PollInterval: time.Duration(cfg.Proxy.PollIntervalMillis) * time.Millisecond,
		PollTimeout:  time.Duration(cfg.Proxy.PollTimeoutSeconds) * time.Second,
	})

	return &App{
		cfg:        cfg,
		repo:       repo,
		vault:      vaultSvc,
		auth:       authSvc,
		oauth:      auth.NewOAuthProviders(cfg.OAuth, client),
		dispatcher: proxy.NewDispatcher(vaultSvc, repo, registry, client),
	}, nil
}

// Shutdown releases held resources
func (a *App) Shutdown(ctx context.Context) {
	if a.repo != nil {
		a.repo.Close()
	}
}

// Repo returns the repository for API handlers
func (a *App) Repo() repository.RepositoryInterface {
	return a.repo
}

// Vault returns the credential vault service
func (a *App) Vault() *vault.Service {
	return a.vault
}

// Auth returns the owner auth service
func (a *App) Auth() *auth.Service {
	return a.auth
}

// OAuth returns the provider for a git host, nil when unconfigured
func (a *App) OAuth(method models.AuthMethod) *auth.OAuthProvider {
	return a.oauth[method]
}

// Dispatcher returns the proxy dispatcher
func (a *App) Dispatcher() *proxy.Dispatcher {
	return a.dispatcher
}

// ParseUUID parses a string into a UUID with a friendly error
func ParseUUID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id format: %s", id)
	}
	return parsed, nil
}
