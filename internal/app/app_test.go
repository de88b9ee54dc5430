package app

import (
	"context"
	"testing"

	"zerokey/config"
	"zerokey/models"
	"zerokey/repository"
)

// stubRepo only needs to exist; App wiring never touches the database
type stubRepo struct {
	repository.RepositoryInterface
	closed bool
}

func (s *stubRepo) Close() { s.closed = true }

func TestNew(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OAuth.GitHub = config.OAuthProviderConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"}

	a, err := New(cfg, &stubRepo{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if a.Vault() == nil {
		t.Error("Vault not wired")
	}
	if a.Auth() == nil {
		t.Error("Auth not wired")
	}
	if a.Dispatcher() == nil {
		t.Error("Dispatcher not wired")
	}
	if a.OAuth(models.AuthMethodGitHub) == nil {
		t.Error("configured OAuth provider not wired")
	}
	if a.OAuth(models.AuthMethodGitLab) != nil {
		t.Error("unconfigured OAuth provider should be nil")
	}
}

func TestNewRejectsBadEncryptionKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Vault.EncryptionKey = "not-base64!!"

	if _, err := New(cfg, &stubRepo{}); err == nil {
		t.Error("expected error for invalid encryption key")
	}
}

func TestShutdownClosesRepo(t *testing.T) {
	repo := &stubRepo{}
	a, err := New(config.NewTestConfig(), repo)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a.Shutdown(context.Background())
	if !repo.closed {
		t.Error("Shutdown did not close the repository")
	}
}

func TestParseUUID(t *testing.T) {
	if _, err := ParseUUID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed uuid")
	}
	if _, err := ParseUUID("3b9a3a3e-8a6e-4f0e-9a3b-1c2d3e4f5a6b"); err != nil {
		t.Errorf("valid uuid rejected: %v", err)
	}
}
