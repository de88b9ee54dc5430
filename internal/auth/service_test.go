package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"zerokey/models"
	"zerokey/repository"

	"github.com/google/uuid"
)

// fakeOwnerRepo is an in-memory repository covering owner operations
type fakeOwnerRepo struct {
	repository.RepositoryInterface
	owners map[uuid.UUID]*models.Owner
}

func newFakeOwnerRepo() *fakeOwnerRepo {
	return &fakeOwnerRepo{owners: make(map[uuid.UUID]*models.Owner)}
}

func (f *fakeOwnerRepo) CreateOwner(ctx context.Context, o *models.Owner) error {
	for _, existing := range f.owners {
		if existing.Username == o.Username {
			return repository.ErrDuplicate
		}
		if o.OAuthID != "" && existing.AuthMethod == o.AuthMethod && existing.OAuthID == o.OAuthID {
			return repository.ErrDuplicate
		}
	}
	cp := *o
	f.owners[o.ID] = &cp
	return nil
}

func (f *fakeOwnerRepo) GetOwnerByUsername(ctx context.Context, username string) (*models.Owner, error) {
	for _, o := range f.owners {
		if o.Username == username {
			return o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOwnerRepo) GetOwnerByOAuth(ctx context.Context, method models.AuthMethod, oauthID string) (*models.Owner, error) {
	for _, o := range f.owners {
		if o.AuthMethod == method && o.OAuthID == oauthID {
			return o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestService() (*Service, *fakeOwnerRepo) {
	repo := newFakeOwnerRepo()
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour)), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	owner, token, err := svc.Register(ctx, "alice", "alice@example.com", "strong password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if owner.AuthMethod != models.AuthMethodPassword {
		t.Errorf("auth method = %s, want password", owner.AuthMethod)
	}
	if owner.PasswordHash == nil {
		t.Error("password hash not stored")
	}

	got, err := svc.Issuer().Verify(token)
	if err != nil || got != owner.ID {
		t.Errorf("registration token does not verify to owner: %v", err)
	}

	loggedIn, _, err := svc.Login(ctx, "alice", "strong password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != owner.ID {
		t.Errorf("login returned owner %s, want %s", loggedIn.ID, owner.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "", "strong password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, _, err := svc.Register(ctx, "alice", "", "another password")
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, repo := newTestService()

	_, _, err := svc.Register(context.Background(), "alice", "", "short")
	if !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if len(repo.owners) != 0 {
		t.Error("owner created despite weak password")
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "", "strong password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("unknown username", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "bob", "strong password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("oauth owner cannot password login", func(t *testing.T) {
		identity := &Identity{ID: "42", Username: "carol"}
		if _, _, err := svc.LoginOAuth(ctx, models.AuthMethodGitHub, identity); err != nil {
			t.Fatalf("LoginOAuth failed: %v", err)
		}
		_, _, err := svc.Login(ctx, "carol", "whatever password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestLoginOAuthGetOrCreate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	identity := &Identity{ID: "42", Username: "alice", Email: "alice@example.com"}

	first, token, err := svc.LoginOAuth(ctx, models.AuthMethodGitHub, identity)
	if err != nil {
		t.Fatalf("LoginOAuth failed: %v", err)
	}
	if first.AuthMethod != models.AuthMethodGitHub || first.OAuthID != "42" {
		t.Errorf("unexpected owner: %+v", first)
	}
	if got, err := svc.Issuer().Verify(token); err != nil || got != first.ID {
		t.Errorf("oauth token does not verify to owner: %v", err)
	}

	second, _, err := svc.LoginOAuth(ctx, models.AuthMethodGitHub, identity)
	if err != nil {
		t.Fatalf("second LoginOAuth failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("repeat oauth login created a second owner")
	}
	if len(repo.owners) != 1 {
		t.Errorf("expected 1 owner, got %d", len(repo.owners))
	}

	// Same external id on a different host is a different owner
	third, _, err := svc.LoginOAuth(ctx, models.AuthMethodGitLab, &Identity{ID: "42", Username: "alice-gl"})
	if err != nil {
		t.Fatalf("gitlab LoginOAuth failed: %v", err)
	}
	if third.ID == first.ID {
		t.Error("identities from different hosts collapsed into one owner")
	}
}
