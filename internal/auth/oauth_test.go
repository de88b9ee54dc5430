package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"zerokey/config"
	"zerokey/models"
)

func TestNewOAuthProvidersSkipsUnconfigured(t *testing.T) {
	cfg := config.OAuthConfig{
		GitHub: config.OAuthProviderConfig{ClientID: "gh-id", ClientSecret: "gh-secret", RedirectURI: "http://localhost/cb"},
	}
	providers := NewOAuthProviders(cfg, nil)

	if _, ok := providers[models.AuthMethodGitHub]; !ok {
		t.Error("configured github provider missing")
	}
	if _, ok := providers[models.AuthMethodGitLab]; ok {
		t.Error("unconfigured gitlab provider present")
	}
	if _, ok := providers[models.AuthMethodBitbucket]; ok {
		t.Error("unconfigured bitbucket provider present")
	}
}

func TestAuthorizeURL(t *testing.T) {
	cfg := config.OAuthConfig{
		GitHub: config.OAuthProviderConfig{ClientID: "gh-id", RedirectURI: "http://localhost/cb"},
	}
	p := NewOAuthProviders(cfg, nil)[models.AuthMethodGitHub]

	raw := p.AuthorizeURL("state-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("authorize URL does not parse: %v", err)
	}
	if u.Host != "github.com" {
		t.Errorf("host = %s, want github.com", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "gh-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("redirect_uri") != "http://localhost/cb" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

// fakeHost stands in for a git host's token and user endpoints
func fakeHost(t *testing.T, tokenStatus int, tokenBody, userBody string) (*httptest.Server, *OAuthProvider) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("token request form does not parse: %v", err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		w.WriteHeader(tokenStatus)
		w.Write([]byte(tokenBody))
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("user request missing bearer token")
		}
		w.Write([]byte(userBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	p := &OAuthProvider{
		method: models.AuthMethodGitHub,
		cfg:    config.OAuthProviderConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"},
		endpoints: oauthEndpoints{
			tokenURL: server.URL + "/token",
			userURL:  server.URL + "/user",
			parse:    parseGitHubIdentity,
		},
		client: server.Client(),
	}
	return server, p
}

func TestExchangeAndFetchIdentity(t *testing.T) {
	_, p := fakeHost(t, http.StatusOK,
		`{"access_token":"gho_abc123","token_type":"bearer"}`,
		`{"id":42,"login":"alice","email":"alice@example.com"}`)

	token, err := p.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if token != "gho_abc123" {
		t.Errorf("token = %q", token)
	}

	identity, err := p.FetchIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchIdentity failed: %v", err)
	}
	if identity.ID != "42" || identity.Username != "alice" || identity.Email != "alice@example.com" {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestExchangeFailures(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		_, p := fakeHost(t, http.StatusUnauthorized, `{"error":"bad_verification_code"}`, `{}`)
		_, err := p.Exchange(context.Background(), "bad-code")
		if !errors.Is(err, ErrOAuthExchange) {
			t.Errorf("expected ErrOAuthExchange, got %v", err)
		}
	})

	t.Run("missing access token", func(t *testing.T) {
		_, p := fakeHost(t, http.StatusOK, `{"token_type":"bearer"}`, `{}`)
		_, err := p.Exchange(context.Background(), "the-code")
		if !errors.Is(err, ErrOAuthExchange) {
			t.Errorf("expected ErrOAuthExchange, got %v", err)
		}
	})

	t.Run("incomplete identity", func(t *testing.T) {
		_, p := fakeHost(t, http.StatusOK, `{"access_token":"tok"}`, `{"email":"no-id@example.com"}`)
		_, err := p.FetchIdentity(context.Background(), "tok")
		if !errors.Is(err, ErrOAuthExchange) {
			t.Errorf("expected ErrOAuthExchange, got %v", err)
		}
	})
}

func TestParseIdentities(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) (*Identity, error)
		body  string
		want  Identity
	}{
		{"github", parseGitHubIdentity, `{"id":42,"login":"alice","email":"a@b.c"}`, Identity{ID: "42", Username: "alice", Email: "a@b.c"}},
		{"gitlab", parseGitLabIdentity, `{"id":7,"username":"bob","email":"b@c.d"}`, Identity{ID: "7", Username: "bob", Email: "b@c.d"}},
		{"bitbucket", parseBitbucketIdentity, `{"uuid":"{abc-def}","username":"carol"}`, Identity{ID: "{abc-def}", Username: "carol"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if *got != tt.want {
				t.Errorf("identity = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
