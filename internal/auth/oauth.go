package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zerokey/config"
	"zerokey/models"
)

// ErrOAuthExchange indicates a failed code-for-token exchange or identity
// fetch. The provider's error body is logged, never returned to callers.
var ErrOAuthExchange = errors.New("oauth exchange failed")

// Identity is the external identity returned by an OAuth provider
type Identity struct {
	ID       string
	Username string
	Email    string
}

// oauthEndpoints describes one git-hosting provider's OAuth surface
type oauthEndpoints struct {
	authorizeURL string
	tokenURL     string
	userURL      string
	scope        string
	basicAuth    bool // client credentials via basic auth instead of form fields
	parse        func([]byte) (*Identity, error)
}

// OAuthProvider performs the three-legged flow against one git host
type OAuthProvider struct {
	method    models.AuthMethod
	cfg       config.OAuthProviderConfig
	endpoints oauthEndpoints
	client    *http.Client
}

// NewOAuthProviders builds a provider per configured git host. Hosts with
// no client id configured are skipped.
func NewOAuthProviders(cfg config.OAuthConfig, client *http.Client) map[models.AuthMethod]*OAuthProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	all := map[models.AuthMethod]struct {
		cfg       config.OAuthProviderConfig
		endpoints oauthEndpoints
	}{
		models.AuthMethodGitHub: {cfg.GitHub, oauthEndpoints{
			authorizeURL: "https://github.com/login/oauth/authorize",
			tokenURL:     "https://github.com/login/oauth/access_token",
			userURL:      "https://api.github.com/user",
			scope:        "read:user user:email",
			parse:        parseGitHubIdentity,
		}},
		models.AuthMethodGitLab: {cfg.GitLab, oauthEndpoints{
			authorizeURL: "https://gitlab.com/oauth/authorize",
			tokenURL:     "https://gitlab.com/oauth/token",
			userURL:      "https://gitlab.com/api/v4/user",
			scope:        "read_user",
			parse:        parseGitLabIdentity,
		}},
		models.AuthMethodBitbucket: {cfg.Bitbucket, oauthEndpoints{
			authorizeURL: "https://bitbucket.org/site/oauth2/authorize",
			tokenURL:     "https://bitbucket.org/site/oauth2/access_token",
			userURL:      "https://api.bitbucket.org/2.0/user",
			basicAuth:    true,
			parse:        parseBitbucketIdentity,
		}},
	}

	providers := make(map[models.AuthMethod]*OAuthProvider)
	for method, entry := range all {
		if entry.cfg.ClientID == "" {
			continue
		}
		providers[method] = &OAuthProvider{
			method:    method,
			cfg:       entry.cfg,
			endpoints: entry.endpoints,
			client:    client,
		}
	}
	return providers
}

// Method returns the auth method this provider serves
func (p *OAuthProvider) Method() models.AuthMethod {
	return p.method
}

// AuthorizeURL builds the redirect URL that starts the flow
func (p *OAuthProvider) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	if p.endpoints.scope != "" {
		q.Set("scope", p.endpoints.scope)
	}
	return p.endpoints.authorizeURL + "?" + q.Encode()
}

// Exchange trades an authorization code for an access token
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.cfg.RedirectURI)
	if !p.endpoints.basicAuth {
		form.Set("client_id", p.cfg.ClientID)
		form.Set("client_secret", p.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if p.endpoints.basicAuth {
		req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned status %d", ErrOAuthExchange, resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrOAuthExchange)
	}
	return token.AccessToken, nil
}

// FetchIdentity retrieves the external identity behind an access token
func (p *OAuthProvider) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoints.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user endpoint returned status %d", ErrOAuthExchange, resp.StatusCode)
	}

	identity, err := p.endpoints.parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	return identity, nil
}

func parseGitHubIdentity(body []byte) (*Identity, error) {
	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 || user.Login == "" {
		return nil, errors.New("incomplete user response")
	}
	return &Identity{ID: fmt.Sprintf("%d", user.ID), Username: user.Login, Email: user.Email}, nil
}

func parseGitLabIdentity(body []byte) (*Identity, error) {
	var user struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 || user.Username == "" {
		return nil, errors.New("incomplete user response")
	}
	return &Identity{ID: fmt.Sprintf("%d", user.ID), Username: user.Username, Email: user.Email}, nil
}

func parseBitbucketIdentity(body []byte) (*Identity, error) {
	var user struct {
		UUID     string `json:"uuid"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if user.UUID == "" || user.Username == "" {
		return nil, errors.New("incomplete user response")
	}
	return &Identity{ID: user.UUID, Username: user.Username}, nil
}
