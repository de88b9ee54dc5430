package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"zerokey/config"
	"zerokey/internal/app"
	"zerokey/internal/auth"
	"zerokey/models"
	"zerokey/observability"
	"zerokey/providers"
	"zerokey/proxy"
	"zerokey/repository"
	"zerokey/vault"

	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
		},
	}

	if h.app.Repo() != nil {
		if err := h.app.Repo().Health(r.Context()); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["database"] = "not_configured"
	}

	h.jsonResponse(w, http.StatusOK, status)
}

// CreateKeyRequest is the payload for storing a new credential
type CreateKeyRequest struct {
	Name      string     `json:"name"`
	Key       string     `json:"key"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HandleCreateKey stores a credential, detecting its provider from the
// raw secret's prefix
func (h *Handler) HandleCreateKey(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Key == "" {
		h.jsonError(w, "name and key are required", http.StatusBadRequest)
		return
	}

	summary, err := h.app.Vault().Create(r.Context(), ownerID, req.Name, req.Key, req.ExpiresAt)
	if err != nil {
		h.handleError(w, err)
		return
	}

	observability.GetMetrics().RecordCredentialCreated(summary.Provider)
	h.jsonResponse(w, http.StatusCreated, summary)
}

// HandleListKeys returns the owner's credentials, newest first, with both
// secrets masked
func (h *Handler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	summaries, err := h.app.Vault().List(r.Context(), ownerID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, summaries)
}

// HandleDeleteKey removes a credential and its usage records
func (h *Handler) HandleDeleteKey(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	id, err := app.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.app.Vault().Delete(r.Context(), ownerID, id); err != nil {
		h.handleError(w, err)
		return
	}

	observability.GetMetrics().RecordCredentialDeleted()
	w.WriteHeader(http.StatusNoContent)
}

// HandleProxyDefault forwards a request through the owner's newest
// credential for the provider
func (h *Handler) HandleProxyDefault(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	body, err := h.readProxyBody(w, r)
	if err != nil {
		return
	}

	resp, err := h.app.Dispatcher().DispatchDefault(r.Context(), ownerID, chi.URLParam(r, "provider"), body)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.relayUpstream(w, resp.StatusCode, resp.Body)
}

// HandleProxyNamed forwards a request through a specific named credential
func (h *Handler) HandleProxyNamed(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	body, err := h.readProxyBody(w, r)
	if err != nil {
		return
	}

	resp, err := h.app.Dispatcher().DispatchNamed(r.Context(), ownerID, chi.URLParam(r, "provider"), chi.URLParam(r, "name"), body)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.relayUpstream(w, resp.StatusCode, resp.Body)
}

// HandleProxyUnified forwards an anonymous request authenticated by the
// unified secret, presented via X-API-Key or a bearer token
func (h *Handler) HandleProxyUnified(w http.ResponseWriter, r *http.Request) {
	presented := unifiedSecret(r)
	if presented == "" {
		h.jsonError(w, "unified api key required", http.StatusUnauthorized)
		return
	}

	body, err := h.readProxyBody(w, r)
	if err != nil {
		return
	}

	resp, err := h.app.Dispatcher().DispatchUnified(r.Context(), chi.URLParam(r, "provider"), chi.URLParam(r, "name"), presented, body)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.relayUpstream(w, resp.StatusCode, resp.Body)
}

// HandleGetUsage returns the owner's usage records, newest first
func (h *Handler) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	records, err := h.app.Repo().ListUsageByOwner(r.Context(), ownerID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, records)
}

// HandleGetUsageByKey returns usage records for one credential
func (h *Handler) HandleGetUsageByKey(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerFromContext(r.Context())
	if !ok {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	id, err := app.ParseUUID(chi.URLParam(r, "keyId"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 404 for credentials that are absent or not owned
	if _, err := h.app.Vault().Get(r.Context(), ownerID, id); err != nil {
		h.handleError(w, err)
		return
	}

	records, err := h.app.Repo().ListUsageByCredential(r.Context(), ownerID, id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, records)
}

// RegisterRequest is the payload for password registration
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the payload for password login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a fresh bearer token and its owner
type TokenResponse struct {
	Token string        `json:"token"`
	Owner *models.Owner `json:"owner"`
}

// HandleRegister creates a password owner
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	owner, token, err := h.app.Auth().Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusCreated, TokenResponse{Token: token, Owner: owner})
}

// HandleLogin verifies a password owner and issues a token
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	owner, token, err := h.app.Auth().Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, TokenResponse{Token: token, Owner: owner})
}

const oauthStateCookie = "zerokey_oauth_state"

// HandleOAuthLogin redirects to the git host's authorization page
func (h *Handler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider := h.oauthProvider(w, r)
	if provider == nil {
		return
	}

	state, err := randomState()
	if err != nil {
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthorizeURL(state), http.StatusFound)
}

// HandleOAuthCallback completes the flow: state check, code exchange,
// identity fetch, get-or-create owner, token issue
func (h *Handler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := h.oauthProvider(w, r)
	if provider == nil {
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		h.jsonError(w, "oauth state mismatch", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.jsonError(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	accessToken, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.handleError(w, err)
		return
	}
	identity, err := provider.FetchIdentity(r.Context(), accessToken)
	if err != nil {
		h.handleError(w, err)
		return
	}

	owner, token, err := h.app.Auth().LoginOAuth(r.Context(), provider.Method(), identity)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, TokenResponse{Token: token, Owner: owner})
}

// oauthProvider resolves the {provider} URL param, writing a 400 for
// unknown or unconfigured hosts
func (h *Handler) oauthProvider(w http.ResponseWriter, r *http.Request) *auth.OAuthProvider {
	name := chi.URLParam(r, "provider")
	method := models.AuthMethod(name)
	switch method {
	case models.AuthMethodGitHub, models.AuthMethodGitLab, models.AuthMethodBitbucket:
	default:
		h.jsonError(w, fmt.Sprintf("unknown oauth provider: %s", name), http.StatusBadRequest)
		return nil
	}

	provider := h.app.OAuth(method)
	if provider == nil {
		h.jsonError(w, fmt.Sprintf("oauth provider not configured: %s", name), http.StatusBadRequest)
		return nil
	}
	return provider
}

// readProxyBody reads a size-capped request body, writing the error
// response itself when reading fails
func (h *Handler) readProxyBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.Proxy.MaxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			h.jsonError(w, "failed to read request body", http.StatusBadRequest)
		}
		return nil, err
	}
	return body, nil
}

// relayUpstream writes an upstream response verbatim
func (h *Handler) relayUpstream(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// handleError maps sentinel errors from the owning packages onto HTTP
// statuses. Unrecognized errors become an opaque 500; their text is
// logged, never returned, so secret material cannot leak.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var upstreamErr *proxy.UpstreamError
	if errors.As(err, &upstreamErr) {
		h.relayUpstream(w, upstreamErr.StatusCode, upstreamErr.Body)
		return
	}

	switch {
	case errors.Is(err, providers.ErrUnknownPrefix),
		errors.Is(err, providers.ErrNotImplemented),
		errors.Is(err, providers.ErrInvalidProviderKey),
		errors.Is(err, providers.ErrInvalidRequest),
		errors.Is(err, vault.ErrInvalidName),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, proxy.ErrBadBody):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrDuplicate):
		h.jsonError(w, "a key with this provider and name already exists", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, proxy.ErrUnauthorized):
		h.jsonError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, proxy.ErrExpired):
		h.jsonError(w, "key expired", http.StatusForbidden)
	case errors.Is(err, repository.ErrNotFound):
		h.jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, proxy.ErrUpstreamUnavailable),
		errors.Is(err, auth.ErrOAuthExchange):
		h.jsonError(w, "upstream unavailable", http.StatusBadGateway)
	default:
		observability.WithError(err).Error("request failed")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

// unifiedSecret extracts the presented unified key from X-API-Key or a
// bearer Authorization header
func unifiedSecret(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	const prefix = "Bearer "
	if authz := r.Header.Get("Authorization"); len(authz) > len(prefix) && authz[:len(prefix)] == prefix {
		return authz[len(prefix):]
	}
	return ""
}

// randomState returns a hex-encoded random OAuth state value
func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
