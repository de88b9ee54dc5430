// Package proxy resolves stored credentials and forwards LLM requests to
// their upstream providers, recording one usage row per outbound attempt.
package proxy

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"zerokey/models"
	"zerokey/observability"
	"zerokey/providers"
	"zerokey/repository"
	"zerokey/vault"

	"github.com/google/uuid"
)

// ProviderSource resolves a provider implementation by its slug. Satisfied
// by *providers.Registry.
type ProviderSource interface {
	Get(id string) (providers.Provider, error)
}

// Dispatcher executes the full lifecycle of a proxied request: credential
// resolution, expiry check, decryption, provider-shaped outbound call, and
// the usage ledger write.
type Dispatcher struct {
	vault    *vault.Service
	repo     repository.RepositoryInterface
	registry ProviderSource
	client   *http.Client
	metrics  *observability.Metrics

	// now is swapped out in tests to pin expiry boundaries
	now func() time.Time
}

// NewDispatcher creates a Dispatcher. The client's timeout bounds every
// single-shot upstream call; polling providers manage their own deadlines.
func NewDispatcher(vaultSvc *vault.Service, repo repository.RepositoryInterface, registry ProviderSource, client *http.Client) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Dispatcher{
		vault:    vaultSvc,
		repo:     repo,
		registry: registry,
		client:   client,
		metrics:  observability.GetMetrics(),
		now:      time.Now,
	}
}

// DispatchNamed forwards a request through the owner's credential matching
// provider and name.
func (d *Dispatcher) DispatchNamed(ctx context.Context, ownerID uuid.UUID, provider, name string, body []byte) (*providers.Response, error) {
	cred, err := d.vault.ResolveByName(ctx, provider, name, &ownerID)
	if err != nil {
		return nil, err
	}
	return d.dispatch(ctx, cred, body)
}

// DispatchDefault forwards a request through the owner's newest credential
// for the provider.
func (d *Dispatcher) DispatchDefault(ctx context.Context, ownerID uuid.UUID, provider string, body []byte) (*providers.Response, error) {
	cred, err := d.vault.ResolveDefault(ctx, ownerID, provider)
	if err != nil {
		return nil, err
	}
	return d.dispatch(ctx, cred, body)
}

// DispatchUnified forwards an anonymous request authenticated by the
// unified secret alone. The presented secret is compared against the
// decrypted stored one in constant time; a mismatch leaves no trace in
// the usage ledger.
func (d *Dispatcher) DispatchUnified(ctx context.Context, provider, name, presented string, body []byte) (*providers.Response, error) {
	cred, err := d.vault.ResolveByName(ctx, provider, name, nil)
	if err != nil {
		return nil, err
	}

	stored, err := d.vault.Crypto().DecryptString(cred.EncryptedUnified)
	if err != nil {
		return nil, fmt.Errorf("credential %s: %w", cred.ID, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return nil, ErrUnauthorized
	}

	return d.dispatch(ctx, cred, body)
}

// dispatch runs the shared post-resolution pipeline. A usage row is
// written for every attempt that reaches the outbound call, including
// upstream errors and transport failures; pre-dispatch rejections leave
// no row.
func (d *Dispatcher) dispatch(ctx context.Context, cred *models.Credential, body []byte) (*providers.Response, error) {
	if cred.Expired(d.now()) {
		d.metrics.RecordDispatchError(cred.Provider, "expired")
		return nil, ErrExpired
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil || parsed == nil {
		d.metrics.RecordDispatchError(cred.Provider, "bad_body")
		return nil, ErrBadBody
	}

	rawSecret, err := d.vault.Crypto().DecryptString(cred.EncryptedKey)
	if err != nil {
		d.metrics.RecordDispatchError(cred.Provider, "decrypt")
		return nil, fmt.Errorf("credential %s: %w", cred.ID, err)
	}

	provider, err := d.registry.Get(cred.Provider)
	if err != nil {
		d.metrics.RecordDispatchError(cred.Provider, "not_implemented")
		return nil, err
	}

	call, err := d.prepare(provider, rawSecret, parsed)
	if err != nil {
		// Shaping failed before anything left the process: no usage row.
		d.metrics.RecordDispatchError(cred.Provider, "shape")
		return nil, err
	}

	start := time.Now()
	resp, err := call(ctx)
	latency := time.Since(start)

	if err != nil {
		// Transport failure: the attempt reached the wire, so it is
		// ledgered with status 0.
		d.record(ctx, cred, parsed, providers.Usage{}, 0, latency)
		d.metrics.RecordDispatch(cred.Provider, "0", latency)
		observability.WithProvider(cred.Provider).Error("upstream call failed", "error", err, "credential_id", cred.ID)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	usage := provider.Usage(resp.Body)
	d.record(ctx, cred, parsed, usage, resp.StatusCode, latency)
	d.metrics.RecordDispatch(cred.Provider, fmt.Sprintf("%d", resp.StatusCode), latency)
	d.metrics.RecordTokens(cred.Provider, usage.RequestTokens, usage.ResponseTokens)

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

// prepare shapes the outbound exchange without touching the network, so
// shaping failures stay out of the usage ledger. Providers implementing
// Caller drive their own exchange (submit-then-poll).
func (d *Dispatcher) prepare(p providers.Provider, rawSecret string, body map[string]any) (func(context.Context) (*providers.Response, error), error) {
	if caller, ok := p.(providers.Caller); ok {
		return func(ctx context.Context) (*providers.Response, error) {
			return caller.Call(ctx, d.client, rawSecret, body)
		}, nil
	}
	req, err := p.Shape(rawSecret, body)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (*providers.Response, error) {
		return providers.Execute(ctx, d.client, req)
	}, nil
}

// record appends one usage row. Ledger failures are logged but never
// block relaying the upstream response.
func (d *Dispatcher) record(ctx context.Context, cred *models.Credential, body map[string]any, usage providers.Usage, status int, latency time.Duration) {
	rec := &models.UsageRecord{
		ID:              uuid.New(),
		OwnerID:         cred.OwnerID,
		CredentialID:    cred.ID,
		Provider:        cred.Provider,
		EndpointOrModel: endpointOrModel(body),
		RequestTokens:   usage.RequestTokens,
		ResponseTokens:  usage.ResponseTokens,
		TotalTokens:     usage.TotalTokens,
		LatencyMs:       int(latency.Milliseconds()),
		StatusCode:      status,
		CreatedAt:       time.Now().UTC(),
	}
	if err := d.repo.CreateUsageRecord(ctx, rec); err != nil {
		observability.WithError(err).Error("failed to write usage record", "credential_id", cred.ID)
	}
}

// endpointOrModel labels the usage row with the request's model when the
// body names one
func endpointOrModel(body map[string]any) string {
	if m, ok := body["model"].(string); ok && m != "" {
		return m
	}
	return "unknown"
}
