// Package providers maps raw API-key prefixes to upstream LLM providers and
// shapes authenticated outbound requests for each of them.
package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrNotImplemented indicates a detected provider with no dispatch
	// implementation registered.
	ErrNotImplemented = errors.New("provider not implemented")

	// ErrInvalidProviderKey indicates a raw secret that matched a prefix
	// but is malformed for its provider (e.g. a composite id.secret key
	// missing its separator).
	ErrInvalidProviderKey = errors.New("invalid provider key")

	// ErrInvalidRequest indicates a request body the provider cannot
	// shape, such as path-routed providers called without a model.
	ErrInvalidRequest = errors.New("invalid request body for provider")
)

// Request is a fully shaped outbound call: URL, headers with auth
// injected, and the serialized body to send.
type Request struct {
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the upstream result relayed back to the caller.
type Response struct {
	StatusCode int
	Body       []byte
}

// Usage holds best-effort token counts extracted from an upstream
// response. All zero when the response shape is unrecognized.
type Usage struct {
	RequestTokens  int
	ResponseTokens int
	TotalTokens    int
}

// Provider shapes requests for one upstream API. Shape is pure: it never
// performs I/O. Usage never fails; it returns zeros for shapes it does
// not recognize.
type Provider interface {
	ID() string
	Shape(rawSecret string, body map[string]any) (*Request, error)
	Usage(respBody []byte) Usage
}

// Caller is implemented by providers that drive their own upstream
// exchange (submit-then-poll) instead of a single shaped request.
type Caller interface {
	Call(ctx context.Context, client *http.Client, rawSecret string, body map[string]any) (*Response, error)
}

// Execute performs a shaped request and reads the full upstream response.
// Transport failures are returned as errors; HTTP error statuses are not,
// the caller decides how to relay them.
func Execute(ctx context.Context, client *http.Client, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	httpReq.Header = req.Headers.Clone()
	if httpReq.Header == nil {
		httpReq.Header = http.Header{}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream call failed: %w", err)
	}
	return readResponse(resp)
}

// readResponse drains and closes an upstream response body
func readResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// modelFromBody extracts the model string from a request body, if present
func modelFromBody(body map[string]any) string {
	if m, ok := body["model"].(string); ok {
		return m
	}
	return ""
}
