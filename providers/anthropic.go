package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// anthropicProvider authenticates with x-api-key plus a pinned API
// version header rather than a bearer token.
type anthropicProvider struct{}

func (p *anthropicProvider) ID() string { return "anthropic" }

func (p *anthropicProvider) Shape(rawSecret string, body map[string]any) (*Request, error) {
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("x-api-key", rawSecret)
	headers.Set("anthropic-version", anthropicVersion)
	headers.Set("Content-Type", "application/json")

	return &Request{URL: anthropicURL, Headers: headers, Body: out}, nil
}

func (p *anthropicProvider) Usage(respBody []byte) Usage {
	return extractAnthropicUsage(respBody)
}
