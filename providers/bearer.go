package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// bearerProvider covers every OpenAI-compatible upstream that takes the
// raw key as an Authorization bearer on a fixed chat-completions URL.
type bearerProvider struct {
	id      string
	url     string
	extract func([]byte) Usage
}

func (p *bearerProvider) ID() string { return p.id }

func (p *bearerProvider) Shape(rawSecret string, body map[string]any) (*Request, error) {
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+rawSecret)
	headers.Set("Content-Type", "application/json")

	return &Request{URL: p.url, Headers: headers, Body: out}, nil
}

func (p *bearerProvider) Usage(respBody []byte) Usage {
	if p.extract != nil {
		return p.extract(respBody)
	}
	return extractOpenAIUsage(respBody)
}
