package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// geminiProvider routes by model in the URL path and passes the key as a
// query parameter. The model field is stripped from the forwarded body
// since Gemini rejects unknown fields.
type geminiProvider struct{}

func (p *geminiProvider) ID() string { return "gemini" }

func (p *geminiProvider) Shape(rawSecret string, body map[string]any) (*Request, error) {
	model := modelFromBody(body)
	if model == "" {
		model = "gemini-pro"
	}

	forwarded := make(map[string]any, len(body))
	for k, v := range body {
		if k == "model" {
			continue
		}
		forwarded[k] = v
	}

	out, err := json.Marshal(forwarded)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	u := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, url.PathEscape(model), url.QueryEscape(rawSecret))
	return &Request{URL: u, Headers: headers, Body: out}, nil
}

func (p *geminiProvider) Usage(respBody []byte) Usage {
	return extractGeminiUsage(respBody)
}
