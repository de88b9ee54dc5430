package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const huggingfaceBaseURL = "https://api-inference.huggingface.co/models"

// huggingfaceProvider routes by model in the URL path with bearer auth.
type huggingfaceProvider struct{}

func (p *huggingfaceProvider) ID() string { return "huggingface" }

func (p *huggingfaceProvider) Shape(rawSecret string, body map[string]any) (*Request, error) {
	model := modelFromBody(body)
	if model == "" {
		return nil, fmt.Errorf("%w: huggingface requests require a model field", ErrInvalidRequest)
	}

	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+rawSecret)
	headers.Set("Content-Type", "application/json")

	return &Request{
		URL:     huggingfaceBaseURL + "/" + url.PathEscape(model),
		Headers: headers,
		Body:    out,
	}, nil
}

func (p *huggingfaceProvider) Usage(respBody []byte) Usage {
	return extractOpenAIUsage(respBody)
}
