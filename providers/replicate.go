package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const replicateURL = "https://api.replicate.com/v1/predictions"

// replicateTerminal is the set of prediction statuses that end polling
var replicateTerminal = map[string]bool{
	"succeeded": true,
	"failed":    true,
	"canceled":  true,
}

// replicateProvider submits a prediction and polls it until a terminal
// status. The loop is bounded by an overall deadline and aborts when the
// inbound request context is cancelled.
type replicateProvider struct {
	url          string
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func (p *replicateProvider) ID() string { return "replicate" }

func (p *replicateProvider) Shape(rawSecret string, body map[string]any) (*Request, error) {
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+rawSecret)
	headers.Set("Content-Type", "application/json")

	return &Request{URL: p.url, Headers: headers, Body: out}, nil
}

func (p *replicateProvider) Usage(respBody []byte) Usage {
	// Replicate predictions carry no token accounting
	return Usage{}
}

// Call submits the prediction, then polls its status URL until terminal.
func (p *replicateProvider) Call(ctx context.Context, client *http.Client, rawSecret string, body map[string]any) (*Response, error) {
	req, err := p.Shape(rawSecret, body)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	resp, err := Execute(ctx, client, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return resp, nil
	}

	var prediction struct {
		Status string `json:"status"`
		URLs   struct {
			Get string `json:"get"`
		} `json:"urls"`
	}
	if err := json.Unmarshal(resp.Body, &prediction); err != nil {
		return nil, fmt.Errorf("unexpected replicate submit response: %w", err)
	}
	if replicateTerminal[prediction.Status] || prediction.URLs.Get == "" {
		return resp, nil
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("replicate poll aborted: %w", ctx.Err())
		case <-ticker.C:
		}

		pollReq, err := http.NewRequestWithContext(ctx, http.MethodGet, prediction.URLs.Get, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build replicate poll request: %w", err)
		}
		pollReq.Header.Set("Authorization", "Token "+rawSecret)

		pollResp, err := client.Do(pollReq)
		if err != nil {
			return nil, fmt.Errorf("replicate poll failed: %w", err)
		}
		result, err := readResponse(pollResp)
		if err != nil {
			return nil, err
		}
		if result.StatusCode >= 400 {
			return result, nil
		}

		var state struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(result.Body, &state); err != nil {
			return nil, fmt.Errorf("unexpected replicate poll response: %w", err)
		}
		if replicateTerminal[state.Status] {
			return result, nil
		}
	}
}
