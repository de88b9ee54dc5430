package providers

import "encoding/json"

// Token-count extraction is best effort across heterogeneous upstream
// response shapes: every extractor returns zeros on a shape mismatch and
// never errors.

// extractOpenAIUsage reads the OpenAI-compatible usage block
func extractOpenAIUsage(respBody []byte) Usage {
	var resp struct {
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Usage{}
	}
	return Usage{
		RequestTokens:  resp.Usage.PromptTokens,
		ResponseTokens: resp.Usage.CompletionTokens,
		TotalTokens:    resp.Usage.TotalTokens,
	}
}

// extractAnthropicUsage reads the messages-API usage block; the total is
// derived since Anthropic does not report one.
func extractAnthropicUsage(respBody []byte) Usage {
	var resp struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Usage{}
	}
	return Usage{
		RequestTokens:  resp.Usage.InputTokens,
		ResponseTokens: resp.Usage.OutputTokens,
		TotalTokens:    resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
}

// extractGeminiUsage reads the generateContent usageMetadata block
func extractGeminiUsage(respBody []byte) Usage {
	var resp struct {
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Usage{}
	}
	return Usage{
		RequestTokens:  resp.UsageMetadata.PromptTokenCount,
		ResponseTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:    resp.UsageMetadata.TotalTokenCount,
	}
}
