package providers

import (
	"errors"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-abc123", "openai"},
		{"sk-ant-abc123", "anthropic"},
		{"sk-or-abc123", "openrouter"},
		{"AIzaSyAbc123", "gemini"},
		{"xai-abc", "grok"},
		{"gsk_abc", "groq"},
		{"mistral_abc", "mistral"},
		{"together_abc", "together"},
		{"fw-abc", "fireworks"},
		{"as-abc", "anyscale"},
		{"di_abc", "deepinfra"},
		{"neb-abc", "nebius"},
		{"nb-abc", "nebius"},
		{"co_abc", "cohere"},
		{"ai21_abc", "ai21"},
		{"aa_abc", "aleph-alpha"},
		{"r8_abc", "replicate"},
		{"bt_abc", "baseten"},
		{"modal_abc", "modal"},
		{"hf_abc", "huggingface"},
		{"pplx-abc", "perplexity"},
		{"ds_abc", "deepseek"},
		{"qwen_abc", "qwen"},
		{"glm_abc", "zhipu"},
		{"yi_abc", "01ai"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := Detect(tt.key)
			if err != nil {
				t.Fatalf("Detect(%q) failed: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestDetect_SpecificPrefixWins(t *testing.T) {
	// "sk-ant-" and "sk-or-" both start with "sk-"; the longer prefix
	// must win over the generic openai one.
	if got, _ := Detect("sk-ant-xyz"); got != "anthropic" {
		t.Errorf("expected anthropic, got %q", got)
	}
	if got, _ := Detect("sk-or-xyz"); got != "openrouter" {
		t.Errorf("expected openrouter, got %q", got)
	}
}

func TestDetect_TrimsWhitespace(t *testing.T) {
	got, err := Detect("  sk-ant-abc123  ")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got != "anthropic" {
		t.Errorf("expected anthropic, got %q", got)
	}
}

func TestDetect_Unknown(t *testing.T) {
	for _, key := range []string{"", "   ", "unknown-prefix-key", "zz_abc"} {
		_, err := Detect(key)
		if !errors.Is(err, ErrUnknownPrefix) {
			t.Errorf("Detect(%q): expected ErrUnknownPrefix, got %v", key, err)
		}
		if err != nil && strings.Contains(err.Error(), key) && key != "" {
			t.Errorf("Detect(%q): error text leaks the key: %v", key, err)
		}
	}

	// The failure message guides the user with sample prefixes
	_, err := Detect("bogus")
	if !strings.Contains(err.Error(), "sk-ant-") {
		t.Errorf("expected sample prefixes in error, got: %v", err)
	}
}

func TestDetect_AllDetectableProvidersAreDispatchable(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	for _, id := range SupportedProviders() {
		if _, err := r.Get(id); err != nil {
			t.Errorf("provider %q is detectable but not dispatchable: %v", id, err)
		}
	}
}
