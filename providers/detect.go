package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPrefix indicates a raw secret whose prefix matches no known
// provider.
var ErrUnknownPrefix = errors.New("unknown provider prefix")

// prefixEntry maps one key prefix to a provider id
type prefixEntry struct {
	prefix   string
	provider string
}

// prefixTable is checked in order, most specific prefix first: "sk-or-"
// and "sk-ant-" must win over the bare "sk-" they both start with.
// Add new providers here to expand platform support.
var prefixTable = []prefixEntry{
	{"sk-or-", "openrouter"},
	{"sk-ant-", "anthropic"},
	{"sk-", "openai"},
	{"AIza", "gemini"},
	{"xai-", "grok"},
	{"gsk_", "groq"},
	{"mistral_", "mistral"},
	{"together_", "together"},
	{"fw-", "fireworks"},
	{"as-", "anyscale"},
	{"di_", "deepinfra"},
	{"neb-", "nebius"},
	{"nb-", "nebius"},
	{"co_", "cohere"},
	{"ai21_", "ai21"},
	{"aa_", "aleph-alpha"},
	{"r8_", "replicate"},
	{"bt_", "baseten"},
	{"modal_", "modal"},
	{"hf_", "huggingface"},
	{"pplx-", "perplexity"},
	{"ds_", "deepseek"},
	{"qwen_", "qwen"},
	{"glm_", "zhipu"},
	{"yi_", "01ai"},
}

// Detect auto-detects the provider for a raw API key from its prefix.
func Detect(rawSecret string) (string, error) {
	rawSecret = strings.TrimSpace(rawSecret)
	if rawSecret == "" {
		return "", fmt.Errorf("%w: empty key", ErrUnknownPrefix)
	}

	for _, e := range prefixTable {
		if strings.HasPrefix(rawSecret, e.prefix) {
			return e.provider, nil
		}
	}

	samples := make([]string, 0, 5)
	for _, e := range prefixTable[:5] {
		samples = append(samples, e.prefix)
	}
	return "", fmt.Errorf("%w: key should start with a known prefix like %s...",
		ErrUnknownPrefix, strings.Join(samples, ", "))
}

// SupportedProviders returns the sorted set of detectable provider ids
func SupportedProviders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range prefixTable {
		if !seen[e.provider] {
			seen[e.provider] = true
			out = append(out, e.provider)
		}
	}
	sort.Strings(out)
	return out
}
