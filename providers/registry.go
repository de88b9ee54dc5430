package providers

import (
	"fmt"
	"time"
)

// Options configures runtime behavior for providers that need it
type Options struct {
	PollInterval time.Duration // cadence for submit-then-poll providers
	PollTimeout  time.Duration // overall deadline for a poll loop
}

// DefaultOptions returns the options used when none are supplied
func DefaultOptions() Options {
	return Options{
		PollInterval: time.Second,
		PollTimeout:  60 * time.Second,
	}
}

// bearerSpec declares one OpenAI-compatible upstream
type bearerSpec struct {
	id  string
	url string
}

// bearerSpecs lists every provider dispatched as a plain bearer POST to a
// fixed chat-completions endpoint.
var bearerSpecs = []bearerSpec{
	{"openai", "https://api.openai.com/v1/chat/completions"},
	{"openrouter", "https://openrouter.ai/api/v1/chat/completions"},
	{"groq", "https://api.groq.com/openai/v1/chat/completions"},
	{"grok", "https://api.x.ai/v1/chat/completions"},
	{"mistral", "https://api.mistral.ai/v1/chat/completions"},
	{"together", "https://api.together.xyz/v1/chat/completions"},
	{"fireworks", "https://api.fireworks.ai/inference/v1/chat/completions"},
	{"anyscale", "https://api.endpoints.anyscale.com/v1/chat/completions"},
	{"deepinfra", "https://api.deepinfra.com/v1/openai/chat/completions"},
	{"nebius", "https://api.studio.nebius.ai/v1/chat/completions"},
	{"perplexity", "https://api.perplexity.ai/chat/completions"},
	{"deepseek", "https://api.deepseek.com/chat/completions"},
	{"qwen", "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"},
	{"01ai", "https://api.lingyiwanwu.com/v1/chat/completions"},
	{"baseten", "https://inference.baseten.co/v1/chat/completions"},
	{"modal", "https://api.modal.com/v1/chat/completions"},
	{"cohere", "https://api.cohere.com/v2/chat"},
	{"ai21", "https://api.ai21.com/studio/v1/chat/completions"},
	{"aleph-alpha", "https://api.aleph-alpha.com/chat/completions"},
}

// Registry holds one Provider per supported upstream, built once at
// startup. Lookup is read-only afterward.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds the registry of all supported providers
func NewRegistry(opts Options) *Registry {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultOptions().PollTimeout
	}

	r := &Registry{providers: make(map[string]Provider)}
	for _, spec := range bearerSpecs {
		r.register(&bearerProvider{id: spec.id, url: spec.url})
	}
	r.register(&anthropicProvider{})
	r.register(&geminiProvider{})
	r.register(&huggingfaceProvider{})
	r.register(&zhipuProvider{})
	r.register(&replicateProvider{
		url:          replicateURL,
		pollInterval: opts.PollInterval,
		pollTimeout:  opts.PollTimeout,
	})
	return r
}

func (r *Registry) register(p Provider) {
	r.providers[p.ID()] = p
}

// Get returns the Provider for a detected provider id, or
// ErrNotImplemented when dispatch for it is not supported.
func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, id)
	}
	return p, nil
}
