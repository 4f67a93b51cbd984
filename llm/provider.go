// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions. Implementations must be
// safe for concurrent use.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the default model being used.
	Model() string

	// Chat sends a chat completion request. Options override the
	// provider defaults for this request only.
	Chat(ctx context.Context, messages []ChatMessage, opts CallOptions) (LLMResponse, error)
}

// callSettings resolves per-request options against provider defaults.
type callSettings struct {
	model       string
	maxTokens   int
	temperature float32
}

func resolve(opts CallOptions, model string, maxTokens int, temperature float32) callSettings {
	s := callSettings{model: model, maxTokens: maxTokens, temperature: temperature}
	if opts.Model != "" {
		s.model = opts.Model
	}
	if opts.MaxTokens > 0 {
		s.maxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		s.temperature = *opts.Temperature
	}
	return s
}
