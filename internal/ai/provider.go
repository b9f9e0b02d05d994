// Package ai provides a unified interface to multiple AI inference providers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoProvider is returned when no provider is configured or the configured
// one is missing its credentials.
var ErrNoProvider = errors.New("AI provider not configured")

// Message represents a single message in a conversation with an AI model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// InferOptions configures a single inference call.
type InferOptions struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// InferResult holds the response from an inference call.
type InferResult struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"inputTokens,omitempty"`
	OutputTokens int    `json:"outputTokens,omitempty"`
}

// Provider defines the interface that all AI backends must implement.
type Provider interface {
	// Infer sends a prompt and returns the complete response.
	Infer(ctx context.Context, system string, messages []Message, opts InferOptions) (*InferResult, error)

	// Name returns the provider identifier.
	Name() string
}

// Settings selects and configures a provider. It is built once from
// configuration and passed in; providers never read the environment.
type Settings struct {
	Provider     string
	Model        string
	AnthropicKey string
	OpenAIKey    string
	GeminiKey    string
	// GeminiEndpoint overrides the Gemini API base URL.
	GeminiEndpoint string
	OllamaHost     string
}

// Providers lists the supported provider names.
var Providers = []string{"gemini", "anthropic", "openai", "ollama"}

// NewProvider creates a provider instance from settings.
func NewProvider(ctx context.Context, s Settings) (Provider, error) {
	switch strings.ToLower(s.Provider) {
	case "gemini":
		if s.GeminiKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set — get a key at https://aistudio.google.com/apikey", ErrNoProvider)
		}
		return NewGeminiProvider(ctx, s.GeminiKey, s.Model, s.GeminiEndpoint)
	case "anthropic":
		if s.AnthropicKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set — get your API key at https://console.anthropic.com/settings/keys", ErrNoProvider)
		}
		return NewAnthropicProvider(s.AnthropicKey, s.Model), nil
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNoProvider)
		}
		return NewOpenAIProvider(s.OpenAIKey, s.Model), nil
	case "ollama":
		host := s.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, s.Model), nil
	case "":
		return nil, fmt.Errorf("%w: no provider selected — supported providers: %s", ErrNoProvider, strings.Join(Providers, ", "))
	default:
		return nil, fmt.Errorf("unknown AI provider %q — supported providers: %s", s.Provider, strings.Join(Providers, ", "))
	}
}

// DefaultModel returns the model used for a provider when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return defaultAnthropicModel
	case "openai":
		return defaultGPTModel
	case "ollama":
		return defaultOllamaModel
	default:
		return defaultGeminiModel
	}
}

// modelFor picks the per-call model override, falling back to the provider's.
func modelFor(opts InferOptions, fallback string) string {
	if opts.Model != "" {
		return opts.Model
	}
	return fallback
}
