package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider. A non-empty endpoint replaces
// the default API base URL.
func NewGeminiProvider(ctx context.Context, apiKey, model, endpoint string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(endpoint, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Infer sends a prompt to Gemini and returns the complete response.
func (p *GeminiProvider) Infer(ctx context.Context, system string, messages []Message, opts InferOptions) (*InferResult, error) {
	model := modelFor(opts, p.model)

	contents := make([]*genai.Content, len(messages))
	for i, m := range messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents[i] = genai.NewContentFromText(m.Content, genai.Role(role))
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("Gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("Gemini returned no candidates")
	}

	result := &InferResult{
		Content: resp.Text(),
		Model:   model,
	}
	if resp.ModelVersion != "" {
		result.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		result.InputTokens = int(u.PromptTokenCount)
		result.OutputTokens = int(u.CandidatesTokenCount)
	}
	return result, nil
}
