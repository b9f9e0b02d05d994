package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaModel = "llama3.1"

// OllamaProvider implements the Provider interface for local Ollama models.
type OllamaProvider struct {
	host   string
	model  string
	client *http.Client
}

// NewOllamaProvider creates a new Ollama provider with the given host and model.
func NewOllamaProvider(host, model string) *OllamaProvider {
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{Timeout: 300 * time.Second},
	}
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
	Done            bool `json:"done"`
}

// Infer sends a prompt to Ollama and returns the complete response.
func (p *OllamaProvider) Infer(ctx context.Context, system string, messages []Message, opts InferOptions) (*InferResult, error) {
	model := modelFor(opts, p.model)

	msgs := make([]ollamaMessage, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		msgs = append(msgs, ollamaMessage(m))
	}

	reqBody := ollamaRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
	}
	if opts.Temperature != 0 || opts.MaxTokens != 0 {
		reqBody.Options = &ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not connect to Ollama at %s — is Ollama running? Start it with 'ollama serve'", p.host)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp ollamaResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("could not parse response: %w", err)
	}

	if apiResp.Model != "" {
		model = apiResp.Model
	}

	return &InferResult{
		Content:      apiResp.Message.Content,
		Model:        model,
		InputTokens:  apiResp.PromptEvalCount,
		OutputTokens: apiResp.EvalCount,
	}, nil
}
