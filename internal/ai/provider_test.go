package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture records the last request body and headers a fake backend saw.
type capture struct {
	path   string
	header http.Header
	body   map[string]any
}

func fakeBackend(t *testing.T, status int, reply string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

var userMsg = []Message{{Role: "user", Content: "sum column B"}}

func TestAnthropicInfer(t *testing.T) {
	srv, got := fakeBackend(t, http.StatusOK, `{
		"content": [{"text": "a,b\n"}, {"text": "1,2"}],
		"model": "claude-test",
		"usage": {"input_tokens": 11, "output_tokens": 4}
	}`)

	p := NewAnthropicProvider("sk-test", "")
	p.url = srv.URL

	res, err := p.Infer(context.Background(), "be terse", userMsg, InferOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", res.Content)
	assert.Equal(t, "claude-test", res.Model)
	assert.Equal(t, 11, res.InputTokens)
	assert.Equal(t, 4, res.OutputTokens)

	assert.Equal(t, "sk-test", got.header.Get("x-api-key"))
	assert.Equal(t, "be terse", got.body["system"])
	assert.Equal(t, defaultAnthropicModel, got.body["model"])
	assert.EqualValues(t, 4096, got.body["max_tokens"])
}

func TestAnthropicAuthError(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusUnauthorized, `{"error": {"type": "authentication_error", "message": "bad key"}}`)

	p := NewAnthropicProvider("sk-bad", "")
	p.url = srv.URL

	_, err := p.Infer(context.Background(), "", userMsg, InferOptions{})
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}

func TestOpenAIInfer(t *testing.T) {
	srv, got := fakeBackend(t, http.StatusOK, `{
		"choices": [{"message": {"content": "42"}}],
		"model": "gpt-test",
		"usage": {"prompt_tokens": 9, "completion_tokens": 1}
	}`)

	p := NewOpenAIProvider("sk-test", "gpt-mini")
	p.url = srv.URL

	res, err := p.Infer(context.Background(), "system text", userMsg, InferOptions{Model: "gpt-override"})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Content)
	assert.Equal(t, 9, res.InputTokens)

	assert.Equal(t, "Bearer sk-test", got.header.Get("Authorization"))
	assert.Equal(t, "gpt-override", got.body["model"])
	msgs := got.body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIStatusError(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusTooManyRequests, `{"error": {"message": "slow down"}}`)

	p := NewOpenAIProvider("sk-test", "")
	p.url = srv.URL

	_, err := p.Infer(context.Background(), "", userMsg, InferOptions{})
	assert.ErrorContains(t, err, "status 429")
}

func TestOllamaInfer(t *testing.T) {
	srv, got := fakeBackend(t, http.StatusOK, `{
		"model": "llama-test",
		"message": {"content": "[[1,2]]"},
		"prompt_eval_count": 5,
		"eval_count": 3,
		"done": true
	}`)

	p := NewOllamaProvider(srv.URL+"/", "")
	res, err := p.Infer(context.Background(), "", userMsg, InferOptions{})
	require.NoError(t, err)
	assert.Equal(t, "[[1,2]]", res.Content)
	assert.Equal(t, "llama-test", res.Model)
	assert.Equal(t, "/api/chat", got.path)
	assert.Equal(t, false, got.body["stream"])
}

func TestGeminiInfer(t *testing.T) {
	srv, got := fakeBackend(t, http.StatusOK, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "Region,Total"}]}}],
		"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 2},
		"modelVersion": "gemini-test"
	}`)

	p, err := NewGeminiProvider(context.Background(), "g-key", "", srv.URL)
	require.NoError(t, err)

	res, err := p.Infer(context.Background(), "be terse", userMsg, InferOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Region,Total", res.Content)
	assert.Equal(t, "gemini-test", res.Model)
	assert.Equal(t, 7, res.InputTokens)
	assert.Equal(t, 2, res.OutputTokens)

	assert.True(t, strings.HasSuffix(got.path, "models/"+defaultGeminiModel+":generateContent"), got.path)
	assert.Equal(t, "g-key", got.header.Get("x-goog-api-key"))
	assert.Contains(t, got.body, "systemInstruction")
}

func TestGeminiUpstreamError(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusInternalServerError, `{"error": {"code": 500, "message": "boom", "status": "INTERNAL"}}`)

	p, err := NewGeminiProvider(context.Background(), "g-key", "", srv.URL)
	require.NoError(t, err)

	_, err = p.Infer(context.Background(), "", userMsg, InferOptions{})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	_, err := NewProvider(ctx, Settings{})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = NewProvider(ctx, Settings{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = NewProvider(ctx, Settings{Provider: "anthropic"})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = NewProvider(ctx, Settings{Provider: "bard"})
	assert.ErrorContains(t, err, "unknown AI provider")

	p, err := NewProvider(ctx, Settings{Provider: "Ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "http://localhost:11434", p.(*OllamaProvider).host)

	p, err = NewProvider(ctx, Settings{Provider: "openai", OpenAIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(ctx, Settings{Provider: "gemini", GeminiKey: "g", Model: "gemini-x"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, "gemini-x", p.(*GeminiProvider).model)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, defaultGeminiModel, DefaultModel(""))
	assert.Equal(t, defaultAnthropicModel, DefaultModel("anthropic"))
	assert.Equal(t, defaultOllamaModel, DefaultModel("OLLAMA"))
}
