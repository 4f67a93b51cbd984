// Security tests for LLM providers to ensure error messages don't leak API keys.
package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestOpenAIErrorNoAPIKeyLeak verifies OpenAI errors don't contain API keys
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	// Use intentionally invalid API key
	testKey := "sk-test-invalid-key-12345xyz"
	provider := NewOpenAIProvider(testKey, "gpt-4o", 100, 0.7)

	// Force error with invalid key
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")}, CallOptions{})

	// Should return an error
	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	// Verify error doesn't contain the API key
	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("OpenAI error message leaked API key: %v", errStr)
	}

	// Should not contain common auth header patterns
	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("OpenAI error exposed Authorization header: %v", errStr)
	}
}

// TestAnthropicErrorNoAPIKeyLeak verifies Anthropic errors don't contain API keys
func TestAnthropicErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-ant-REDACTED"
	provider := NewAnthropicProvider(testKey, "claude-sonnet-4-20250514", 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")}, CallOptions{})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Anthropic error message leaked API key: %v", errStr)
	}

	if strings.Contains(errStr, "x-api-key:") || strings.Contains(errStr, "X-API-Key:") {
		t.Errorf("Anthropic error exposed API key header: %v", errStr)
	}
}

// TestDeepSeekErrorNoAPIKeyLeak verifies DeepSeek errors don't contain API keys
func TestDeepSeekErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	provider := NewDeepSeekProvider(testKey, "deepseek-chat", 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")}, CallOptions{})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("DeepSeek error message leaked API key: %v", errStr)
	}

	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("DeepSeek error exposed Authorization header: %v", errStr)
	}
}

// TestGeminiErrorNoAPIKeyLeak verifies Gemini errors don't contain API keys
func TestGeminiErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "test-invalid-key-12345xyz"
	provider := NewGeminiProvider(testKey, "gemini-2.5-flash", 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")}, CallOptions{})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Gemini error message leaked API key: %v", errStr)
	}

	// Gemini uses x-goog-api-key header
	if strings.Contains(errStr, "x-goog-api-key:") {
		t.Errorf("Gemini error exposed API key header: %v", errStr)
	}
}

// TestGeminiInitErrorPreserved verifies Gemini returns initialization errors
func TestGeminiInitErrorPreserved(t *testing.T) {
	// Use invalid key that should fail during client initialization
	provider := NewGeminiProvider("", "gemini-2.5-flash", 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")}, CallOptions{})

	// Should return an error
	if err == nil {
		t.Error("Expected initialization error to be returned, got nil")
		return
	}

	// Error should indicate initialization failure
	errStr := err.Error()
	if !strings.Contains(errStr, "failed to initialize") {
		t.Errorf("Expected initialization error, got: %v", errStr)
	}
}

// ollamaStub serves the OpenAI-compatible chat endpoint and captures the
// last request body.
func ollamaStub(t *testing.T, status int, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		captured = map[string]any{}
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

const ollamaReply = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "llama3.2-vision",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"title\":\"ok\"}"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

// TestOllamaChatRequestShape verifies per-call options reach the wire.
func TestOllamaChatRequestShape(t *testing.T) {
	srv, captured := ollamaStub(t, http.StatusOK, ollamaReply)
	provider := NewOllamaProvider(srv.URL, ModelOllamaLlama32Vision, 1024, 0.2)

	resp, err := provider.Chat(context.Background(), []ChatMessage{
		SystemMessage("be brief"),
		ImageMessage("aGVsbG8="),
	}, CallOptions{MaxTokens: 700, Temperature: Float32(0.5), Format: ResponseFormatJSONObject})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != `{"title":"ok"}` {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 17 {
		t.Errorf("expected usage total 17, got %+v", resp.Usage)
	}

	req := *captured
	if req["max_tokens"] != float64(700) {
		t.Errorf("expected max_tokens 700, got %v", req["max_tokens"])
	}
	if req["temperature"] != 0.5 {
		t.Errorf("expected temperature 0.5, got %v", req["temperature"])
	}
	format, _ := req["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", req["response_format"])
	}

	messages, _ := req["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	image, _ := messages[1].(map[string]any)
	parts, _ := image["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text and image parts, got %v", image["content"])
	}
	imagePart, _ := parts[1].(map[string]any)
	url, _ := imagePart["image_url"].(map[string]any)
	if !strings.HasPrefix(url["url"].(string), "data:image/jpeg;base64,") {
		t.Errorf("expected data URL, got %v", url["url"])
	}
}

// TestOllamaDefaultsApplied verifies provider defaults fill zero options.
func TestOllamaDefaultsApplied(t *testing.T) {
	srv, captured := ollamaStub(t, http.StatusOK, ollamaReply)
	provider := NewOllamaProvider(srv.URL, "qwen2.5", 300, 0.2)

	if _, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("hi")}, CallOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := *captured
	if req["model"] != "qwen2.5" {
		t.Errorf("expected default model, got %v", req["model"])
	}
	if req["max_tokens"] != float64(300) {
		t.Errorf("expected default max_tokens 300, got %v", req["max_tokens"])
	}
	if _, ok := req["response_format"]; ok {
		t.Errorf("text mode should not send response_format")
	}
}

// TestOllamaErrorWrapped verifies backend failures surface as errors.
func TestOllamaErrorWrapped(t *testing.T) {
	srv, _ := ollamaStub(t, http.StatusInternalServerError, `{"error": {"message": "model not found"}}`)
	provider := NewOllamaProvider(srv.URL, "missing", 100, 0.2)

	_, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("hi")}, CallOptions{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "chat completion failed") {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestOllamaBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	tests := []struct {
		host string
		want string
	}{
		{"", DefaultOllamaHost + "/v1"},
		{"gpu-box:11434", "http://gpu-box:11434/v1"},
		{"https://ollama.example.com/", "https://ollama.example.com/v1"},
	}
	for _, tt := range tests {
		if got := ollamaBaseURL(tt.host); got != tt.want {
			t.Errorf("ollamaBaseURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}

	t.Setenv("OLLAMA_HOST", "10.0.0.5:11434")
	if got := ollamaBaseURL(""); got != "http://10.0.0.5:11434/v1" {
		t.Errorf("expected OLLAMA_HOST to be used, got %q", got)
	}
}

func TestParseProviderType(t *testing.T) {
	tests := map[string]ProviderType{
		"":         ProviderOllama,
		"local":    ProviderOllama,
		"Ollama":   ProviderOllama,
		"claude":   ProviderAnthropic,
		"gpt":      ProviderOpenAI,
		"deepseek": ProviderDeepSeek,
		"google":   ProviderGemini,
	}
	for in, want := range tests {
		got, err := ParseProviderType(in)
		if err != nil {
			t.Errorf("ParseProviderType(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseProviderType("mystery"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestOllamaNeedsNoKey(t *testing.T) {
	p, err := ProviderOllama.FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ollama" || p.Model() != ModelOllamaLlama32Vision {
		t.Errorf("unexpected provider %s/%s", p.Name(), p.Model())
	}
}
