// Ollama Provider - local models through Ollama's OpenAI-compatible endpoint.
//
// Information Hiding:
// - Host resolution (OLLAMA_HOST or localhost)
// - Ollama ignores the API key but go-openai requires one

package llm

import (
	"os"
	"strings"
)

// DefaultOllamaHost is used when OLLAMA_HOST is not set.
const DefaultOllamaHost = "http://localhost:11434"

// NewOllamaProvider creates a provider for an Ollama server at host.
// An empty host resolves from OLLAMA_HOST, then DefaultOllamaHost.
func NewOllamaProvider(host, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	p := newCompatibleProvider("ollama", "ollama", ollamaBaseURL(host), model, maxTokens, temperature)
	p.legacyMaxTokens = true
	return p
}

func ollamaBaseURL(host string) string {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = DefaultOllamaHost
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}
