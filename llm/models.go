// Package llm provides shared data models for LLM providers.
package llm

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// continuePrompt is appended for providers that read a trailing assistant
// turn as a prefill to extend rather than a finished reply.
const continuePrompt = "Continue."

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64 JPEG payloads
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}

// ImageMessage creates a user message carrying one base64 encoded JPEG.
func ImageMessage(encoded string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: "Image attached.",
		Images:  []string{encoded},
	}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// ResponseFormatType defines the type of response format.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONObject ResponseFormatType = "json_object"
)

// CallOptions are the per-request generation parameters.
// Zero values fall back to the provider's configured defaults.
type CallOptions struct {
	Model       string
	MaxTokens   int
	Temperature *float32
	Format      ResponseFormatType
}

// JSON reports whether the caller asked for a JSON object.
func (o CallOptions) JSON() bool {
	return o.Format == ResponseFormatJSONObject
}

// Float32 returns a pointer to v, for CallOptions.Temperature.
func Float32(v float32) *float32 {
	return &v
}
