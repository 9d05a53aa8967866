package models

// CompletionInput represents the input for a completion request.
type CompletionInput struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
	Stream      bool
	Provider    string // Specifies the provider explicitly
}

// ChatMessage represents a message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents the response from a completion request.
type CompletionResponse struct {
	Text     string
	Usage    *Usage
	Provider string // Indicates which provider generated the response
}

// Usage represents the token usage information for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamingCompletionResponse represents a chunk of a streaming completion response.
type StreamingCompletionResponse struct {
	Text     string
	Done     bool
	Error    error
	Usage    *Usage
	Provider string // Indicates which provider generated the response
}
