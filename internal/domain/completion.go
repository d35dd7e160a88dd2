package domain

import "context"

// Completer is the chat completion contract between the LLM transport and use cases.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies LLM provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest asks the provider for one assistant turn.
// MaxTokens doubles as the token budget requested from the limit evaluator.
type CompletionRequest struct {
	Model     string    `json:"model,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"maxTokens"`
}

// CompletionResult carries the assistant reply and token usage.
type CompletionResult struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	FinishReason     string `json:"finishReason,omitempty"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
}
