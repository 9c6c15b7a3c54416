// Package ai defines the provider-neutral model interfaces and the registry
// that picks a model for a generation request.
package ai

import "context"

//go:generate mockgen -source=interface.go -destination=../mocks/ai/mock_ai.go -package=mock_ai

// ChatModel produces a completion for a prompt.
type ChatModel interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Embedder turns texts into fixed-dimension vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Role of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to a model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral chat request.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  *float32
}

// CompletionResponse carries the generated text and token usage.
type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}
