package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

const (
	DefaultSystemPrompt = "You are a helpful, friendly assistant. Provide clear and concise responses."
	DefaultTemperature  = 0.7
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest - один вызов модели. System добавляется первым сообщением.
type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float32
}

type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
