package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/llm"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Referer и Title нужны OpenRouter для атрибуции приложения
	Referer string
	Title   string
}

// Client ходит в OpenRouter через OpenAI-совместимый API
type Client struct {
	api    *openai.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Referer == "" {
		cfg.Referer = "https://github.com/kitbuilder587/databot"
	}
	if cfg.Title == "" {
		cfg.Title = "Databot"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: cfg.Referer,
			title:   cfg.Title,
		},
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = llm.DefaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", c.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}

	c.logger.Debug("openrouter completion",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return content, nil
}

func (c *Client) mapError(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.ErrAuthFailed
	case http.StatusTooManyRequests:
		return llm.ErrRateLimit
	}

	c.logger.Error("openrouter request failed", zap.Int("status", status), zap.Error(err))
	return fmt.Errorf("%w: %v", llm.ErrRequestFailed, err)
}

type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", t.referer)
	req.Header.Set("X-Title", t.title)
	return t.base.RoundTrip(req)
}

var _ llm.Client = (*Client)(nil)
