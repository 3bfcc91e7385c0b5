package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/databot/internal/llm"
)

type Client struct {
	Response string
	Error    error
	Delay    time.Duration

	mu    sync.Mutex
	calls []llm.ChatRequest
}

func New() *Client {
	return &Client{
		Response: "This is a mock response.",
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Error != nil {
		return "", c.Error
	}

	return c.Response, nil
}

func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// LastRequest - последний запрос, нулевой если вызовов не было
func (c *Client) LastRequest() llm.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return llm.ChatRequest{}
	}
	return c.calls[len(c.calls)-1]
}

func (c *Client) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

var _ llm.Client = (*Client)(nil)
