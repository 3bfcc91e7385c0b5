package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxBodySize ограничивает размер ответа апстрима
const maxBodySize = 4 << 20

// Fetcher - общий HTTP-клиент для всех апстримов: таймаут, опциональный
// лимит исходящих запросов и маппинг статусов в ошибки пакета.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func NewFetcher(timeout time.Duration, limiter *rate.Limiter) *Fetcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// GetJSON выполняет GET и декодирует тело в out
func (f *Fetcher) GetJSON(ctx context.Context, url string, header http.Header, out interface{}) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrRateLimit, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", ErrUpstream, err)
	}
	return nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return ErrRateLimit
	case code == http.StatusBadRequest:
		return ErrInvalidRequest
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrUpstream, code)
	}
}

// PerMinute - лимитер на n запросов в минуту, 0 = без лимита
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}
