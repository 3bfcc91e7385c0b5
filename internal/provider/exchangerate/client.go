package exchangerate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

const DefaultTarget = "USD"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	apiKey  string
	baseURL string
	fetcher *provider.Fetcher
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://v6.exchangerate-api.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		fetcher: provider.NewFetcher(cfg.Timeout, nil),
		logger:  logger,
	}
}

type pairResponse struct {
	Result             string  `json:"result"`
	ErrorType          string  `json:"error-type"`
	BaseCode           string  `json:"base_code"`
	TargetCode         string  `json:"target_code"`
	ConversionRate     float64 `json:"conversion_rate"`
	TimeLastUpdateUnix int64   `json:"time_last_update_unix"`
}

func (c *Client) Rate(ctx context.Context, from, to string) (*domain.CurrencyData, error) {
	if c.apiKey == "" {
		return nil, provider.ErrNotConfigured
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if to == "" {
		to = DefaultTarget
	}
	if from == "" {
		return nil, provider.ErrInvalidRequest
	}

	endpoint := fmt.Sprintf("%s/v6/%s/pair/%s/%s",
		c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(from), url.PathEscape(to))

	var resp pairResponse
	if err := c.fetcher.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("exchangerate: %w", err)
	}

	if resp.Result != "success" {
		return nil, fmt.Errorf("exchangerate: %w", mapErrorType(resp.ErrorType))
	}
	if resp.ConversionRate == 0 {
		return nil, provider.ErrNoData
	}

	c.logger.Debug("exchange rate fetched",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("rate", resp.ConversionRate),
	)

	return &domain.CurrencyData{
		From:        from,
		To:          to,
		Rate:        resp.ConversionRate,
		LastUpdated: time.Unix(resp.TimeLastUpdateUnix, 0).UTC(),
	}, nil
}

func mapErrorType(errorType string) error {
	switch errorType {
	case "unsupported-code", "malformed-request":
		return provider.ErrInvalidRequest
	case "invalid-key", "inactive-account":
		return provider.ErrUnauthorized
	case "quota-reached":
		return provider.ErrRateLimit
	default:
		return fmt.Errorf("%w: %s", provider.ErrUpstream, errorType)
	}
}
