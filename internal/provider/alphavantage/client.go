package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

// бесплатный план: 5 запросов в минуту
const DefaultRequestsPerMinute = 5

type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

type Client struct {
	apiKey  string
	baseURL string
	fetcher *provider.Fetcher
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co"
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		fetcher: provider.NewFetcher(cfg.Timeout, provider.PerMinute(cfg.RequestsPerMinute)),
		logger:  logger,
	}
}

// quoteResponse: поля Alpha Vantage пронумерованы и приходят строками
type quoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
	Error       string            `json:"Error Message"`
}

func (c *Client) Quote(ctx context.Context, symbol string) (*domain.StockQuote, error) {
	if c.apiKey == "" {
		return nil, provider.ErrNotConfigured
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, provider.ErrInvalidRequest
	}

	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)

	var resp quoteResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/query?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage: %w", err)
	}

	switch {
	case resp.Error != "":
		return nil, fmt.Errorf("alphavantage: %w: %s", provider.ErrInvalidRequest, resp.Error)
	case resp.Note != "", resp.Information != "" && len(resp.GlobalQuote) == 0:
		// лимит сообщается телом с кодом 200
		return nil, fmt.Errorf("alphavantage: %w", provider.ErrRateLimit)
	case len(resp.GlobalQuote) == 0:
		return nil, fmt.Errorf("alphavantage: %w for %s", provider.ErrNoData, symbol)
	}

	quote, err := parseQuote(resp.GlobalQuote)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: %w", err)
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}

	c.logger.Debug("stock quote fetched",
		zap.String("symbol", quote.Symbol),
		zap.Float64("price", quote.Price),
	)

	return quote, nil
}

func parseQuote(raw map[string]string) (*domain.StockQuote, error) {
	price, err := parseNumber(raw["05. price"])
	if err != nil {
		return nil, fmt.Errorf("%w: price: %v", provider.ErrUpstream, err)
	}
	change, err := parseNumber(raw["09. change"])
	if err != nil {
		return nil, fmt.Errorf("%w: change: %v", provider.ErrUpstream, err)
	}
	percent, err := parseNumber(strings.TrimSuffix(raw["10. change percent"], "%"))
	if err != nil {
		return nil, fmt.Errorf("%w: change percent: %v", provider.ErrUpstream, err)
	}

	return &domain.StockQuote{
		Symbol:        raw["01. symbol"],
		Price:         price,
		Change:        change,
		ChangePercent: percent,
	}, nil
}

// пустое значение считаем нулём
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
