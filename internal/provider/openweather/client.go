package openweather

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

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
		cfg.BaseURL = "https://api.openweathermap.org"
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

type weatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
		Icon string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (c *Client) Weather(ctx context.Context, location string) (*domain.WeatherData, error) {
	if c.apiKey == "" {
		return nil, provider.ErrNotConfigured
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	var resp weatherResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/data/2.5/weather?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("openweather: %w", err)
	}

	if resp.Name == "" || len(resp.Weather) == 0 {
		return nil, provider.ErrNoData
	}

	c.logger.Debug("weather fetched",
		zap.String("location", resp.Name),
		zap.Float64("temp", resp.Main.Temp),
	)

	return &domain.WeatherData{
		Location:    resp.Name,
		Temperature: int(math.Round(resp.Main.Temp)),
		Condition:   resp.Weather[0].Main,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Icon:        resp.Weather[0].Icon,
	}, nil
}
