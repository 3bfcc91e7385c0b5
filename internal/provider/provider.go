package provider

import (
	"context"
	"errors"

	"github.com/kitbuilder587/databot/internal/domain"
)

var (
	ErrNotConfigured  = errors.New("provider credentials not configured")
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrNotFound       = errors.New("not found upstream")
	ErrUpstream       = errors.New("upstream request failed")
	ErrNoData         = errors.New("no data returned")
)

type WeatherProvider interface {
	Weather(ctx context.Context, location string) (*domain.WeatherData, error)
}

type NewsProvider interface {
	News(ctx context.Context, topic string, limit int) ([]domain.NewsArticle, error)
}

type CryptoProvider interface {
	Prices(ctx context.Context, coins []string) ([]domain.CryptoData, error)
}

type CurrencyProvider interface {
	Rate(ctx context.Context, from, to string) (*domain.CurrencyData, error)
}

type StockProvider interface {
	Quote(ctx context.Context, symbol string) (*domain.StockQuote, error)
}

// Set - набор источников. nil поле = источник выключен.
type Set struct {
	Weather  WeatherProvider
	News     NewsProvider
	Crypto   CryptoProvider
	Currency CurrencyProvider
	Stock    StockProvider
}

// Enabled returns topics that have a provider wired in.
func (s Set) Enabled() []domain.Topic {
	var topics []domain.Topic
	if s.Weather != nil {
		topics = append(topics, domain.TopicWeather)
	}
	if s.News != nil {
		topics = append(topics, domain.TopicNews)
	}
	if s.Crypto != nil {
		topics = append(topics, domain.TopicCrypto)
	}
	if s.Currency != nil {
		topics = append(topics, domain.TopicCurrency)
	}
	if s.Stock != nil {
		topics = append(topics, domain.TopicStock)
	}
	return topics
}
