package mock

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

// Provider - фейковый источник для всех тем сразу.
// Безопасен для конкурентных вызовов из роутера.
type Provider struct {
	WeatherData  *domain.WeatherData
	Articles     []domain.NewsArticle
	CryptoData   []domain.CryptoData
	CurrencyData *domain.CurrencyData
	StockData    *domain.StockQuote

	Errors map[domain.Topic]error
	Delay  time.Duration

	mu    sync.Mutex
	calls []Call
}

type Call struct {
	Topic domain.Topic
	Args  []string
}

// New возвращает провайдер с правдоподобными данными по всем темам
func New() *Provider {
	published := time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC)
	return &Provider{
		WeatherData: &domain.WeatherData{
			Location:    "London",
			Temperature: 15,
			Condition:   "light rain",
			Humidity:    80,
			WindSpeed:   4.1,
			Icon:        "10d",
		},
		Articles: []domain.NewsArticle{
			{
				Title:       "Chip makers rally on AI demand",
				Description: "Semiconductor stocks climbed for a third day.",
				URL:         "https://example.com/chips",
				Source:      "Reuters",
				PublishedAt: published,
			},
		},
		CryptoData: []domain.CryptoData{
			{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", CurrentPrice: 67000.5, PriceChange24h: 1200, PriceChangePercentage24h: 1.82},
			{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", CurrentPrice: 2450.25, PriceChange24h: -30, PriceChangePercentage24h: -1.21},
		},
		CurrencyData: &domain.CurrencyData{
			From:        "USD",
			To:          "EUR",
			Rate:        0.9234,
			LastUpdated: published,
		},
		StockData: &domain.StockQuote{
			Symbol:        "AAPL",
			Price:         189.84,
			Change:        -1.26,
			ChangePercent: -0.66,
		},
		Errors: make(map[domain.Topic]error),
	}
}

func (p *Provider) WithError(topic domain.Topic, err error) *Provider {
	p.mu.Lock()
	if p.Errors == nil {
		p.Errors = make(map[domain.Topic]error)
	}
	p.Errors[topic] = err
	p.mu.Unlock()
	return p
}

func (p *Provider) WithDelay(delay time.Duration) *Provider {
	p.Delay = delay
	return p
}

// Set - все пять источников указывают на этот провайдер
func (p *Provider) Set() provider.Set {
	return provider.Set{Weather: p, News: p, Crypto: p, Currency: p, Stock: p}
}

func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount - сколько раз вызывали источник темы
func (p *Provider) CallCount(topic domain.Topic) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Topic == topic {
			n++
		}
	}
	return n
}

func (p *Provider) record(ctx context.Context, topic domain.Topic, args ...string) error {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Topic: topic, Args: args})
	err := p.Errors[topic]
	p.mu.Unlock()

	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return err
}

func (p *Provider) Weather(ctx context.Context, location string) (*domain.WeatherData, error) {
	if err := p.record(ctx, domain.TopicWeather, location); err != nil {
		return nil, err
	}
	if p.WeatherData == nil {
		return nil, provider.ErrNoData
	}
	w := *p.WeatherData
	w.Location = location
	return &w, nil
}

func (p *Provider) News(ctx context.Context, topic string, limit int) ([]domain.NewsArticle, error) {
	if err := p.record(ctx, domain.TopicNews, topic, strconv.Itoa(limit)); err != nil {
		return nil, err
	}
	if len(p.Articles) == 0 {
		return nil, provider.ErrNoData
	}
	if limit > 0 && limit < len(p.Articles) {
		return p.Articles[:limit], nil
	}
	return p.Articles, nil
}

func (p *Provider) Prices(ctx context.Context, coins []string) ([]domain.CryptoData, error) {
	if err := p.record(ctx, domain.TopicCrypto, coins...); err != nil {
		return nil, err
	}

	// отдаём только запрошенные монеты, в порядке запроса
	var result []domain.CryptoData
	for _, coin := range coins {
		for _, d := range p.CryptoData {
			if d.ID == coin {
				result = append(result, d)
			}
		}
	}
	if len(result) == 0 {
		return nil, provider.ErrNoData
	}
	return result, nil
}

func (p *Provider) Rate(ctx context.Context, from, to string) (*domain.CurrencyData, error) {
	if err := p.record(ctx, domain.TopicCurrency, from, to); err != nil {
		return nil, err
	}
	if p.CurrencyData == nil {
		return nil, provider.ErrNoData
	}
	c := *p.CurrencyData
	c.From = strings.ToUpper(from)
	c.To = strings.ToUpper(to)
	return &c, nil
}

func (p *Provider) Quote(ctx context.Context, symbol string) (*domain.StockQuote, error) {
	if err := p.record(ctx, domain.TopicStock, symbol); err != nil {
		return nil, err
	}
	if p.StockData == nil {
		return nil, provider.ErrNoData
	}
	q := *p.StockData
	q.Symbol = symbol
	return &q, nil
}

var (
	_ provider.WeatherProvider  = (*Provider)(nil)
	_ provider.NewsProvider     = (*Provider)(nil)
	_ provider.CryptoProvider   = (*Provider)(nil)
	_ provider.CurrencyProvider = (*Provider)(nil)
	_ provider.StockProvider    = (*Provider)(nil)
)
