package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/provider"
	"github.com/kitbuilder587/databot/internal/router"
)

const maxNewsLimit = 100

// Router - то, что нужно сервисам от роутера
type Router interface {
	Search(ctx context.Context, query string) *domain.SearchResults
}

type SearchServiceDeps struct {
	Router    Router
	Providers provider.Set
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// SearchService - поиск по свободному тексту и прямые запросы к источникам
type SearchService struct {
	router    Router
	providers provider.Set
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewSearchService(deps SearchServiceDeps) *SearchService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SearchService{
		router:    deps.Router,
		providers: deps.Providers,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

func (s *SearchService) Search(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error) {
	startTime := time.Now()

	s.metrics.IncRequestsInFlight()
	defer s.metrics.DecRequestsInFlight()

	if err := req.Validate(); err != nil {
		s.metrics.RecordRequest("search", "validation_error", time.Since(startTime))
		return nil, err
	}
	req.Sanitize()

	s.logger.Info("processing search",
		zap.String("user_id", req.UserID),
		zap.Int("query_length", len(req.Text)),
	)

	results := s.router.Search(ctx, req.Text)
	formatted := router.Format(results)

	status := "ok"
	if results.Empty() {
		status = "empty"
	}
	s.metrics.RecordRequest("search", status, time.Since(startTime))

	s.logger.Info("search completed",
		zap.String("user_id", req.UserID),
		zap.Any("topics", results.Topics()),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &domain.QueryResponse{
		Query:     req.Text,
		Results:   results,
		Formatted: formatted,
	}, nil
}

func (s *SearchService) Weather(ctx context.Context, location string) (*domain.WeatherData, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("location: %w", domain.ErrMissingParam)
	}
	if s.providers.Weather == nil {
		return nil, domain.ErrTopicUnavailable
	}

	data, err := s.providers.Weather.Weather(ctx, location)
	return data, s.lookupErr(domain.TopicWeather, err)
}

func (s *SearchService) News(ctx context.Context, topic string, limit int) ([]domain.NewsArticle, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = domain.DefaultNewsTopic
	}
	if limit <= 0 {
		limit = router.DefaultNewsLimit
	}
	if limit > maxNewsLimit {
		limit = maxNewsLimit
	}
	if s.providers.News == nil {
		return nil, domain.ErrTopicUnavailable
	}

	articles, err := s.providers.News.News(ctx, topic, limit)
	return articles, s.lookupErr(domain.TopicNews, err)
}

func (s *SearchService) Crypto(ctx context.Context, coins []string) ([]domain.CryptoData, error) {
	var cleaned []string
	for _, c := range coins {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		cleaned = domain.DefaultCoins
	}
	if s.providers.Crypto == nil {
		return nil, domain.ErrTopicUnavailable
	}

	prices, err := s.providers.Crypto.Prices(ctx, cleaned)
	return prices, s.lookupErr(domain.TopicCrypto, err)
}

func (s *SearchService) Exchange(ctx context.Context, from, to string) (*domain.CurrencyData, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" {
		return nil, fmt.Errorf("from: %w", domain.ErrMissingParam)
	}
	if to == "" {
		to = "USD"
	}
	if s.providers.Currency == nil {
		return nil, domain.ErrTopicUnavailable
	}

	rate, err := s.providers.Currency.Rate(ctx, from, to)
	return rate, s.lookupErr(domain.TopicCurrency, err)
}

func (s *SearchService) Stock(ctx context.Context, symbol string) (*domain.StockQuote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol: %w", domain.ErrMissingParam)
	}
	if s.providers.Stock == nil {
		return nil, domain.ErrTopicUnavailable
	}

	quote, err := s.providers.Stock.Quote(ctx, symbol)
	return quote, s.lookupErr(domain.TopicStock, err)
}

// lookupErr переводит ошибки источника в доменные. Прямые запросы,
// в отличие от роутера, сообщают об ошибке вызывающему.
func (s *SearchService) lookupErr(topic domain.Topic, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		s.logger.Warn("provider not configured", zap.String("topic", string(topic)))
		return domain.ErrTopicUnavailable
	case errors.Is(err, provider.ErrNoData), errors.Is(err, provider.ErrNotFound), errors.Is(err, provider.ErrInvalidRequest):
		return fmt.Errorf("%s: %w", topic, domain.ErrNotFound)
	default:
		s.logger.Warn("direct lookup failed", zap.String("topic", string(topic)), zap.Error(err))
		return fmt.Errorf("%s: %w", topic, err)
	}
}
