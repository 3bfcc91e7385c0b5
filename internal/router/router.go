package router

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/provider"
)

const (
	DefaultAdapterTimeout = 5 * time.Second
	DefaultNewsLimit      = 5
)

var tracer = otel.Tracer("github.com/kitbuilder587/databot/internal/router")

type Deps struct {
	Providers provider.Set
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	// AdapterTimeout - таймаут одного вызова источника
	AdapterTimeout time.Duration
	NewsLimit      int
}

// Router распознаёт темы запроса и параллельно опрашивает источники
type Router struct {
	providers provider.Set
	logger    *zap.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	newsLimit int
}

func New(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.AdapterTimeout <= 0 {
		deps.AdapterTimeout = DefaultAdapterTimeout
	}
	if deps.NewsLimit <= 0 {
		deps.NewsLimit = DefaultNewsLimit
	}

	return &Router{
		providers: deps.Providers,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		timeout:   deps.AdapterTimeout,
		newsLimit: deps.NewsLimit,
	}
}

// Enabled - темы, для которых подключён источник
func (r *Router) Enabled() []domain.Topic {
	return r.providers.Enabled()
}

// Search никогда не возвращает ошибку: упавший источник просто
// отсутствует в результате и не мешает остальным.
func (r *Router) Search(ctx context.Context, query string) *domain.SearchResults {
	ctx, span := tracer.Start(ctx, "router.Search")
	defer span.End()

	matches := Detect(query)
	span.SetAttributes(attribute.Int("router.matches", len(matches)))

	if len(matches) == 0 {
		return &domain.SearchResults{}
	}

	// каждая горутина пишет только в свой слот, собираем после Wait
	var (
		weather  *domain.WeatherData
		news     []domain.NewsArticle
		crypto   []domain.CryptoData
		currency *domain.CurrencyData
		stock    *domain.StockQuote
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, m := range matches {
		r.metrics.RecordTopicDetected(string(m.Topic))

		switch m.Topic {
		case domain.TopicWeather:
			if r.providers.Weather == nil {
				r.logDisabled(m.Topic)
				continue
			}
			g.Go(func() error {
				r.call(gctx, m, func(ctx context.Context) (bool, error) {
					w, err := r.providers.Weather.Weather(ctx, m.Params.Location)
					if err == nil && w != nil {
						weather = w
					}
					return w != nil, err
				})
				return nil
			})

		case domain.TopicNews:
			if r.providers.News == nil {
				r.logDisabled(m.Topic)
				continue
			}
			g.Go(func() error {
				r.call(gctx, m, func(ctx context.Context) (bool, error) {
					articles, err := r.providers.News.News(ctx, m.Params.NewsTopic, r.newsLimit)
					if err == nil {
						news = articles
					}
					return len(articles) > 0, err
				})
				return nil
			})

		case domain.TopicCrypto:
			if r.providers.Crypto == nil {
				r.logDisabled(m.Topic)
				continue
			}
			g.Go(func() error {
				r.call(gctx, m, func(ctx context.Context) (bool, error) {
					prices, err := r.providers.Crypto.Prices(ctx, m.Params.Coins)
					if err == nil {
						crypto = prices
					}
					return len(prices) > 0, err
				})
				return nil
			})

		case domain.TopicCurrency:
			if r.providers.Currency == nil {
				r.logDisabled(m.Topic)
				continue
			}
			g.Go(func() error {
				r.call(gctx, m, func(ctx context.Context) (bool, error) {
					rate, err := r.providers.Currency.Rate(ctx, m.Params.From, m.Params.To)
					if err == nil && rate != nil {
						currency = rate
					}
					return rate != nil, err
				})
				return nil
			})

		case domain.TopicStock:
			if r.providers.Stock == nil {
				r.logDisabled(m.Topic)
				continue
			}
			g.Go(func() error {
				r.call(gctx, m, func(ctx context.Context) (bool, error) {
					quote, err := r.providers.Stock.Quote(ctx, m.Params.Symbol)
					if err == nil && quote != nil {
						stock = quote
					}
					return quote != nil, err
				})
				return nil
			})
		}
	}

	// все горутины возвращают nil, ошибка тут невозможна
	_ = g.Wait()

	results := &domain.SearchResults{
		Weather:  weather,
		News:     news,
		Crypto:   crypto,
		Currency: currency,
		Stock:    stock,
	}

	span.SetAttributes(attribute.Int("router.topics", len(results.Topics())))
	return results
}

// call выполняет один вызов источника с собственным таймаутом.
// Ошибка логируется и поглощается.
func (r *Router) call(ctx context.Context, m domain.Match, fn func(ctx context.Context) (bool, error)) {
	ctx, span := tracer.Start(ctx, "router.adapter",
		trace.WithAttributes(attribute.String("router.topic", string(m.Topic))))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	found, err := r.safeCall(ctx, fn)
	duration := time.Since(start)

	status := "ok"
	switch {
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, provider.ErrNotConfigured) {
			status = "not_configured"
			r.logger.Warn("provider not configured", zap.String("topic", string(m.Topic)))
		} else {
			if errors.Is(err, context.DeadlineExceeded) {
				status = "timeout"
			}
			r.logger.Warn("provider call failed",
				zap.String("topic", string(m.Topic)),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		}
	case !found:
		status = "empty"
		r.logger.Debug("provider returned no data", zap.String("topic", string(m.Topic)))
	}

	r.metrics.RecordAdapterCall(string(m.Topic), status, duration)
}

// safeCall: паника в адаптере не должна уронить весь запрос
func (r *Router) safeCall(ctx context.Context, fn func(ctx context.Context) (bool, error)) (found bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("provider panic", zap.Any("panic", rec))
			found, err = false, provider.ErrUpstream
		}
	}()
	return fn(ctx)
}

func (r *Router) logDisabled(topic domain.Topic) {
	r.logger.Warn("provider disabled, skipping topic", zap.String("topic", string(topic)))
	r.metrics.RecordAdapterCall(string(topic), "disabled", 0)
}
