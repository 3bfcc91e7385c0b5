package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/cache"
	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/provider"
)

const DefaultTTL = 5 * time.Minute

type Options struct {
	TTL     time.Duration
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Wrap оборачивает каждый непустой источник набора кешем.
// Ошибки не кешируются.
func Wrap(set provider.Set, c cache.Cache, opts Options) provider.Set {
	if c == nil {
		return set
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	b := base{cache: c, ttl: opts.TTL, metrics: opts.Metrics, logger: opts.Logger}

	out := provider.Set{}
	if set.Weather != nil {
		out.Weather = &weather{base: b, next: set.Weather}
	}
	if set.News != nil {
		out.News = &news{base: b, next: set.News}
	}
	if set.Crypto != nil {
		out.Crypto = &crypto{base: b, next: set.Crypto}
	}
	if set.Currency != nil {
		out.Currency = &currency{base: b, next: set.Currency}
	}
	if set.Stock != nil {
		out.Stock = &stock{base: b, next: set.Stock}
	}
	return out
}

type base struct {
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// fetchCached: попадание в кеш отдаёт декодированное значение,
// промах вызывает fetch и сохраняет результат
func fetchCached[T any](ctx context.Context, b base, topic domain.Topic, key string, fetch func() (T, error)) (T, error) {
	key = string(topic) + ":" + key

	if raw, ok := b.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			b.metrics.RecordCacheHit(string(topic))
			return v, nil
		}
		// битая запись, перезапросим
		b.logger.Warn("invalid cache entry", zap.String("key", key))
		b.cache.Delete(ctx, key)
	}
	b.metrics.RecordCacheMiss(string(topic))

	v, err := fetch()
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	b.cache.Set(ctx, key, raw, b.ttl)
	return v, nil
}

func normKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, ":")
}

type weather struct {
	base
	next provider.WeatherProvider
}

func (w *weather) Weather(ctx context.Context, location string) (*domain.WeatherData, error) {
	return fetchCached(ctx, w.base, domain.TopicWeather, normKey(location), func() (*domain.WeatherData, error) {
		return w.next.Weather(ctx, location)
	})
}

type news struct {
	base
	next provider.NewsProvider
}

func (n *news) News(ctx context.Context, topic string, limit int) ([]domain.NewsArticle, error) {
	return fetchCached(ctx, n.base, domain.TopicNews, normKey(topic, fmt.Sprint(limit)), func() ([]domain.NewsArticle, error) {
		return n.next.News(ctx, topic, limit)
	})
}

type crypto struct {
	base
	next provider.CryptoProvider
}

func (c *crypto) Prices(ctx context.Context, coins []string) ([]domain.CryptoData, error) {
	key := normKey(append([]string(nil), coins...)...)
	return fetchCached(ctx, c.base, domain.TopicCrypto, key, func() ([]domain.CryptoData, error) {
		return c.next.Prices(ctx, coins)
	})
}

type currency struct {
	base
	next provider.CurrencyProvider
}

func (c *currency) Rate(ctx context.Context, from, to string) (*domain.CurrencyData, error) {
	return fetchCached(ctx, c.base, domain.TopicCurrency, normKey(from, to), func() (*domain.CurrencyData, error) {
		return c.next.Rate(ctx, from, to)
	})
}

type stock struct {
	base
	next provider.StockProvider
}

func (s *stock) Quote(ctx context.Context, symbol string) (*domain.StockQuote, error) {
	return fetchCached(ctx, s.base, domain.TopicStock, normKey(symbol), func() (*domain.StockQuote, error) {
		return s.next.Quote(ctx, symbol)
	})
}
