package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/cache"
	"github.com/kitbuilder587/databot/internal/cache/memory"
	"github.com/kitbuilder587/databot/internal/cache/redis"
	"github.com/kitbuilder587/databot/internal/config"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/provider"
	"github.com/kitbuilder587/databot/internal/provider/alphavantage"
	"github.com/kitbuilder587/databot/internal/provider/cached"
	"github.com/kitbuilder587/databot/internal/provider/coingecko"
	"github.com/kitbuilder587/databot/internal/provider/exchangerate"
	"github.com/kitbuilder587/databot/internal/provider/newsapi"
	"github.com/kitbuilder587/databot/internal/provider/openweather"
	"github.com/kitbuilder587/databot/internal/router"
)

// Requests per minute for upstreams with strict free-tier quotas.
const (
	newsAPIRPM      = 30
	coinGeckoRPM    = 30
	alphaVantageRPM = 5
)

// dataStack - кеш, источники и роутер, общие для serve и ask
type dataStack struct {
	providers provider.Set
	router    *router.Router
	closers   []func()
}

func (d *dataStack) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func buildDataStack(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*dataStack, error) {
	stack := &dataStack{}

	c, err := buildCache(ctx, cfg.Cache, logger, stack)
	if err != nil {
		stack.Close()
		return nil, err
	}

	pc := cfg.Providers
	set := provider.Set{
		Weather: openweather.New(openweather.Config{
			APIKey:  pc.OpenWeatherAPIKey,
			Timeout: pc.HTTPTimeout,
		}, logger),
		News: newsapi.New(newsapi.Config{
			APIKey:            pc.NewsAPIKey,
			Timeout:           pc.HTTPTimeout,
			RequestsPerMinute: newsAPIRPM,
		}, logger),
		Crypto: coingecko.New(coingecko.Config{
			APIKey:            pc.CoinGeckoAPIKey,
			Timeout:           pc.HTTPTimeout,
			RequestsPerMinute: coinGeckoRPM,
		}, logger),
		Currency: exchangerate.New(exchangerate.Config{
			APIKey:  pc.ExchangeRateAPIKey,
			Timeout: pc.HTTPTimeout,
		}, logger),
		Stock: alphavantage.New(alphavantage.Config{
			APIKey:            pc.AlphaVantageAPIKey,
			Timeout:           pc.HTTPTimeout,
			RequestsPerMinute: alphaVantageRPM,
		}, logger),
	}
	stack.providers = cached.Wrap(set, c, cached.Options{
		TTL:     cfg.Cache.TTL,
		Metrics: m,
		Logger:  logger,
	})

	stack.router = router.New(router.Deps{
		Providers:      stack.providers,
		Logger:         logger,
		Metrics:        m,
		AdapterTimeout: pc.AdapterTimeout,
		NewsLimit:      pc.NewsLimit,
	})

	logger.Info("data sources configured",
		zap.Any("enabled", cfg.EnabledProviders()),
		zap.String("cache", cfg.Cache.Type),
	)
	return stack, nil
}

func buildCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger, stack *dataStack) (cache.Cache, error) {
	switch cfg.Type {
	case "redis":
		rc := redis.New(redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		stack.closers = append(stack.closers, func() {
			if err := rc.Close(); err != nil {
				logger.Warn("close redis", zap.Error(err))
			}
		})
		return rc, nil
	case "none":
		return cache.Nop{}, nil
	default:
		mc := memory.NewWithConfig(ctx, memory.Config{MaxEntries: cfg.MaxEntries})
		stack.closers = append(stack.closers, mc.Stop)
		return mc, nil
	}
}
