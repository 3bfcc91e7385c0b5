package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/kitbuilder587/databot/internal/domain"
)

var (
	ErrInvalidCacheType      = errors.New("CACHE_TYPE must be memory, redis or none")
	ErrMissingRedisAddr      = errors.New("REDIS_ADDR is required when CACHE_TYPE=redis")
	ErrInvalidAdapterTimeout = errors.New("ADAPTER_TIMEOUT_SEC must be positive")
	ErrInvalidGinMode        = errors.New("GIN_MODE must be debug, release or test")
	ErrInvalidLogFormat      = errors.New("LOG_FORMAT must be json or console")
)

type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Providers ProvidersConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// TelegramConfig: пустой токен = бот не запускается
type TelegramConfig struct {
	Token string
}

// DatabaseConfig: пустой URL = диалоги хранятся в памяти
type DatabaseConfig struct {
	URL string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type ProvidersConfig struct {
	OpenWeatherAPIKey  string
	NewsAPIKey         string
	ExchangeRateAPIKey string
	AlphaVantageAPIKey string
	// CoinGecko работает без ключа, demo-ключ поднимает лимиты
	CoinGeckoAPIKey string

	AdapterTimeout time.Duration
	HTTPTimeout    time.Duration
	NewsLimit      int
}

type HTTPConfig struct {
	Addr    string
	GinMode string
}

type LogConfig struct {
	Level string
	// Format: json, console или пусто (по уровню)
	Format string
}

type CacheConfig struct {
	Type          string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// MaxEntries - потолок записей для CACHE_TYPE=memory
	MaxEntries int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENROUTER_API_KEY"),
			BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:   getEnvOrDefault("OPENROUTER_MODEL", "z-ai/glm-4.5-air:free"),
			Timeout: getEnvDurationSecOrDefault("LLM_TIMEOUT_SEC", 60),
		},
		Providers: ProvidersConfig{
			OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
			NewsAPIKey:         os.Getenv("NEWS_API_KEY"),
			ExchangeRateAPIKey: os.Getenv("EXCHANGERATE_API_KEY"),
			AlphaVantageAPIKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
			CoinGeckoAPIKey:    os.Getenv("COINGECKO_API_KEY"),
			AdapterTimeout:     getEnvDurationSecOrDefault("ADAPTER_TIMEOUT_SEC", 5),
			HTTPTimeout:        getEnvDurationSecOrDefault("UPSTREAM_HTTP_TIMEOUT_SEC", 10),
			NewsLimit:          getEnvIntOrDefault("NEWS_LIMIT", 5),
		},
		HTTP: HTTPConfig{
			Addr:    getEnvOrDefault("HTTP_ADDR", ":8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: os.Getenv("LOG_FORMAT"),
		},
		Cache: CacheConfig{
			Type:          getEnvOrDefault("CACHE_TYPE", "memory"),
			TTL:           getEnvDurationSecOrDefault("CACHE_TTL_SEC", 300),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),
			MaxEntries:    getEnvIntOrDefault("CACHE_MAX_ENTRIES", 1000),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Cache.Type {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return ErrInvalidCacheType
	}
	if c.Providers.AdapterTimeout <= 0 {
		return ErrInvalidAdapterTimeout
	}
	switch c.HTTP.GinMode {
	case "debug", "release", "test":
	default:
		return ErrInvalidGinMode
	}
	switch c.Log.Format {
	case "", LogFormatJSON, LogFormatConsole:
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

// EnabledProviders - темы, для которых заданы учётные данные.
// Крипта всегда доступна: CoinGecko не требует ключа.
func (c *Config) EnabledProviders() []domain.Topic {
	var topics []domain.Topic
	if c.Providers.OpenWeatherAPIKey != "" {
		topics = append(topics, domain.TopicWeather)
	}
	if c.Providers.NewsAPIKey != "" {
		topics = append(topics, domain.TopicNews)
	}
	topics = append(topics, domain.TopicCrypto)
	if c.Providers.ExchangeRateAPIKey != "" {
		topics = append(topics, domain.TopicCurrency)
	}
	if c.Providers.AlphaVantageAPIKey != "" {
		topics = append(topics, domain.TopicStock)
	}
	return topics
}

func (c *Config) TelegramEnabled() bool { return c.Telegram.Token != "" }
func (c *Config) LLMEnabled() bool      { return c.LLM.APIKey != "" }

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDurationSecOrDefault(key string, defaultSec int) time.Duration {
	return time.Duration(getEnvIntOrDefault(key, defaultSec)) * time.Second
}
