package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

type Config struct {
	// APIKey опционален: публичный API работает без ключа
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
		cfg.BaseURL = "https://api.coingecko.com"
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

type priceEntry struct {
	USD          float64  `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change"`
}

func (c *Client) Prices(ctx context.Context, coins []string) ([]domain.CryptoData, error) {
	ids := normalizeIDs(coins)
	if len(ids) == 0 {
		ids = domain.DefaultCoins
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	var header http.Header
	if c.apiKey != "" {
		header = http.Header{}
		header.Set("x-cg-demo-api-key", c.apiKey)
	}

	var resp map[string]priceEntry
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/api/v3/simple/price?"+q.Encode(), header, &resp); err != nil {
		return nil, fmt.Errorf("coingecko: %w", err)
	}

	// порядок как в запросе, а не как в map
	result := make([]domain.CryptoData, 0, len(ids))
	for _, id := range ids {
		entry, ok := resp[id]
		if !ok {
			continue
		}
		result = append(result, toCryptoData(id, entry))
	}

	if len(result) == 0 {
		return nil, provider.ErrNoData
	}

	c.logger.Debug("crypto prices fetched", zap.Strings("ids", ids), zap.Int("count", len(result)))
	return result, nil
}

func toCryptoData(id string, e priceEntry) domain.CryptoData {
	var pct, abs float64
	if e.USD24hChange != nil {
		pct = *e.USD24hChange
		// восстанавливаем абсолютное изменение из процента
		if pct != -100 {
			abs = e.USD - e.USD/(1+pct/100)
		}
	}

	return domain.CryptoData{
		ID:                       id,
		Symbol:                   domain.CoinSymbol(id),
		Name:                     domain.CoinName(id),
		CurrentPrice:             e.USD,
		PriceChange24h:           abs,
		PriceChangePercentage24h: pct,
	}
}

func normalizeIDs(coins []string) []string {
	seen := make(map[string]bool, len(coins))
	ids := make([]string, 0, len(coins))
	for _, coin := range coins {
		id := strings.ToLower(strings.TrimSpace(coin))
		if known, ok := domain.CoinByAlias(id); ok {
			id = known.ID
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
