package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

const (
	DefaultLimit = 5
	maxLimit     = 100
)

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
		cfg.BaseURL = "https://newsapi.org"
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

type newsResponse struct {
	Status   string        `json:"status"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

func (c *Client) News(ctx context.Context, topic string, limit int) ([]domain.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, provider.ErrNotConfigured
	}
	if topic == "" {
		topic = domain.DefaultNewsTopic
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	q := url.Values{}
	q.Set("q", topic)
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("sortBy", "publishedAt")

	header := http.Header{}
	header.Set("X-Api-Key", c.apiKey)

	var resp newsResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/v2/everything?"+q.Encode(), header, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}

	if resp.Status == "error" {
		return nil, fmt.Errorf("newsapi: %w: %s: %s", provider.ErrUpstream, resp.Code, resp.Message)
	}

	articles := c.toArticles(resp.Articles)
	if len(articles) == 0 {
		return nil, provider.ErrNoData
	}

	c.logger.Debug("news fetched",
		zap.String("topic", topic),
		zap.Int("count", len(articles)),
	)

	return articles, nil
}

func (c *Client) toArticles(raw []newsArticle) []domain.NewsArticle {
	articles := make([]domain.NewsArticle, 0, len(raw))
	for _, a := range raw {
		// newsapi отдает удаленные статьи как заглушки
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}

		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			c.logger.Debug("bad publishedAt", zap.String("value", a.PublishedAt), zap.Error(err))
		}

		articles = append(articles, domain.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: published,
		})
	}
	return articles
}
