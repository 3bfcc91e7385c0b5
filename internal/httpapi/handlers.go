package httpapi

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/router"
	"github.com/kitbuilder587/databot/internal/service"
)

func (s *Server) handleHealth(c *gin.Context) {
	sources := make(map[string]bool, len(domain.Topics()))
	for _, t := range domain.Topics() {
		sources[string(t)] = false
	}
	for _, t := range s.deps.Sources {
		sources[string(t)] = true
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"sources": sources,
		"llm":     s.deps.LLMEnabled,
	})
}

// GET /api/search?q=&format=json|text|html
func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter (q) is required"})
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "text" && format != "html" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, text or html"})
		return
	}

	resp, err := s.deps.Search.Search(c.Request.Context(), &domain.QueryRequest{
		UserID: userID(c),
		Text:   query,
	})
	if err != nil {
		s.fail(c, err, "")
		return
	}

	switch format {
	case "text":
		c.String(http.StatusOK, resp.Formatted)
	case "html":
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(resp.Formatted), &buf); err != nil {
			s.fail(c, err, "")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) handleWeather(c *gin.Context) {
	location := c.Query("location")
	if strings.TrimSpace(location) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location parameter is required"})
		return
	}

	data, err := s.deps.Search.Weather(c.Request.Context(), location)
	if err != nil {
		s.fail(c, err, "Weather data not available for this location")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) handleNews(c *gin.Context) {
	topic := c.DefaultQuery("topic", domain.DefaultNewsTopic)
	limit := router.DefaultNewsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	articles, err := s.deps.Search.News(c.Request.Context(), topic, limit)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.fail(c, err, "")
		return
	}
	if articles == nil {
		articles = []domain.NewsArticle{}
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":    topic,
		"count":    len(articles),
		"articles": articles,
	})
}

func (s *Server) handleCrypto(c *gin.Context) {
	var coins []string
	if raw := c.Query("coins"); raw != "" {
		coins = strings.Split(raw, ",")
	}

	prices, err := s.deps.Search.Crypto(c.Request.Context(), coins)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.fail(c, err, "")
		return
	}
	if prices == nil {
		prices = []domain.CryptoData{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":            len(prices),
		"cryptocurrencies": prices,
	})
}

func (s *Server) handleExchange(c *gin.Context) {
	from := c.Query("from")
	if strings.TrimSpace(from) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From currency parameter is required"})
		return
	}

	rate, err := s.deps.Search.Exchange(c.Request.Context(), from, c.DefaultQuery("to", "USD"))
	if err != nil {
		s.fail(c, err, "Exchange rate not available")
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (s *Server) handleStock(c *gin.Context) {
	symbol := c.Query("symbol")
	if strings.TrimSpace(symbol) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol parameter is required"})
		return
	}

	quote, err := s.deps.Search.Stock(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err, "Stock data not available for this symbol")
		return
	}
	c.JSON(http.StatusOK, quote)
}

type chatRequest struct {
	Messages       []llm.Message `json:"messages"`
	ConversationID string        `json:"conversationId"`
}

// POST /api/chat?model=
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	user := userID(c)
	if req.ConversationID != "" && user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	out, err := s.deps.Chat.Reply(c.Request.Context(), service.ChatInput{
		UserID:         user,
		ConversationID: req.ConversationID,
		Model:          c.Query("model"),
		Messages:       req.Messages,
	})
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  llm.AvailableModels(),
		"default": s.defaultModel,
	})
}
