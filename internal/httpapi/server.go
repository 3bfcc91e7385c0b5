package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/ratelimit"
	"github.com/kitbuilder587/databot/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Searcher interface {
	Search(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error)
	Weather(ctx context.Context, location string) (*domain.WeatherData, error)
	News(ctx context.Context, topic string, limit int) ([]domain.NewsArticle, error)
	Crypto(ctx context.Context, coins []string) ([]domain.CryptoData, error)
	Exchange(ctx context.Context, from, to string) (*domain.CurrencyData, error)
	Stock(ctx context.Context, symbol string) (*domain.StockQuote, error)
}

type Chatter interface {
	Reply(ctx context.Context, in service.ChatInput) (*service.ChatOutput, error)
}

type Conversations interface {
	Create(ctx context.Context, in service.CreateConversationInput) (*domain.Conversation, error)
	Get(ctx context.Context, userID, id string) (*domain.Conversation, error)
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	Update(ctx context.Context, userID, id string, upd domain.ConversationUpdate) (*domain.Conversation, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	AddMessage(ctx context.Context, userID string, msg *domain.Message) error
	Messages(ctx context.Context, userID, id string) ([]domain.Message, error)
}

type Config struct {
	Addr    string
	GinMode string
}

type Deps struct {
	Search        Searcher
	Chat          Chatter
	Conversations Conversations
	// Limiter - лимит запросов к /api на пользователя или IP, nil - без лимита
	Limiter *ratelimit.Limiter
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// для /healthz
	Sources      []domain.Topic
	LLMEnabled   bool
	DefaultModel string
}

type Server struct {
	engine       *gin.Engine
	srv          *http.Server
	deps         Deps
	logger       *zap.Logger
	markdown     goldmark.Markdown
	defaultModel string
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.DefaultModel == "" {
		deps.DefaultModel = llm.DefaultModel
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		engine: gin.New(),
		deps:   deps,
		logger: deps.Logger,
		markdown: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		defaultModel: deps.DefaultModel,
	}
	s.routes()

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.Use(s.recoverer(), s.requestLogger())

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.engine.Group("/api", s.rateLimit())
	{
		api.GET("/search", s.handleSearch)
		api.GET("/weather", s.handleWeather)
		api.GET("/news", s.handleNews)
		api.GET("/crypto", s.handleCrypto)
		api.GET("/exchange", s.handleExchange)
		api.GET("/stock", s.handleStock)

		api.POST("/chat", s.handleChat)
		api.GET("/models", s.handleModels)
	}

	convs := api.Group("/conversations", s.requireUser())
	{
		convs.GET("", s.listConversations)
		convs.POST("", s.createConversation)
		convs.DELETE("", s.deleteAllConversations)
		convs.GET("/:id", s.getConversation)
		convs.PATCH("/:id", s.updateConversation)
		convs.PUT("/:id", s.updateConversation)
		convs.DELETE("/:id", s.deleteConversation)
		convs.GET("/:id/messages", s.listMessages)
		convs.POST("/:id/messages", s.addMessage)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run слушает адрес до отмены ctx, затем плавно останавливается
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("http server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
