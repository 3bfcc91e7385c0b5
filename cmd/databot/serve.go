package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/databot/internal/config"
	"github.com/kitbuilder587/databot/internal/httpapi"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/llm/openrouter"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/ratelimit"
	"github.com/kitbuilder587/databot/internal/repository"
	"github.com/kitbuilder587/databot/internal/repository/postgres"
	"github.com/kitbuilder587/databot/internal/service"
	"github.com/kitbuilder587/databot/internal/telegram"
)

func newServeCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when TELEGRAM_BOT_TOKEN is set, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "telegram-debug", false, "log raw Telegram API traffic")
	return cmd
}

func runServe(ctx context.Context, telegramDebug bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()

	stack, err := buildDataStack(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer stack.Close()

	repo, closeRepo, err := buildConversationRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	var llmClient llm.Client
	if cfg.LLMEnabled() {
		llmClient = openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	} else {
		logger.Warn("OPENROUTER_API_KEY is not set, chat replies will contain live data only")
	}

	defaultModel := cfg.LLM.Model
	if !llm.IsAvailableModel(defaultModel) {
		logger.Warn("OPENROUTER_MODEL is not in the model list, using the default",
			zap.String("model", defaultModel),
			zap.String("default", llm.DefaultModel),
		)
		defaultModel = llm.DefaultModel
	}

	searchSvc := service.NewSearchService(service.SearchServiceDeps{
		Router:    stack.router,
		Providers: stack.providers,
		Logger:    logger,
		Metrics:   m,
	})
	convSvc := service.NewConversationService(repo, logger)
	chatSvc := service.NewChatService(service.ChatServiceDeps{
		Router:        stack.router,
		LLM:           llmClient,
		Conversations: convSvc,
		Logger:        logger,
		Metrics:       m,
		DefaultModel:  defaultModel,
	})

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
	defer limiter.Stop()

	api := httpapi.New(httpapi.Config{
		Addr:    cfg.HTTP.Addr,
		GinMode: cfg.HTTP.GinMode,
	}, httpapi.Deps{
		Search:        searchSvc,
		Chat:          chatSvc,
		Conversations: convSvc,
		Limiter:       limiter,
		Logger:        logger,
		Metrics:       m,
		Sources:       cfg.EnabledProviders(),
		LLMEnabled:    cfg.LLMEnabled(),
		DefaultModel:  defaultModel,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(gctx)
	})

	if cfg.TelegramEnabled() {
		bot, err := telegram.New(telegram.BotConfig{
			Token:             cfg.Telegram.Token,
			Debug:             telegramDebug,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			DefaultModel:      defaultModel,
		}, telegram.Services{
			Search:        searchSvc,
			Chat:          chatSvc,
			Conversations: convSvc,
		}, logger, m)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		g.Go(func() error {
			if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN is not set, telegram bot disabled")
	}

	logger.Info("databot started",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("telegram", cfg.TelegramEnabled()),
		zap.Bool("llm", cfg.LLMEnabled()),
		zap.Bool("postgres", cfg.Database.URL != ""),
	)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("databot stopped")
	return nil
}

// buildConversationRepo: postgres при DATABASE_URL, иначе память
func buildConversationRepo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ConversationRepository, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL is not set, conversations are kept in memory")
		return repository.NewMemoryConversationRepository(), func() {}, nil
	}

	db, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	return postgres.NewConversationRepo(db), db.Close, nil
}
