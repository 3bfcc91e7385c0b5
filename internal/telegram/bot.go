package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/ratelimit"
	"github.com/kitbuilder587/databot/internal/service"
)

type BotConfig struct {
	Token             string
	Debug             bool
	RequestsPerMinute int
	// DefaultModel показывается в /model, пока пользователь не выбрал свою
	DefaultModel string
}

type Searcher interface {
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
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
}

type Services struct {
	Search        Searcher
	Chat          Chatter
	Conversations Conversations
}

// sender - часть BotAPI, которой бот отвечает. В тестах подменяется.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api         *tgbotapi.BotAPI
	sender      sender
	services    Services
	logger      *zap.Logger
	metrics     *metrics.Metrics
	handler     *Handler
	rateLimiter *ratelimit.Limiter
	sessions    *sessionStore
	wg          sync.WaitGroup

	defaultModel string
}

func New(cfg BotConfig, services Services, logger *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := newBot(api, cfg, services, logger, m)
	bot.api = api

	bot.logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func newBot(s sender, cfg BotConfig, services Services, logger *zap.Logger, m *metrics.Metrics) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = llm.DefaultModel
	}

	bot := &Bot{
		sender:   s,
		services: services,
		logger:   logger,
		metrics:  m,
		rateLimiter: ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		sessions:     newSessionStore(),
		defaultModel: cfg.DefaultModel,
	}
	bot.handler = NewHandler(bot)
	return bot
}

func (b *Bot) Run(ctx context.Context) error {
	defer b.rateLimiter.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			chatID := int64(0)
			if update.Message != nil && update.Message.Chat != nil {
				chatID = update.Message.Chat.ID
			}
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			b.metrics.RecordRequest("telegram", "panic", time.Since(startTime))
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)

	reqType := "telegram_command"
	if update.Message != nil && !update.Message.IsCommand() {
		reqType = "telegram_chat"
	}
	b.metrics.RecordRequest(reqType, "processed", time.Since(startTime))
}

func (b *Bot) Send(chatID int64, text string) error {
	if b.sender == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.sender.Send(msg)
	return err
}

// SendLong режет длинный текст на части по лимиту телеграма
func (b *Bot) SendLong(chatID int64, text string) {
	for _, part := range SplitMessage(text, maxMessageLen) {
		if err := b.Send(chatID, part); err != nil {
			b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

func (b *Bot) SendTyping(chatID int64) {
	if b.sender == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	// ошибка "печатает..." ни на что не влияет
	_, _ = b.sender.Send(action)
}

func (b *Bot) RecordRateLimitHit() {
	b.metrics.RecordRateLimitHit("telegram")
}

// userKey - id пользователя телеграма в общем пространстве пользователей
func userKey(telegramID int64) string {
	return "tg:" + strconv.FormatInt(telegramID, 10)
}

// session - состояние пользователя между сообщениями
type session struct {
	ConversationID string
	Model          string
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]session)}
}

func (s *sessionStore) get(userID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

func (s *sessionStore) update(userID int64, fn func(*session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	fn(&sess)
	s.sessions[userID] = sess
}
