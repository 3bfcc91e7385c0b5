package telegram

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/router"
	"github.com/kitbuilder587/databot/internal/service"
)

const helpText = `<b>Доступные команды:</b>

/weather город - Погода
/news [тема] - Последние новости
/crypto [монеты] - Курсы криптовалют, например: /crypto btc, eth
/rate FROM TO - Курс валют, например: /rate USD EUR
/stock SYMBOL - Котировка акции, например: /stock AAPL

/new [название] - Новый диалог
/history - Список диалогов
/model [id] - Показать или выбрать модель
/help - Показать эту справку

<b>Как использовать:</b>
Просто напишите сообщение. Если в нем есть погода, новости, крипта, валюты или акции, я подтяну свежие данные и добавлю их к ответу.

<b>Примеры:</b>
• What's the weather in London?
• bitcoin and ethereum price
• exchange USD to EUR`

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	cmd, isCommand := ParseCommand(msg.Text)

	h.bot.logger.Info("received message",
		zap.Int64("user_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.Bool("is_command", isCommand),
	)

	if !isCommand {
		h.handleChat(ctx, msg)
		return
	}
	h.handleCommand(ctx, msg, cmd)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	switch cmd.Name {
	case "start":
		h.bot.Send(msg.Chat.ID, "Привет! Я отвечаю на вопросы и подтягиваю живые данные: погоду, новости, крипту, курсы валют и акции.\n\nИспользуйте /help для справки.")
	case "help":
		h.bot.Send(msg.Chat.ID, helpText)
	case "weather", "news", "crypto", "rate", "stock":
		if !h.allow(msg) {
			return
		}
		h.handleLookup(ctx, msg, cmd)
	case "new":
		h.handleNew(ctx, msg, cmd.Args)
	case "history":
		h.handleHistory(ctx, msg)
	case "model":
		h.handleModel(msg, cmd.Args)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
	}
}

// handleLookup - прямые запросы к одному источнику
func (h *Handler) handleLookup(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	search := h.bot.services.Search
	results := &domain.SearchResults{}
	var err error

	switch cmd.Name {
	case "weather":
		if cmd.Args == "" {
			h.bot.Send(msg.Chat.ID, "Укажите город: /weather London")
			return
		}
		results.Weather, err = search.Weather(ctx, cmd.Args)
	case "news":
		results.News, err = search.News(ctx, cmd.Args, router.DefaultNewsLimit)
	case "crypto":
		results.Crypto, err = search.Crypto(ctx, ParseCoins(cmd.Args))
	case "rate":
		from, to, ok := ParsePair(cmd.Args)
		if !ok {
			h.bot.Send(msg.Chat.ID, "Использование: /rate FROM TO\nПример: /rate USD EUR")
			return
		}
		results.Currency, err = search.Exchange(ctx, from, to)
	case "stock":
		if cmd.Args == "" {
			h.bot.Send(msg.Chat.ID, "Укажите тикер: /stock AAPL")
			return
		}
		results.Stock, err = search.Stock(ctx, cmd.Args)
	}

	if err != nil {
		h.bot.logger.Warn("lookup failed",
			zap.String("command", cmd.Name),
			zap.Int64("user_id", msg.From.ID),
			zap.Error(err),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	text := FormatResults(results)
	if text == "" {
		text = mapErrorToMessage(domain.ErrNotFound)
	}
	h.bot.SendLong(msg.Chat.ID, text)
}

func (h *Handler) handleNew(ctx context.Context, msg *tgbotapi.Message, title string) {
	if title == "" {
		title = domain.DefaultTitle
	}

	conv, err := h.bot.services.Conversations.Create(ctx, service.CreateConversationInput{
		UserID: userKey(msg.From.ID),
		Title:  title,
	})
	if err != nil {
		h.bot.logger.Error("failed to create conversation", zap.Error(err))
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	h.bot.sessions.update(msg.From.ID, func(s *session) { s.ConversationID = conv.ID })
	h.bot.Send(msg.Chat.ID, "Начат новый диалог.")
}

func (h *Handler) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	convs, err := h.bot.services.Conversations.List(ctx, userKey(msg.From.ID))
	if err != nil {
		h.bot.logger.Error("failed to list conversations", zap.Error(err))
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	if len(convs) == 0 {
		h.bot.Send(msg.Chat.ID, "У вас пока нет диалогов. Просто напишите сообщение или используйте /new.")
		return
	}

	active := h.bot.sessions.get(msg.From.ID).ConversationID
	h.bot.SendLong(msg.Chat.ID, FormatHistory(convs, active))
}

func (h *Handler) handleModel(msg *tgbotapi.Message, id string) {
	current := h.bot.sessions.get(msg.From.ID).Model
	if current == "" {
		current = h.bot.defaultModel
	}

	if id == "" {
		h.bot.SendLong(msg.Chat.ID, FormatModels(llm.AvailableModels(), current))
		return
	}

	model, ok := llm.FindModel(id)
	if !ok {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(domain.ErrUnknownModel))
		return
	}

	h.bot.sessions.update(msg.From.ID, func(s *session) { s.Model = model.ID })
	h.bot.Send(msg.Chat.ID, fmt.Sprintf("Модель: <b>%s</b>", model.Name))
}

func (h *Handler) handleChat(ctx context.Context, msg *tgbotapi.Message) {
	if !h.allow(msg) {
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	out, err := h.reply(ctx, msg)
	if errors.Is(err, domain.ErrConversationNotFound) {
		// диалог удалили через API - начинаем новый
		h.bot.sessions.update(msg.From.ID, func(s *session) { s.ConversationID = "" })
		out, err = h.reply(ctx, msg)
	}
	if err != nil {
		h.bot.logger.Error("chat failed",
			zap.Int64("user_id", msg.From.ID),
			zap.Error(err),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	h.bot.SendLong(msg.Chat.ID, MarkdownToHTML(out.Reply))
}

func (h *Handler) reply(ctx context.Context, msg *tgbotapi.Message) (*service.ChatOutput, error) {
	userID := userKey(msg.From.ID)
	sess := h.bot.sessions.get(msg.From.ID)

	if sess.ConversationID == "" {
		conv, err := h.bot.services.Conversations.Create(ctx, service.CreateConversationInput{
			UserID: userID,
			Title:  domain.DefaultTitle,
		})
		if err != nil {
			return nil, err
		}
		sess.ConversationID = conv.ID
		h.bot.sessions.update(msg.From.ID, func(s *session) { s.ConversationID = conv.ID })
	}

	return h.bot.services.Chat.Reply(ctx, service.ChatInput{
		UserID:         userID,
		ConversationID: sess.ConversationID,
		Model:          sess.Model,
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: msg.Text}},
	})
}

func (h *Handler) allow(msg *tgbotapi.Message) bool {
	d := h.bot.rateLimiter.Take(userKey(msg.From.ID))
	if d.Allowed {
		return true
	}

	h.bot.logger.Warn("rate limit exceeded",
		zap.Int64("user_id", msg.From.ID),
		zap.Time("reset_at", d.ResetAt),
	)
	h.bot.RecordRateLimitHit()
	wait := max(int(math.Ceil(time.Until(d.ResetAt).Seconds())), 1)
	h.bot.Send(msg.Chat.ID, fmt.Sprintf("Слишком много запросов. Попробуйте через %d сек.", wait))
	return false
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingParam):
		return "Не хватает параметра. Используйте /help для справки."
	case errors.Is(err, domain.ErrNotFound):
		return "Ничего не найдено."
	case errors.Is(err, domain.ErrTopicUnavailable):
		return "Этот источник данных не настроен."
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrNoUserText):
		return "Пустой запрос. Введите ваш вопрос."
	case errors.Is(err, domain.ErrQueryTooLong):
		return "Запрос слишком длинный. Максимум 1000 символов."
	case errors.Is(err, domain.ErrUnknownModel):
		return "Неизвестная модель. Список моделей: /model"
	case errors.Is(err, domain.ErrConversationNotFound):
		return "Диалог не найден. Начните новый: /new"
	case errors.Is(err, domain.ErrEmptyTitle):
		return "Название диалога не может быть пустым."
	case errors.Is(err, domain.ErrChatFailed):
		return "Не удалось сформировать ответ. Попробуйте позже."
	default:
		return "Произошла ошибка. Попробуйте позже."
	}
}
