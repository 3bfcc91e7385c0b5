package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/metrics"
	"github.com/kitbuilder587/databot/internal/router"
)

// maxHistory - сколько последних сообщений диалога уходит в модель
const maxHistory = 20

var personalityPrompts = map[string]string{
	"formal": "Answer in a formal, polite register.",
	"casual": "Keep the tone relaxed and conversational.",
	"expert": "Answer as a domain expert: precise, detailed, with concrete numbers.",
}

const liveDataPrompt = "Live data fetched for the user's latest message is below. " +
	"Use it when it is relevant and do not invent other figures.\n\n"

type ChatInput struct {
	UserID string
	// ConversationID - необязательный; с ним история берется из хранилища
	// и новые сообщения сохраняются
	ConversationID string
	Model          string
	Messages       []llm.Message
}

type ChatOutput struct {
	Reply          string `json:"reply"`
	LiveData       string `json:"liveData,omitempty"`
	Model          string `json:"model"`
	ConversationID string `json:"conversationId,omitempty"`
	Degraded       bool   `json:"degraded,omitempty"`
}

type ChatServiceDeps struct {
	Router        Router
	LLM           llm.Client
	Conversations *ConversationService
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	SystemPrompt  string
	DefaultModel  string
}

type ChatService struct {
	router        Router
	llm           llm.Client
	conversations *ConversationService
	logger        *zap.Logger
	metrics       *metrics.Metrics
	systemPrompt  string
	defaultModel  string
}

func NewChatService(deps ChatServiceDeps) *ChatService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.SystemPrompt == "" {
		deps.SystemPrompt = llm.DefaultSystemPrompt
	}
	if deps.DefaultModel == "" {
		deps.DefaultModel = llm.DefaultModel
	}
	return &ChatService{
		router:        deps.Router,
		llm:           deps.LLM,
		conversations: deps.Conversations,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		systemPrompt:  deps.SystemPrompt,
		defaultModel:  deps.DefaultModel,
	}
}

func (s *ChatService) Reply(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	startTime := time.Now()

	s.metrics.IncRequestsInFlight()
	defer s.metrics.DecRequestsInFlight()

	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = s.defaultModel
	}
	if !llm.IsAvailableModel(model) {
		s.metrics.RecordRequest("chat", "validation_error", time.Since(startTime))
		return nil, fmt.Errorf("%q: %w", model, domain.ErrUnknownModel)
	}

	if len(in.Messages) == 0 {
		return nil, domain.ErrNoMessages
	}
	last := in.Messages[len(in.Messages)-1]
	question := strings.TrimSpace(last.Content)
	if last.Role != llm.RoleUser || question == "" {
		return nil, domain.ErrNoUserText
	}

	history := in.Messages
	var conv *domain.Conversation
	if in.ConversationID != "" {
		var err error
		conv, history, err = s.loadConversation(ctx, in.UserID, in.ConversationID, question)
		if err != nil {
			return nil, err
		}
	}

	results := s.router.Search(ctx, domain.TruncateQuery(question))
	liveData := router.Format(results)

	out := &ChatOutput{
		LiveData:       liveData,
		Model:          model,
		ConversationID: in.ConversationID,
	}

	answer, err := s.complete(ctx, model, s.buildSystem(conv, liveData), history)
	switch {
	case err == nil:
		out.Reply = answer
		if liveData != "" {
			out.Reply = answer + "\n\n" + liveData
		}
	case liveData != "":
		s.logger.Warn("llm failed, replying with live data only",
			zap.String("model", model),
			zap.Error(err),
		)
		out.Reply = liveData
		out.Degraded = true
	default:
		s.metrics.RecordRequest("chat", "error", time.Since(startTime))
		return nil, fmt.Errorf("%w: %w", domain.ErrChatFailed, err)
	}

	if conv != nil {
		s.persist(ctx, in.UserID, conv.ID, domain.RoleUser, question)
		s.persist(ctx, in.UserID, conv.ID, domain.RoleAssistant, out.Reply)
	}

	status := "ok"
	if out.Degraded {
		status = "degraded"
	}
	s.metrics.RecordRequest("chat", status, time.Since(startTime))

	s.logger.Info("chat reply",
		zap.String("user_id", in.UserID),
		zap.String("model", model),
		zap.Any("topics", results.Topics()),
		zap.Bool("degraded", out.Degraded),
		zap.Duration("duration", time.Since(startTime)),
	)
	return out, nil
}

// loadConversation проверяет доступ и собирает историю из хранилища плюс
// новый вопрос. Сам вопрос сохраняется только вместе с ответом.
func (s *ChatService) loadConversation(ctx context.Context, userID, id, question string) (*domain.Conversation, []llm.Message, error) {
	if s.conversations == nil {
		return nil, nil, domain.ErrConversationNotFound
	}

	conv, err := s.conversations.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	msgs := conv.Messages
	if len(msgs) > maxHistory-1 {
		msgs = msgs[len(msgs)-(maxHistory-1):]
	}
	history := make([]llm.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: question})
	return conv, history, nil
}

func (s *ChatService) buildSystem(conv *domain.Conversation, liveData string) string {
	var sb strings.Builder
	sb.WriteString(s.systemPrompt)

	if conv != nil {
		if p, ok := personalityPrompts[conv.AIPersonality]; ok {
			sb.WriteString("\n")
			sb.WriteString(p)
		}
		if conv.CustomPrompt != "" {
			sb.WriteString("\n")
			sb.WriteString(conv.CustomPrompt)
		}
	}

	if liveData != "" {
		sb.WriteString("\n\n")
		sb.WriteString(liveDataPrompt)
		sb.WriteString(liveData)
	}
	return sb.String()
}

func (s *ChatService) complete(ctx context.Context, model, system string, history []llm.Message) (string, error) {
	if s.llm == nil {
		return "", errors.New("llm client is not configured")
	}

	start := time.Now()
	answer, err := s.llm.Chat(ctx, llm.ChatRequest{
		Model:       model,
		System:      system,
		Messages:    history,
		Temperature: llm.DefaultTemperature,
	})

	status := "success"
	switch {
	case errors.Is(err, llm.ErrRateLimit):
		status = "rate_limited"
	case err != nil:
		status = "error"
	}
	s.metrics.RecordLLMRequest(model, status, time.Since(start))

	return answer, err
}

func (s *ChatService) persist(ctx context.Context, userID, convID string, role domain.Role, content string) {
	msg := &domain.Message{ConversationID: convID, Role: role, Content: content}
	if err := s.conversations.AddMessage(ctx, userID, msg); err != nil {
		s.logger.Error("failed to save message",
			zap.String("conversation_id", convID),
			zap.Error(err),
		)
	}
}
