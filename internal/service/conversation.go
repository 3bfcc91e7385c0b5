package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/repository"
)

type CreateConversationInput struct {
	UserID        string
	Title         string
	AIPersonality string
	CustomPrompt  string
}

type ConversationService struct {
	repo   repository.ConversationRepository
	logger *zap.Logger
}

func NewConversationService(repo repository.ConversationRepository, logger *zap.Logger) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{repo: repo, logger: logger}
}

func (s *ConversationService) Create(ctx context.Context, in CreateConversationInput) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		UserID:        strings.TrimSpace(in.UserID),
		Title:         strings.TrimSpace(in.Title),
		AIPersonality: strings.TrimSpace(in.AIPersonality),
		CustomPrompt:  strings.TrimSpace(in.CustomPrompt),
	}
	if conv.AIPersonality == "" {
		conv.AIPersonality = domain.DefaultPersonality
	}
	if err := conv.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.logger.Info("conversation created",
		zap.String("user_id", conv.UserID),
		zap.String("conversation_id", conv.ID),
	)
	return conv, nil
}

// Get возвращает диалог вместе с сообщениями
func (s *ConversationService) Get(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	conv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	conv.Messages = msgs
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	return s.repo.ListByUser(ctx, userID)
}

// Latest - самый свежий диалог пользователя или ErrConversationNotFound
func (s *ConversationService) Latest(ctx context.Context, userID string) (*domain.Conversation, error) {
	convs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, domain.ErrConversationNotFound
	}
	return &convs[0], nil
}

func (s *ConversationService) Update(ctx context.Context, userID, id string, upd domain.ConversationUpdate) (*domain.Conversation, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, domain.ErrEmptyTitle
		}
		upd.Title = &title
	}
	return s.repo.Update(ctx, userID, id, upd)
}

func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrEmptyUserID
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("conversation deleted", zap.String("user_id", userID), zap.String("conversation_id", id))
	return nil
}

func (s *ConversationService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrEmptyUserID
	}
	return s.repo.DeleteAllByUser(ctx, userID)
}

// AddMessage проверяет владельца диалога и сохраняет сообщение.
// Диалог с заголовком по умолчанию получает заголовок из первого
// сообщения пользователя.
func (s *ConversationService) AddMessage(ctx context.Context, userID string, msg *domain.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	conv, err := s.repo.Get(ctx, userID, msg.ConversationID)
	if err != nil {
		return err
	}

	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return fmt.Errorf("add message: %w", err)
	}

	if conv.Title == domain.DefaultTitle && msg.Role == domain.RoleUser {
		title := domain.GenerateTitle([]domain.Message{*msg})
		if title != domain.DefaultTitle {
			if _, err := s.repo.Update(ctx, userID, conv.ID, domain.ConversationUpdate{Title: &title}); err != nil {
				// заголовок не критичен
				s.logger.Warn("failed to set generated title", zap.String("conversation_id", conv.ID), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *ConversationService) Messages(ctx context.Context, userID, id string) ([]domain.Message, error) {
	if _, err := s.repo.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, id)
}
