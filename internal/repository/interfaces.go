package repository

import (
	"context"

	"github.com/kitbuilder587/databot/internal/domain"
)

// ConversationRepository - хранилище диалогов и сообщений.
// Все чтения/изменения диалога ограничены владельцем (userID).
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Get(ctx context.Context, userID, id string) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	Update(ctx context.Context, userID, id string, upd domain.ConversationUpdate) (*domain.Conversation, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)

	// AddMessage заодно сдвигает updated_at диалога
	AddMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
}
