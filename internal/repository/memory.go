package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kitbuilder587/databot/internal/domain"
)

// MemoryConversationRepository - хранилище в памяти. Используется в тестах
// и когда DATABASE_URL не задан.
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
	messages      map[string][]domain.Message // key: conversation id

	// now подменяется в тестах
	now func() time.Time
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]domain.Message),
		now:           time.Now,
	}
}

func (m *MemoryConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := m.now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	stored := *conv
	stored.Messages = nil
	m.conversations[conv.ID] = &stored
	return nil
}

func (m *MemoryConversationRepository) Get(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, domain.ErrConversationNotFound
	}
	c := *conv
	return &c, nil
}

func (m *MemoryConversationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.Conversation
	for _, conv := range m.conversations {
		if conv.UserID == userID {
			result = append(result, *conv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryConversationRepository) Update(ctx context.Context, userID, id string, upd domain.ConversationUpdate) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, domain.ErrConversationNotFound
	}

	if upd.Title != nil {
		conv.Title = *upd.Title
	}
	if upd.AIPersonality != nil {
		conv.AIPersonality = *upd.AIPersonality
	}
	if upd.CustomPrompt != nil {
		conv.CustomPrompt = *upd.CustomPrompt
	}
	conv.UpdatedAt = m.now()

	c := *conv
	return &c, nil
}

func (m *MemoryConversationRepository) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok || conv.UserID != userID {
		return domain.ErrConversationNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

func (m *MemoryConversationRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, conv := range m.conversations {
		if conv.UserID == userID {
			delete(m.conversations, id)
			delete(m.messages, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryConversationRepository) AddMessage(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[msg.ConversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := m.now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	conv.UpdatedAt = now

	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], *msg)
	return nil
}

func (m *MemoryConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	result := make([]domain.Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

var _ ConversationRepository = (*MemoryConversationRepository)(nil)
