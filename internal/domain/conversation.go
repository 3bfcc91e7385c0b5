package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

const (
	DefaultPersonality   = "casual"
	DefaultTitle         = "New Conversation"
	maxGeneratedTitleLen = 50
)

type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	Title         string    `json:"title"`
	AIPersonality string    `json:"aiPersonality,omitempty"`
	CustomPrompt  string    `json:"customPrompt,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Messages      []Message `json:"messages,omitempty"`
}

func (c *Conversation) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// ConversationUpdate - частичное обновление, nil поля не трогаем
type ConversationUpdate struct {
	Title         *string `json:"title,omitempty"`
	AIPersonality *string `json:"aiPersonality,omitempty"`
	CustomPrompt  *string `json:"customPrompt,omitempty"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Metadata       string    `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (m *Message) Validate() error {
	if !m.Role.IsValid() {
		return ErrInvalidRole
	}
	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// GenerateTitle берет первое сообщение пользователя, обрезает до 50 символов
func GenerateTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			return DefaultTitle
		}
		if utf8.RuneCountInString(content) > maxGeneratedTitleLen {
			return string([]rune(content)[:maxGeneratedTitleLen]) + "..."
		}
		return content
	}
	return DefaultTitle
}
