package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/repository"
)

type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_id, title, ai_personality, custom_prompt, created_at, updated_at`

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.AIPersonality,
		&c.CustomPrompt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}

	query := `
        INSERT INTO conversations (id, user_id, title, ai_personality, custom_prompt)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at
    `

	err := r.db.Pool.QueryRow(ctx, query,
		conv.ID, conv.UserID, conv.Title, conv.AIPersonality, conv.CustomPrompt,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepo) Get(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND user_id = $2`

	conv, err := scanConversation(r.db.Pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
        WHERE user_id = $1
        ORDER BY updated_at DESC, id`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var result []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return result, nil
}

func (r *ConversationRepo) Update(ctx context.Context, userID, id string, upd domain.ConversationUpdate) (*domain.Conversation, error) {
	// COALESCE: NULL параметр оставляет старое значение
	query := `
        UPDATE conversations SET
            title = COALESCE($3, title),
            ai_personality = COALESCE($4, ai_personality),
            custom_prompt = COALESCE($5, custom_prompt),
            updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING ` + conversationColumns

	conv, err := scanConversation(r.db.Pool.QueryRow(ctx, query,
		id, userID, upd.Title, upd.AIPersonality, upd.CustomPrompt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	return conv, nil
}

func (r *ConversationRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepo) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM conversations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete conversations: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *ConversationRepo) AddMessage(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var now time.Time
	err = tx.QueryRow(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		msg.ConversationID,
	).Scan(&now)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrConversationNotFound
		}
		return fmt.Errorf("touch conversation: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO messages (id, conversation_id, role, content, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
    `, msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Metadata, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	msg.CreatedAt = now
	msg.UpdatedAt = now
	return nil
}

func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := r.db.Pool.Query(ctx, `
        SELECT id, conversation_id, role, content, metadata, created_at, updated_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at, id
    `, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.Metadata, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.Role(role)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return result, nil
}

var _ repository.ConversationRepository = (*ConversationRepo)(nil)
