package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository stores each user's advisor conversation as one row.
type ChatRepository interface {
	// GetChat returns the user's chat, or nil when none exists yet.
	GetChat(ctx context.Context, userID string) (*model.Chat, error)
	// UpsertChat replaces the user's message sequence, creating the row on
	// first access. Idempotent under concurrent first writes.
	UpsertChat(ctx context.Context, userID string, messages model.ChatMessages) (*model.Chat, error)
}

type chatRepo struct {
	pool *pgxpool.Pool
}

// NewChatRepo creates a new ChatRepository.
func NewChatRepo(pool *pgxpool.Pool) ChatRepository {
	return &chatRepo{pool: pool}
}

func (r *chatRepo) GetChat(ctx context.Context, userID string) (*model.Chat, error) {
	const q = `SELECT user_id, messages, last_activity FROM chats WHERE user_id = $1`
	var chat model.Chat
	err := r.pool.QueryRow(ctx, q, userID).Scan(&chat.UserID, &chat.Messages, &chat.LastActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting chat for user %s: %w", userID, err)
	}
	return &chat, nil
}

func (r *chatRepo) UpsertChat(ctx context.Context, userID string, messages model.ChatMessages) (*model.Chat, error) {
	const q = `
		INSERT INTO chats (user_id, messages, last_activity)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET messages = EXCLUDED.messages, last_activity = NOW()
		RETURNING user_id, messages, last_activity
	`
	var chat model.Chat
	if err := r.pool.QueryRow(ctx, q, userID, messages).Scan(&chat.UserID, &chat.Messages, &chat.LastActivity); err != nil {
		return nil, fmt.Errorf("upserting chat for user %s: %w", userID, err)
	}
	return &chat, nil
}
