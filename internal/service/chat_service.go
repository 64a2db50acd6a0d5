package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

const welcomeMessage = "Hi there! I'm your AI learning assistant. Tell me about your career goals, interests, or what you'd like to learn, and I'll recommend the perfect courses for you!"

// ChatService stores each user's advisor conversation.
type ChatService interface {
	// GetHistory returns the user's messages, seeding a welcome message on
	// first access.
	GetHistory(ctx context.Context, userID string) (model.ChatMessages, error)
	// SaveHistory replaces the user's message sequence.
	SaveHistory(ctx context.Context, userID string, messages model.ChatMessages) (int, error)
	// ClearHistory resets the conversation to the welcome message.
	ClearHistory(ctx context.Context, userID string) error
}

type chatService struct {
	chatRepo repository.ChatRepository
	logger   zerolog.Logger
}

// NewChatService creates a ChatService.
func NewChatService(chatRepo repository.ChatRepository, logger zerolog.Logger) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		logger:   logger.With().Str("service", "ChatService").Logger(),
	}
}

func defaultMessages() model.ChatMessages {
	return model.ChatMessages{{
		ID:        1,
		Type:      "bot",
		Content:   welcomeMessage,
		Timestamp: time.Now().UTC(),
	}}
}

// GetHistory returns the user's messages. A missing chat is created with
// the welcome message via an upsert, so concurrent first reads are safe.
func (s *chatService) GetHistory(ctx context.Context, userID string) (model.ChatMessages, error) {
	chat, err := s.chatRepo.GetChat(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		chat, err = s.chatRepo.UpsertChat(ctx, userID, defaultMessages())
		if err != nil {
			return nil, fmt.Errorf("seeding chat: %w", err)
		}
	}
	return chat.Messages, nil
}

func (s *chatService) SaveHistory(ctx context.Context, userID string, messages model.ChatMessages) (int, error) {
	chat, err := s.chatRepo.UpsertChat(ctx, userID, messages)
	if err != nil {
		return 0, err
	}
	return len(chat.Messages), nil
}

func (s *chatService) ClearHistory(ctx context.Context, userID string) error {
	if _, err := s.chatRepo.UpsertChat(ctx, userID, defaultMessages()); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("Chat history cleared")
	return nil
}
