package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[string]model.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]model.Chat)}
}

func (f *fakeChatRepo) GetChat(ctx context.Context, userID string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[userID]
	if !ok {
		return nil, nil
	}
	return &chat, nil
}

func (f *fakeChatRepo) UpsertChat(ctx context.Context, userID string, messages model.ChatMessages) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat := model.Chat{UserID: userID, Messages: messages, LastActivity: time.Now().UTC()}
	f.chats[userID] = chat
	return &chat, nil
}

func TestGetHistorySeedsWelcomeMessage(t *testing.T) {
	ctx := context.Background()
	svc := NewChatService(newFakeChatRepo(), zerolog.Nop())

	messages, err := svc.GetHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(messages) != 1 || messages[0].Type != "bot" {
		t.Fatalf("seeded history = %+v", messages)
	}
	if messages[0].Content != welcomeMessage {
		t.Fatalf("seeded content = %q", messages[0].Content)
	}
}

func TestSaveAndClearHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewChatService(newFakeChatRepo(), zerolog.Nop())

	saved, err := svc.SaveHistory(ctx, "u1", model.ChatMessages{
		{ID: 1, Type: "bot", Content: welcomeMessage, Timestamp: time.Now().UTC()},
		{ID: 2, Type: "user", Content: "I want to learn Go", Timestamp: time.Now().UTC()},
	})
	if err != nil {
		t.Fatalf("save history: %v", err)
	}
	if saved != 2 {
		t.Fatalf("saved count = %d, want 2", saved)
	}

	if err := svc.ClearHistory(ctx, "u1"); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	messages, err := svc.GetHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != welcomeMessage {
		t.Fatalf("cleared history = %+v", messages)
	}
}
