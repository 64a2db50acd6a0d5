package dto

import "app/internal/model"

// ChatHistoryResponseDTO is the caller's advisor conversation
type ChatHistoryResponseDTO struct {
	Success  bool               `json:"success"`
	Messages model.ChatMessages `json:"messages"`
}

// ChatSaveDTO replaces the caller's message sequence
type ChatSaveDTO struct {
	Messages model.ChatMessages `json:"messages" validate:"required"`
}

// ChatSaveResponseDTO acknowledges a saved conversation
type ChatSaveResponseDTO struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	MessageCount int    `json:"message_count"`
}
