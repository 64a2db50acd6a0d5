package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ChatHandler handles the advisor chat history endpoints.
type ChatHandler struct {
	chatService service.ChatService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService service.ChatService, validate *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validate:    validate,
		logger:      logger,
	}
}

// RegisterRoutes mounts chat routes
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/chat", authMw(http.HandlerFunc(h.handleChat)))
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getHistory(w, r)
	case http.MethodPost:
		h.saveHistory(w, r)
	case http.MethodDelete:
		h.clearHistory(w, r)
	default:
		http.NotFound(w, r)
	}
}

// getHistory godoc
// @Summary Get the caller's chat history
// @Description Returns the advisor conversation, seeding a welcome message on first access.
// @Tags chat
// @Produce json
// @Success 200 {object} dto.ChatHistoryResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /chat [get]
func (h *ChatHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}
	messages, err := h.chatService.GetHistory(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch chat history")
		writeError(w, http.StatusInternalServerError, "Failed to fetch chat history")
		return
	}
	writeJSON(w, http.StatusOK, dto.ChatHistoryResponseDTO{Success: true, Messages: messages})
}

// saveHistory godoc
// @Summary Save the caller's chat history
// @Tags chat
// @Accept json
// @Produce json
// @Param chat body dto.ChatSaveDTO true "Message sequence"
// @Success 200 {object} dto.ChatSaveResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Router /chat [post]
func (h *ChatHandler) saveHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}
	var req dto.ChatSaveDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if req.Messages == nil {
		writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}

	count, err := h.chatService.SaveHistory(r.Context(), userID, req.Messages)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to save chat history")
		writeError(w, http.StatusInternalServerError, "Failed to save chat")
		return
	}
	writeJSON(w, http.StatusOK, dto.ChatSaveResponseDTO{
		Success:      true,
		Message:      "Chat saved successfully",
		MessageCount: count,
	})
}

// clearHistory godoc
// @Summary Clear the caller's chat history
// @Tags chat
// @Produce json
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /chat [delete]
func (h *ChatHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}
	if err := h.chatService.ClearHistory(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear chat history")
		writeError(w, http.StatusInternalServerError, "Failed to clear chat")
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Success: true, Message: "Chat history cleared"})
}
