package handler

import (
	"log/slog"
	"net/http"

	"pawfect/internal/domain"
	"pawfect/internal/domain/services"
	"pawfect/internal/httputil"
)

// ConversationHandler serves the chat and conversation history endpoints.
// Handlers only talk to the service layer.
type ConversationHandler struct {
	service services.ConversationService
	logger  *slog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(service services.ConversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the conversation routes and the health check on mux
// (Go 1.22+ method patterns).
func (h *ConversationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", HealthCheck)

	mux.HandleFunc("POST /api/chat", h.SendMessage)
	mux.HandleFunc("GET /api/conversations", h.ListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", h.GetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.DeleteConversation)
}

// SendMessage runs one chat turn
// POST /api/chat
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, domain.NewValidationError(err))
		return
	}

	resp, err := h.service.SendMessage(r.Context(), &req, userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// ListConversations returns the caller's conversations, newest activity first
// GET /api/conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	conversations, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conversations)
}

// GetConversation returns one conversation with its messages
// GET /api/conversations/{id}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	id := pathID(r)
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	conv, err := h.service.GetConversation(r.Context(), id, userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// DeleteConversation removes a conversation and its messages
// DELETE /api/conversations/{id}
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	id := pathID(r)
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	if err := h.service.DeleteConversation(r.Context(), id, userID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// HealthCheck is a simple health check endpoint
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
