package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/chat"
)

type ChatService interface {
	Handle(ctx context.Context, in chat.Input, callerID string) (*chat.Output, error)
}

type ChatHandler struct {
	Chat   ChatService
	Logger *zap.Logger
}

func NewChatHandler(svc ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Chat: svc, Logger: logger}
}

func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	var in chat.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	out, err := h.Chat.Handle(r.Context(), in, userID)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
