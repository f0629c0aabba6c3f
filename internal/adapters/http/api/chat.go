package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/pkg/logger"
)

// ChatDependencies defines the interface for chat operations.
type ChatDependencies interface {
	Chat(ctx context.Context, req service.ChatRequest) (service.ChatResponse, error)
}

// ChatHandler handles chat requests.
type ChatHandler struct {
	deps   ChatDependencies
	logger logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps ChatDependencies, log logger.Logger) *ChatHandler {
	return &ChatHandler{deps: deps, logger: log}
}

// HandleChat handles POST /chat requests.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, ErrBodyTooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	resp, err := h.deps.Chat(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, service.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:       msgRequired,
			Code:        "bad_request",
			Suggestions: emptyMessageSuggestions,
		})
	case errors.Is(err, service.ErrDatasetUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msgUnavailable, Code: "unavailable"})
	default:
		h.logger.Error(r.Context(), "chat failed", logger.Error(err))
		writeInternal(w)
	}
}
