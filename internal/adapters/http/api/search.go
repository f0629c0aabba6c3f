package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/capperchat/internal/adapters/search"
	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/pkg/logger"
)

// SearchDependencies defines the semantic search operation.
type SearchDependencies interface {
	Search(ctx context.Context, req service.SearchRequest) ([]search.Result, error)
}

// SearchHandler handles semantic search requests.
type SearchHandler struct {
	deps   SearchDependencies
	logger logger.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps SearchDependencies, log logger.Logger) *SearchHandler {
	return &SearchHandler{deps: deps, logger: log}
}

type searchResponse struct {
	Results []search.Result `json:"results"`
	Total   int             `json:"total"`
}

// HandleSearch handles POST /search requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req service.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, ErrBodyTooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	results, err := h.deps.Search(r.Context(), req)
	switch {
	case err == nil:
		if results == nil {
			results = []search.Result{}
		}
		writeJSON(w, http.StatusOK, searchResponse{Results: results, Total: len(results)})
	case errors.Is(err, service.ErrInvalidKind), errors.Is(err, service.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrSearchUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		h.logger.Error(r.Context(), "search failed", logger.Error(err))
		writeInternal(w)
	}
}
