// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/capperchat/internal/adapters/search"
	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/logger"
)

const maxBodyBytes = 1 << 20

const (
	msgRequired    = "Message is required"
	msgUnavailable = "Service temporarily unavailable - data not loaded"
	msgInternal    = "Sorry, something went wrong. Please try again."
)

// emptyMessageSuggestions accompany 400 responses for blank messages.
var emptyMessageSuggestions = []string{ //nolint:gochecknoglobals // fixed copy
	"Who is the best capper?",
	"Show me packages under $30",
	"Compare top performers",
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Chat(ctx context.Context, req service.ChatRequest) (service.ChatResponse, error)

	Handicappers(ctx context.Context) []model.Handicapper
	Handicapper(ctx context.Context, id string) (model.Handicapper, error)
	Packages(ctx context.Context) []model.Package
	Package(ctx context.Context, id string) (model.Package, error)
	PackagesByCapper(ctx context.Context, capperID string) ([]model.Package, error)

	Search(ctx context.Context, req service.SearchRequest) ([]search.Result, error)

	GetStats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	chatHandler    *ChatHandler
	catalogHandler *CatalogHandler
	searchHandler  *SearchHandler
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		chatHandler:    NewChatHandler(deps, log),
		catalogHandler: NewCatalogHandler(deps),
		searchHandler:  NewSearchHandler(deps, log),
		logger:         log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(RecoverMiddleware(h, s.logger), endpoint)
	}

	mux.HandleFunc("GET /healthz", wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /chat", wrap(s.chatHandler.HandleChat, "chat"))
	mux.HandleFunc("POST /search", wrap(s.searchHandler.HandleSearch, "search"))
	mux.HandleFunc("GET /handicappers", wrap(s.catalogHandler.HandleListHandicappers, "handicappers"))
	mux.HandleFunc("GET /handicappers/{id}", wrap(s.catalogHandler.HandleGetHandicapper, "handicapper"))
	mux.HandleFunc("GET /handicappers/{id}/packages", wrap(s.catalogHandler.HandleCapperPackages, "handicapper_packages"))
	mux.HandleFunc("GET /packages", wrap(s.catalogHandler.HandleListPackages, "packages"))
	mux.HandleFunc("GET /packages/{id}", wrap(s.catalogHandler.HandleGetPackage, "package"))
}

type errorResponse struct {
	Error       string     `json:"error"`
	Code        string     `json:"code,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeInternal hides err from the client.
func writeInternal(w http.ResponseWriter) {
	now := time.Now().UTC()
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal, Code: "internal_error", Timestamp: &now})
}

// decodeJSON reads a single JSON object from the body. Unknown fields are
// ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return ErrBodyTooBig
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		default:
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}
	return nil
}
