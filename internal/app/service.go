// Package service wires the catalog, intent resolution and response
// dispatch into the operations the HTTP API serves.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/okian/capperchat/internal/adapters/repository"
	"github.com/okian/capperchat/internal/adapters/search"
	"github.com/okian/capperchat/internal/domain/dispatch"
	"github.com/okian/capperchat/internal/domain/intent"
	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

const defaultMaxMessageLength = 500

// Sources report which tier produced the intent.
const (
	SourceKeyword  = "keyword"
	SourceModel    = "model"
	SourceFallback = "fallback"
	SourceDefault  = "default"
)

// Classifier resolves messages the keyword table misses.
type Classifier interface {
	Classify(ctx context.Context, message string, history []model.ConversationTurn) model.IntentResult
}

// Searcher runs semantic searches.
type Searcher interface {
	Search(ctx context.Context, kind search.Kind, query string, opts search.Options) ([]search.Result, error)
}

// ChatRequest is one user message with optional prior turns.
type ChatRequest struct {
	Message string                   `json:"message"`
	History []model.ConversationTurn `json:"history,omitempty"`
}

// ChatResponse is the reply plus the widget payload.
type ChatResponse struct {
	Reply          string              `json:"reply"`
	Intent         model.Intent        `json:"intent"`
	Confidence     model.Confidence    `json:"confidence"`
	Source         string              `json:"source"`
	Data           any                 `json:"data"`
	Classification *model.IntentResult `json:"classification,omitempty"`
	RequestID      string              `json:"requestId"`
	Timestamp      time.Time           `json:"timestamp"`
}

// Service implements the API dependencies for the chat backend.
type Service struct {
	store      repository.Store
	classifier Classifier
	searcher   Searcher

	maxMessageLength int
	startedAt        time.Time

	chats    atomic.Int64
	bySource [4]atomic.Int64

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// New constructs a Service over store. Classifier and searcher are optional.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		maxMessageLength: defaultMaxMessageLength,
		now:              time.Now,
		newID:            func() string { return uuid.NewString() },
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// Chat resolves the message intent and builds the reply.
//
// The keyword table is consulted first. Only when it returns Unknown is the
// classifier, if any, asked; without one the help reply is served.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	start := time.Now()
	requestID := s.newID()
	log := s.logger.With(logger.String("request_id", requestID))

	message := s.normalize(req.Message)
	if message == "" {
		return ChatResponse{}, ErrEmptyMessage
	}

	ds := s.store.Dataset(ctx)
	if ds.Empty() {
		log.Warn(ctx, "chat rejected: dataset empty")
		return ChatResponse{}, ErrDatasetUnavailable
	}

	resp := ChatResponse{RequestID: requestID}
	resolved := intent.Resolve(message, ds.IntentExamples)

	switch {
	case resolved != model.IntentUnknown:
		resp.Intent = resolved
		resp.Source = SourceKeyword
		resp.Confidence = model.ConfidenceHigh
		if !dispatch.HasHandler(resolved) {
			// Dataset-defined intents match but have no handler of their own.
			resp.Confidence = model.ConfidenceLow
		}
	case s.classifier != nil:
		metrics.RecordKeywordMiss()
		result := s.classifier.Classify(ctx, message, req.History)
		resp.Intent = result.Intent
		resp.Confidence = result.Confidence
		resp.Classification = &result
		resp.Source = SourceModel
		if !result.Validated {
			resp.Source = SourceFallback
		}
	default:
		metrics.RecordKeywordMiss()
		resp.Intent = model.IntentGeneral
		resp.Confidence = model.ConfidenceLow
		resp.Source = SourceDefault
	}

	out := dispatch.Respond(resp.Intent, ds, message)
	resp.Reply = out.Reply
	resp.Data = out.Data
	resp.Timestamp = s.now().UTC()

	s.count(resp.Source)
	metrics.RecordChatRequest(string(resp.Intent), resp.Source)
	metrics.RecordChatLatency(float64(time.Since(start).Milliseconds()))
	log.Info(ctx, "chat handled",
		logger.String("intent", string(resp.Intent)),
		logger.String("confidence", string(resp.Confidence)),
		logger.String("source", resp.Source),
		logger.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// normalize trims message and cuts it to the configured rune length.
func (s *Service) normalize(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) <= s.maxMessageLength {
		return message
	}
	runes := []rune(message)
	return strings.TrimSpace(string(runes[:s.maxMessageLength]))
}

func (s *Service) count(source string) {
	s.chats.Add(1)
	switch source {
	case SourceKeyword:
		s.bySource[0].Add(1)
	case SourceModel:
		s.bySource[1].Add(1)
	case SourceFallback:
		s.bySource[2].Add(1)
	default:
		s.bySource[3].Add(1)
	}
}

// Handicappers lists every handicapper in catalog order.
func (s *Service) Handicappers(ctx context.Context) []model.Handicapper {
	return s.store.Handicappers(ctx)
}

// Handicapper returns ErrNotFound for unknown ids.
func (s *Service) Handicapper(ctx context.Context, id string) (model.Handicapper, error) {
	h, err := s.store.Handicapper(ctx, id)
	return h, mapStoreErr(err, "handicapper", id)
}

// Packages lists every package in catalog order.
func (s *Service) Packages(ctx context.Context) []model.Package {
	return s.store.Packages(ctx)
}

// Package returns ErrNotFound for unknown ids.
func (s *Service) Package(ctx context.Context, id string) (model.Package, error) {
	p, err := s.store.Package(ctx, id)
	return p, mapStoreErr(err, "package", id)
}

// PackagesByCapper lists the packages sold by a handicapper.
func (s *Service) PackagesByCapper(ctx context.Context, capperID string) ([]model.Package, error) {
	pkgs, err := s.store.PackagesByCapper(ctx, capperID)
	return pkgs, mapStoreErr(err, "handicapper", capperID)
}

func mapStoreErr(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return err
}

// SearchRequest is a semantic search over the indexed catalog.
type SearchRequest struct {
	Kind        string   `json:"kind"`
	Query       string   `json:"query"`
	Sports      []string `json:"sports,omitempty"`
	MinWinRate  float64  `json:"minWinRate,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	PackageType string   `json:"packageType,omitempty"`
	TopK        int      `json:"topK,omitempty"`
}

// SearchEnabled reports whether a searcher is configured.
func (s *Service) SearchEnabled() bool { return s.searcher != nil }

// Search validates req and runs it.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]search.Result, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	kind, err := search.ParseKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	results, err := s.searcher.Search(ctx, kind, query, search.Options{
		Sports:      req.Sports,
		MinWinRate:  req.MinWinRate,
		MaxPrice:    req.MaxPrice,
		PackageType: req.PackageType,
		TopK:        req.TopK,
	})
	if err != nil {
		s.logger.Error(ctx, "search failed", logger.String("kind", string(kind)), logger.Error(err))
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	return results, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	ds := s.store.Dataset(ctx)
	var cappers, pkgs int
	if ds != nil {
		cappers, pkgs = len(ds.Handicappers), len(ds.Packages)
	}
	return map[string]any{
		"handicappers":      cappers,
		"packages":          pkgs,
		"classifierEnabled": s.classifier != nil,
		"searchEnabled":     s.searcher != nil,
		"chatRequests":      s.chats.Load(),
		"bySource": map[string]int64{
			SourceKeyword:  s.bySource[0].Load(),
			SourceModel:    s.bySource[1].Load(),
			SourceFallback: s.bySource[2].Load(),
			SourceDefault:  s.bySource[3].Load(),
		},
		"uptimeSeconds": int64(s.now().Sub(s.startedAt).Seconds()),
	}
}
