package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/metrics"
)

const (
	geminiModel          = "gemini-2.0-flash"
	geminiEmbeddingModel = "gemini-embedding-001"
)

// Gemini uses the Gemini API backend of google.golang.org/genai.
type Gemini struct {
	client *genai.Client
	s      settings
}

// NewGemini creates a Gemini provider authenticated with an API key.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	s := newSettings(geminiModel, geminiEmbeddingModel, "", opts)

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, s: s}, nil
}

// Generate runs a single GenerateContent call.
func (g *Gemini) Generate(ctx context.Context, p model.Prompt) (string, error) {
	contents := make([]*genai.Content, 0, len(p.Messages))
	for _, m := range p.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.s.tokens(p.MaxTokens)), //nolint:gosec // small positive value
		Temperature:     g.s.temperature,
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.s.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generate: %w", ErrEmptyResponse)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("gemini generate: %w", ErrEmptyResponse)
	}
	return out.String(), nil
}

// Embed returns the embedding of text at the configured dimensionality.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.RecordEmbeddingLatency(float64(time.Since(start).Milliseconds())) }()

	dim := int32(g.s.dimension) //nolint:gosec // configured dimension
	resp, err := g.client.Models.EmbedContent(ctx, g.s.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: &dim})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini embed: %w", ErrEmptyResponse)
	}
	values := resp.Embeddings[0].Values
	if err := checkDimension(values, g.s.dimension); err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	return values, nil
}

func (g *Gemini) Model() string  { return g.s.embeddingModel }
func (g *Gemini) Dimension() int { return g.s.dimension }
