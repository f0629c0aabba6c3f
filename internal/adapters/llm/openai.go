package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/capperchat/internal/domain/model"
	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

const (
	openAIBaseURL        = "https://api.openai.com/v1"
	openAIModel          = "gpt-4o-mini"
	openAIEmbeddingModel = "text-embedding-3-small"
	maxErrorBody         = 2048
)

// OpenAI talks to any OpenAI-compatible chat and embeddings endpoint.
type OpenAI struct {
	apiKey string
	s      settings
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	s := newSettings(openAIModel, openAIEmbeddingModel, openAIBaseURL, opts)
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	return &OpenAI{apiKey: apiKey, s: s}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Generate sends a chat completion request.
func (o *OpenAI) Generate(ctx context.Context, p model.Prompt) (string, error) {
	msgs := make([]chatMessage, 0, len(p.Messages)+1)
	if p.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: p.System})
	}
	for _, m := range p.Messages {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	req := chatRequest{
		Model:       o.s.model,
		Messages:    msgs,
		MaxTokens:   o.s.tokens(p.MaxTokens),
		Temperature: o.s.temperature,
	}
	if p.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatResponse
	if err := o.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai chat: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding of text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.RecordEmbeddingLatency(float64(time.Since(start).Milliseconds())) }()

	var resp embeddingResponse
	if err := o.post(ctx, "/embeddings", embeddingRequest{Model: o.s.embeddingModel, Input: text}, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: %w", ErrEmptyResponse)
	}
	values := resp.Data[0].Embedding
	if err := checkDimension(values, o.s.dimension); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return values, nil
}

func (o *OpenAI) Model() string  { return o.s.embeddingModel }
func (o *OpenAI) Dimension() int { return o.s.dimension }

func (o *OpenAI) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		o.s.log.Warn(ctx, "openai request failed",
			logger.String("path", path), logger.Int("status", resp.StatusCode))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
