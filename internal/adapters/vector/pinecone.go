package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

const (
	pineconeControlURL = "https://api.pinecone.io"
	pineconeAPIVersion = "2024-07"
	maxErrorBody       = 2048
)

// Pinecone is a REST client for one serverless Pinecone index. The index is
// created on first use if it does not exist.
type Pinecone struct {
	apiKey     string
	index      string
	controlURL string
	namespace  string
	dimension  int
	metric     string
	cloud      string
	region     string

	pollInterval time.Duration
	maxPolls     int
	sleep        func(ctx context.Context, d time.Duration) error

	http *http.Client
	log  logger.Logger

	mu   sync.Mutex
	host string
}

// NewPinecone creates a client for the named index.
func NewPinecone(apiKey, index string, opts ...Option) *Pinecone {
	p := &Pinecone{
		apiKey:       apiKey,
		index:        index,
		controlURL:   pineconeControlURL,
		dimension:    1536,
		metric:       "cosine",
		cloud:        "aws",
		region:       "us-east-1",
		pollInterval: time.Second,
		maxPolls:     60,
		sleep:        sleepContext,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.controlURL = strings.TrimRight(p.controlURL, "/")
	return p
}

type indexStatus struct {
	Ready bool   `json:"ready"`
	State string `json:"state"`
}

type indexDescription struct {
	Name      string      `json:"name"`
	Dimension int         `json:"dimension"`
	Metric    string      `json:"metric"`
	Host      string      `json:"host"`
	Status    indexStatus `json:"status"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}

// EnsureIndex returns the data plane host, creating the index and waiting
// for readiness when needed. The wait is bounded; exhausting it returns
// ErrIndexNotReady.
func (p *Pinecone) EnsureIndex(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.host != "" {
		return p.host, nil
	}

	var list struct {
		Indexes []indexDescription `json:"indexes"`
	}
	if err := p.do(ctx, "list indexes", http.MethodGet, p.controlURL+"/indexes", nil, &list); err != nil {
		return "", err
	}

	exists := false
	for _, idx := range list.Indexes {
		if idx.Name == p.index {
			exists = true
			if idx.Status.Ready && idx.Host != "" {
				p.host = idx.Host
				return p.host, nil
			}
		}
	}

	if !exists {
		req := createIndexRequest{Name: p.index, Dimension: p.dimension, Metric: p.metric}
		req.Spec.Serverless.Cloud = p.cloud
		req.Spec.Serverless.Region = p.region

		err := p.do(ctx, "create index", http.MethodPost, p.controlURL+"/indexes", req, nil)
		var se *StatusError
		if err != nil && !(errors.As(err, &se) && se.StatusCode == http.StatusConflict) {
			return "", err
		}
		p.log.Info(ctx, "created pinecone index",
			logger.String("index", p.index), logger.Int("dimension", p.dimension))
	}

	host, err := p.waitReady(ctx)
	if err != nil {
		return "", err
	}
	p.host = host
	return host, nil
}

func (p *Pinecone) waitReady(ctx context.Context) (string, error) {
	describeURL := p.controlURL + "/indexes/" + url.PathEscape(p.index)
	for attempt := 1; attempt <= p.maxPolls; attempt++ {
		var desc indexDescription
		if err := p.do(ctx, "describe index", http.MethodGet, describeURL, nil, &desc); err != nil {
			return "", err
		}
		if desc.Status.Ready && desc.Host != "" {
			return desc.Host, nil
		}
		p.log.Debug(ctx, "waiting for pinecone index",
			logger.String("index", p.index), logger.String("state", desc.Status.State), logger.Int("attempt", attempt))

		if attempt == p.maxPolls {
			break
		}
		if err := p.sleep(ctx, p.pollInterval); err != nil {
			return "", fmt.Errorf("%w: %w", ErrIndexNotReady, err)
		}
	}
	return "", fmt.Errorf("%w: %s after %d checks", ErrIndexNotReady, p.index, p.maxPolls)
}

type upsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Filter          Filter    `json:"filter,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace,omitempty"`
}

// Upsert writes vectors to the index.
func (p *Pinecone) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	base, err := p.dataURL(ctx)
	if err != nil {
		return err
	}
	if err := p.do(ctx, "upsert", http.MethodPost, base+"/vectors/upsert", upsertRequest{Vectors: vectors, Namespace: p.namespace}, nil); err != nil {
		metrics.RecordVectorError("upsert")
		return err
	}
	return nil
}

// Query returns the nearest matches in provider order.
func (p *Pinecone) Query(ctx context.Context, q Query) ([]Match, error) {
	base, err := p.dataURL(ctx)
	if err != nil {
		return nil, err
	}
	req := queryRequest{
		Vector:          q.Vector,
		TopK:            q.TopK,
		Filter:          q.Filter,
		IncludeMetadata: q.IncludeMetadata,
		Namespace:       p.namespace,
	}
	var resp queryResponse
	if err := p.do(ctx, "query", http.MethodPost, base+"/query", req, &resp); err != nil {
		metrics.RecordVectorError("query")
		return nil, err
	}
	if resp.Matches == nil {
		resp.Matches = []Match{}
	}
	return resp.Matches, nil
}

// DeleteAll removes every vector in the namespace.
func (p *Pinecone) DeleteAll(ctx context.Context) error {
	base, err := p.dataURL(ctx)
	if err != nil {
		return err
	}
	err = p.do(ctx, "delete", http.MethodPost, base+"/vectors/delete", deleteRequest{DeleteAll: true, Namespace: p.namespace}, nil)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		// Deleting from an empty namespace.
		return nil
	}
	if err != nil {
		metrics.RecordVectorError("delete")
	}
	return err
}

func (p *Pinecone) dataURL(ctx context.Context) (string, error) {
	host, err := p.EnsureIndex(ctx)
	if err != nil {
		metrics.RecordVectorError("ensure")
		return "", err
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/"), nil
	}
	return "https://" + strings.TrimRight(host, "/"), nil
}

func (p *Pinecone) do(ctx context.Context, op, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("pinecone %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("pinecone %s: %w", op, err)
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pinecone %s: decode: %w", op, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
