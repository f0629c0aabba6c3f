package vector

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/capperchat/pkg/logger"
)

// Option configures a Pinecone client.
type Option func(*Pinecone)

// WithControlURL overrides the control plane endpoint.
func WithControlURL(url string) Option {
	return func(p *Pinecone) {
		if url != "" {
			p.controlURL = url
		}
	}
}

// WithHost skips index discovery and talks to a known data plane host.
func WithHost(host string) Option {
	return func(p *Pinecone) {
		p.host = host
	}
}

// WithDimension sets the dimension used when creating the index.
func WithDimension(n int) Option {
	return func(p *Pinecone) {
		if n > 0 {
			p.dimension = n
		}
	}
}

// WithServerless sets the cloud and region used when creating the index.
func WithServerless(cloud, region string) Option {
	return func(p *Pinecone) {
		if cloud != "" {
			p.cloud = cloud
		}
		if region != "" {
			p.region = region
		}
	}
}

// WithReadyWait bounds the wait for a new index to become ready.
func WithReadyWait(interval time.Duration, maxAttempts int) Option {
	return func(p *Pinecone) {
		if interval >= 0 {
			p.pollInterval = interval
		}
		if maxAttempts > 0 {
			p.maxPolls = maxAttempts
		}
	}
}

// WithNamespace scopes data plane calls to a namespace.
func WithNamespace(ns string) Option {
	return func(p *Pinecone) {
		p.namespace = ns
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pinecone) {
		if c != nil {
			p.http = c
		}
	}
}

// WithSleep replaces the readiness poll wait, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pinecone) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pinecone) {
		if l != nil {
			p.log = l
		}
	}
}
