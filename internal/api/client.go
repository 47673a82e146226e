// Package api provides the client for the nutribuddy chat endpoint.
package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// DefaultTimeout bounds a single chat request when no timeout is configured
const DefaultTimeout = 60 * time.Second

// ChatClientInterface is the reply transport used by the chat controller
type ChatClientInterface interface {
	SendMessage(ctx context.Context, message string) (string, error)
	BaseURL() string
	Close()
}

// ChatClient posts chat messages to a nutribuddy backend
type ChatClient struct {
	httpClient tls_client.HttpClient
	baseURL    string
	timeout    time.Duration
	mu         sync.RWMutex
	closed     bool
}

// Ensure ChatClient implements ChatClientInterface
var _ ChatClientInterface = (*ChatClient)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*ChatClient)

// WithHTTPClient injects the HTTP client (used by tests)
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *ChatClient) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ChatClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a new ChatClient for the backend at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*ChatClient, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := &ChatClient{
		baseURL: normalized,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// normalizeBaseURL checks that raw is an absolute http(s) URL and strips any
// trailing slash
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("server URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the backend base URL
func (c *ChatClient) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout
func (c *ChatClient) Timeout() time.Duration {
	return c.timeout
}

// Close releases idle connections; further sends fail
func (c *ChatClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *ChatClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
