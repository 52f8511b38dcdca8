// Package rest is the single request executor for the backend's REST API:
// deadline enforcement, bearer injection, JSON/text negotiation, and uniform
// error normalization. Endpoint shapes live in internal/api, not here.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every request unless Options.Timeout overrides it.
const DefaultTimeout = 20 * time.Second

// Options carries per-request parameters.
type Options struct {
	Token   string
	Body    any
	Header  http.Header
	Timeout time.Duration
}

// Gateway executes requests against a fixed base URL.
type Gateway struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// New creates a gateway for the given base URL (no trailing slash).
func New(base string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{},
		logger: logger,
	}
}

// Do executes one request and returns the decoded response body: a JSON
// value (map/slice/etc.) when the server declares JSON, otherwise the raw
// text. Parse failures degrade to nil/"" rather than erroring. Non-2xx
// statuses return *HTTPError; an exceeded deadline returns an error
// matching ErrTimeout.
func (g *Gateway) Do(ctx context.Context, method, path string, opts Options) (any, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := g.base + path

	var bodyReader io.Reader
	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	res, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.logger.Warn("request timed out", zap.String("method", method), zap.String("path", path))
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		raw = nil
	}

	var data any
	if strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		if json.Unmarshal(raw, &data) != nil {
			data = nil
		}
	} else {
		data = string(raw)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := extractMessage(data, res.StatusCode)
		g.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.String("message", msg))
		return nil, &HTTPError{Status: res.StatusCode, Message: msg, Data: data}
	}

	return data, nil
}

// Get issues a GET request.
func (g *Gateway) Get(ctx context.Context, path string, opts Options) (any, error) {
	return g.Do(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request with body.
func (g *Gateway) Post(ctx context.Context, path string, body any, opts Options) (any, error) {
	opts.Body = body
	return g.Do(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request with body.
func (g *Gateway) Put(ctx context.Context, path string, body any, opts Options) (any, error) {
	opts.Body = body
	return g.Do(ctx, http.MethodPut, path, opts)
}

// Delete issues a DELETE request.
func (g *Gateway) Delete(ctx context.Context, path string, opts Options) (any, error) {
	return g.Do(ctx, http.MethodDelete, path, opts)
}
