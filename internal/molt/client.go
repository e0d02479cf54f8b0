// Package molt is the HTTP translation layer for the molt-md encrypted
// document hosting API.
//
// The client owns a single reusable connection handle, attaches the
// capability-token auth headers to every request, and converts failures into
// the tagged error kinds in errors.go. It carries no document or workspace
// state of its own; identifiers and tokens pass straight through.
package molt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/elnormous/contenttype"
	"go.uber.org/zap"
)

// Headers understood by the molt-md API.
const (
	headerKey        = "X-Molt-Key"
	headerWorkspace  = "X-Molt-Workspace"
	headerTruncated  = "X-Molt-Truncated"
	headerTotalLines = "X-Molt-Total-Lines"
)

const defaultTimeout = 30 * time.Second

var jsonMediaType = contenttype.NewMediaType("application/json")

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://molt-md.com/api/v1".
	BaseURL string

	// APIKey is the capability token sent as X-Molt-Key on every request.
	APIKey string

	// WorkspaceID optionally scopes all requests via X-Molt-Workspace.
	WorkspaceID string

	// Timeout is the fixed per-request ceiling. Zero selects 30s.
	Timeout time.Duration

	// NewConn builds the underlying HTTP handle. Nil selects a default
	// pooled client; tests inject their own.
	NewConn func() *http.Client

	// Logger for request diagnostics. Nil selects a no-op logger.
	Logger *zap.Logger
}

// Client executes requests against the molt-md API.
//
// The HTTP handle is created lazily on first use and dropped after any
// transport-level failure so the next call starts from a fresh connection
// pool. Everything else on the struct is immutable after New, so concurrent
// tool invocations share the client without locking; a racing duplicate
// handle is harmless and short-lived.
type Client struct {
	baseURL     string
	apiKey      string
	workspaceID string
	newConn     func() *http.Client
	conn        atomic.Pointer[http.Client]
	logger      *zap.Logger
}

// New creates a Client. The connection itself is not opened until the first
// request.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	newConn := cfg.NewConn
	if newConn == nil {
		newConn = func() *http.Client {
			return &http.Client{Timeout: timeout}
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		workspaceID: cfg.WorkspaceID,
		newConn:     newConn,
		logger:      logger,
	}, nil
}

// RequestOptions carries the per-call request shape. JSON and Raw are
// mutually exclusive; JSON bodies are sent as application/json, Raw callers
// set their own Content-Type through Headers.
type RequestOptions struct {
	Headers http.Header
	Query   url.Values
	JSON    any
	Raw     []byte
}

// Result is a successful API response. Data holds a decoded JSON value, the
// body as a string for non-JSON content, or the success sentinel for 204.
// Headers always carries the full response header set; several of them are
// semantic metadata consumed by callers.
type Result struct {
	Data    any
	Headers http.Header
}

// ETag returns the version token header, quotes included, or "".
func (r *Result) ETag() string {
	return r.Headers.Get("Etag")
}

// Truncated reports whether the response body was capped to a requested
// line count.
func (r *Result) Truncated() bool {
	return r.Headers.Get(headerTruncated) == "true"
}

// TotalLines returns the total-line-count hint, or 0 when absent.
func (r *Result) TotalLines() int {
	n, err := strconv.Atoi(r.Headers.Get(headerTotalLines))
	if err != nil {
		return 0
	}
	return n
}

// Do executes one request. Non-2xx statuses come back as *APIError with the
// server's optional message extracted; connectivity and decode failures come
// back as *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions) (*Result, error) {
	var body io.Reader
	jsonBody := false
	switch {
	case opts.JSON != nil:
		buf, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, &TransportError{Err: fmt.Errorf("encoding request body: %w", err)}
		}
		body = bytes.NewReader(buf)
		jsonBody = true
	case opts.Raw != nil:
		body = bytes.NewReader(opts.Raw)
	}

	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set(headerKey, c.apiKey)
	if c.workspaceID != "" {
		req.Header.Set(headerWorkspace, c.workspaceID)
	}
	if jsonBody {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, values := range opts.Headers {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}

	conn := c.httpConn()
	resp, err := conn.Do(req)
	if err != nil {
		c.dropConn(conn)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.dropConn(conn)
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			Detail: errorDetail(payload),
		}
		c.logger.Debug("api error",
			zap.Int("status", apiErr.Status),
			zap.String("method", method),
			zap.String("path", path))
		return nil, apiErr
	}

	res := &Result{Headers: resp.Header}
	switch {
	case resp.StatusCode == http.StatusNoContent:
		res.Data = map[string]any{"success": true}
	case isJSON(resp.Header.Get("Content-Type")):
		var v any
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
		}
		res.Data = v
	default:
		res.Data = string(payload)
	}
	return res, nil
}

// httpConn returns the shared handle, creating it on first use. An
// unsynchronized race creates at most a short-lived duplicate.
func (c *Client) httpConn() *http.Client {
	if conn := c.conn.Load(); conn != nil {
		return conn
	}
	conn := c.newConn()
	c.conn.Store(conn)
	return conn
}

// dropConn discards a handle after a transport failure so the next call
// rebuilds it with a fresh connection pool.
func (c *Client) dropConn(conn *http.Client) {
	if c.conn.CompareAndSwap(conn, nil) {
		conn.CloseIdleConnections()
	}
}

// errorDetail pulls the optional message field out of a JSON error body.
// Absence is not itself an error; classification falls back to the status
// code alone.
func errorDetail(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func isJSON(value string) bool {
	// NewMediaType does not strip parameters like charset
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return contenttype.NewMediaType(strings.TrimSpace(value)).Matches(jsonMediaType)
}
