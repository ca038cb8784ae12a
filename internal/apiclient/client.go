// Package apiclient talks to the ERP REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxErrorBody = 64 << 10
	// PayloadField is the multipart field carrying the JSON document.
	PayloadField = "payload"
	// AttachmentField is the multipart field carrying uploaded files.
	AttachmentField = "attachments"
)

// Observer receives one call per completed backend request.
type Observer interface {
	ObserveUpstream(method, path string, status int, elapsed time.Duration)
}

// Attachment is a file uploaded alongside a document.
type Attachment struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver records request metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client is a JSON client bound to one backend. It never retries.
type Client struct {
	base      *url.URL
	endpoints Endpoints
	http      *http.Client
	logger    *slog.Logger
	observer  Observer
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := cfg.parse()
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		base:      base,
		endpoints: cfg.Endpoints.WithDefaults(),
		http:      &http.Client{Timeout: timeout},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoints returns the configured resource paths.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// GetJSON decodes the response of GET path into dest.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", dest)
}

// PostJSON sends body as JSON and decodes the response into dest, if any.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, dest)
}

// PutJSON sends body as JSON and decodes the response into dest, if any.
func (c *Client) PutJSON(ctx context.Context, path string, body, dest any) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, dest)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

// PostMultipart sends body as a JSON part plus attachments.
func (c *Client) PostMultipart(ctx context.Context, path string, body any, files []Attachment, dest any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("apiclient: encode %s: %w", path, err)
	}
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if err := writer.WriteField(PayloadField, string(raw)); err != nil {
		return err
	}
	for _, f := range files {
		if f.Content == nil {
			continue
		}
		part, err := writer.CreateFormFile(AttachmentField, f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("apiclient: read attachment %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, buf, writer.FormDataContentType(), dest)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, dest any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("apiclient: encode %s: %w", path, err)
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(raw), "application/json", dest)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	raw := strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		unescaped = raw
	}
	u.Path, u.RawPath = unescaped, raw
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		c.logger.Warn("backend request failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(method, path, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, data),
			Body:    string(data),
		}
		c.logger.Warn("backend request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message))
		return apiErr
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	return nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, path, status, time.Since(start))
}

// JoinPath appends escaped id segments to a resource path.
func JoinPath(path string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(path, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
