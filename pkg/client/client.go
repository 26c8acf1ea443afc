// Package client talks to the WordPress REST endpoints that store form
// schemas and receive submissions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// NonceHeader carries the WordPress nonce on mutating calls.
const NonceHeader = "X-WP-Nonce"

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithNonce sets the nonce attached to submit and update calls.
func WithNonce(nonce string) Option {
	return func(c *Client) {
		c.nonce = strings.TrimSpace(nonce)
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a REST collaborator for one form endpoint base.
type Client struct {
	base   *url.URL
	nonce  string
	http   *http.Client
	logger *slog.Logger
}

// New validates baseURL and returns a Client.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", baseURL)
	}
	c := &Client{base: u, http: http.DefaultClient}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured base.
func (c *Client) BaseURL() string { return c.base.String() }

// FetchSchema loads the form registered under formType (GET <base>?title=).
// Failures are reported as *schema.LoadError.
func (c *Client) FetchSchema(ctx context.Context, formType string) (schema.FormConfig, error) {
	u := *c.base
	q := u.Query()
	q.Set("title", formType)
	u.RawQuery = q.Encode()
	return c.fetchSchema(ctx, u.String())
}

// FetchSchemaByID loads a form by id (GET <base>/<id>).
func (c *Client) FetchSchemaByID(ctx context.Context, id string) (schema.FormConfig, error) {
	return c.fetchSchema(ctx, c.endpoint(id))
}

func (c *Client) fetchSchema(ctx context.Context, target string) (schema.FormConfig, error) {
	body, err := c.do(ctx, http.MethodGet, target, nil, "", false)
	if err != nil {
		return schema.FormConfig{}, &schema.LoadError{Location: target, Err: err}
	}
	cfg, err := schema.Parse(body)
	if err != nil {
		return schema.FormConfig{}, &schema.LoadError{Location: target, Err: err}
	}
	return schema.Normalize(cfg), nil
}

// FetchRecord loads the flat record used to prefill an update session.
// target is absolute or relative to the base.
func (c *Client) FetchRecord(ctx context.Context, target string) (map[string]any, error) {
	if !strings.Contains(target, "://") {
		target = c.endpoint(strings.TrimLeft(target, "/"))
	}
	body, err := c.do(ctx, http.MethodGet, target, nil, "", false)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, &TransportError{Op: "record", Err: fmt.Errorf("decode record: %w", err)}
	}
	return record, nil
}

// Submit posts a new entry (POST <base>/add).
func (c *Client) Submit(ctx context.Context, payload render.Payload) (render.Response, error) {
	return c.send(ctx, "submit", c.endpoint("add"), payload)
}

// Update posts changes to an existing entry (POST <base>/update/<id>).
func (c *Client) Update(ctx context.Context, id string, payload render.Payload) (render.Response, error) {
	return c.send(ctx, "update", c.endpoint("update", id), payload)
}

// Submitter adapts Submit to a session handler.
func (c *Client) Submitter() render.SubmitFunc {
	return c.Submit
}

// Updater adapts Update for the entry id to a session handler.
func (c *Client) Updater(id string) render.SubmitFunc {
	return func(ctx context.Context, payload render.Payload) (render.Response, error) {
		return c.Update(ctx, id, payload)
	}
}

type wireResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  any    `json:"post_id"`
	UserID  any    `json:"user_id"`
	ID      any    `json:"id"`
}

func (c *Client) send(ctx context.Context, op, target string, payload render.Payload) (render.Response, error) {
	body, contentType, err := payload.Encode()
	if err != nil {
		return render.Response{}, &TransportError{Op: op, Err: err}
	}
	raw, err := c.do(ctx, http.MethodPost, target, body, contentType, true)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			te.Op = op
		}
		return render.Response{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var wire wireResponse
	if err := dec.Decode(&wire); err != nil {
		return render.Response{}, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	resp := render.Response{Success: wire.Success, Message: wire.Message}
	for _, id := range []any{wire.PostID, wire.UserID, wire.ID} {
		if s := validation.Stringify(id); s != "" && id != nil {
			resp.ID = s
			break
		}
	}
	c.loggerFor(ctx).Debug("form endpoint answered", "op", op, "url", target, "success", resp.Success)
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, contentType string, mutating bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if mutating && c.nonce != "" {
		req.Header.Set(NonceHeader, c.nonce)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.loggerFor(ctx).Warn("form endpoint unreachable", "url", target, "error", err)
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, &TransportError{Status: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		te := parseErrorBody(res.StatusCode, raw)
		c.loggerFor(ctx).Warn("form endpoint returned error", "url", target, "status", res.StatusCode, "message", te.Message)
		return nil, te
	}
	return raw, nil
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	u.RawQuery = ""
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = ""
	return u.String()
}

func (c *Client) loggerFor(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return ctxlog.FromContext(ctx)
}
