// Package authapi talks to the external identity service that issues the
// JWTs this API verifies.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Client interface {
	Login(ctx context.Context, body json.RawMessage) (*Session, error)
	Register(ctx context.Context, body json.RawMessage) (*Upstream, error)
}

// Session is a successful login as reported upstream.
type Session struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
}

// Upstream is a raw upstream reply.
type Upstream struct {
	Status int
	Body   json.RawMessage
}

// UpstreamError carries the upstream status and its message field.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("auth API %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	base string
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing AUTH_API_BASE_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &client{
		log:  log.With("client", "AuthAPI"),
		base: base,
		http: &http.Client{Timeout: cfg.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}, nil
}

func (c *client) Login(ctx context.Context, body json.RawMessage) (*Session, error) {
	up, err := c.post(ctx, "/api/auth/login", body)
	if err != nil {
		return nil, err
	}
	if up.Status < 200 || up.Status >= 300 {
		return nil, &UpstreamError{Status: up.Status, Message: messageOf(up.Body, "Login failed")}
	}
	var s Session
	if err := json.Unmarshal(up.Body, &s); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &s, nil
}

func (c *client) Register(ctx context.Context, body json.RawMessage) (*Upstream, error) {
	up, err := c.post(ctx, "/api/auth/register", body)
	if err != nil {
		return nil, err
	}
	if up.Status < 200 || up.Status >= 300 {
		return nil, &UpstreamError{Status: up.Status, Message: messageOf(up.Body, "Register failed")}
	}
	return up, nil
}

func (c *client) post(ctx context.Context, path string, body json.RawMessage) (*Upstream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("auth API unreachable", "path", path, "error", err)
		return nil, fmt.Errorf("auth API %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return &Upstream{Status: resp.StatusCode, Body: raw}, nil
}

func messageOf(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Message) != "" {
		return body.Message
	}
	return fallback
}
