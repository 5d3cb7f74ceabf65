// Package gateway is the typed HTTP client for the schedule API.
package gateway

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Client interface {
	ListOccurrencesInWeek(ctx context.Context, anchor calendar.Date) (*schedule.WeekView, error)
	CreateRule(ctx context.Context, in schedule.CreateRuleInput) (int64, error)
	UpdateRuleSchedule(ctx context.Context, id int64, patch schedule.SchedulePatch) error
	UpdateRule(ctx context.Context, id int64, patch schedule.RulePatch) error
	DeleteRule(ctx context.Context, id int64) error
}

type Config struct {
	BaseURL string
	// Token is sent as a bearer credential on every call.
	Token string
	// HTTPClient overrides the instrumented default. Its Timeout is respected
	// as given; the default has none.
	HTTPClient *http.Client
}

type client struct {
	log     *logger.Logger
	baseURL string
	token   string
	http    *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway base URL required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("gateway base URL: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &client{
		log:     log.With("client", "ScheduleGateway"),
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		http:    hc,
	}, nil
}

func (c *client) ListOccurrencesInWeek(ctx context.Context, anchor calendar.Date) (*schedule.WeekView, error) {
	q := url.Values{}
	q.Set("weekStart", anchor.String())
	var out schedule.WeekView
	if err := c.do(ctx, http.MethodGet, "/api/events?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Events == nil {
		out.Events = []schedule.OccurrenceView{}
	}
	return &out, nil
}

func (c *client) CreateRule(ctx context.Context, in schedule.CreateRuleInput) (int64, error) {
	var out schedule.CreateRuleResponse
	if err := c.do(ctx, http.MethodPost, "/api/events", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *client) UpdateRuleSchedule(ctx context.Context, id int64, patch schedule.SchedulePatch) error {
	return c.do(ctx, http.MethodPatch, eventPath(id), patch, nil)
}

func (c *client) UpdateRule(ctx context.Context, id int64, patch schedule.RulePatch) error {
	return c.do(ctx, http.MethodPatch, eventPath(id), patch, nil)
}

// DeleteRule succeeds whether or not the rule existed.
func (c *client) DeleteRule(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, eventPath(id), nil, nil)
}

func eventPath(id int64) string {
	return "/api/events/" + strconv.FormatInt(id, 10)
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	if c.token == "" {
		return &AuthError{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read %s %s: %w", method, path, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("gateway call failed", "method", method, "path", path, "status", resp.StatusCode)
		return statusError(resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
