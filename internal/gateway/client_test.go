package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(logger.Nop(), Config{BaseURL: srv.URL + "/", Token: token, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestListOccurrencesInWeek(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("weekStart"); got != "2024-01-08" {
			t.Errorf("weekStart: got=%q want=2024-01-08", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization: got=%q", got)
		}
		_ = json.NewEncoder(w).Encode(schedule.WeekView{
			WeekStart: "2024-01-08",
			UserID:    "u1",
			Events:    []schedule.OccurrenceView{{ID: 3, DayIndex: 2, StartTime: "10:00", EndTime: "11:00"}},
		})
	}, "tok")

	view, err := c.ListOccurrencesInWeek(context.Background(), calendar.MustDate("2024-01-08"))
	if err != nil {
		t.Fatalf("ListOccurrencesInWeek: %v", err)
	}
	if len(view.Events) != 1 || view.Events[0].ID != 3 {
		t.Fatalf("events: got=%+v", view.Events)
	}
}

func TestUpdateRuleScheduleSendsPartialBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/events/12" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		if len(body) != 3 || body["startTime"] != "13:00:00" || body["dayIndex"] != float64(2) {
			t.Errorf("body: got=%s", raw)
		}
		w.WriteHeader(http.StatusNoContent)
	}, "tok")

	day, start, end := 2, "13:00:00", "14:00:00"
	err := c.UpdateRuleSchedule(context.Background(), 12, schedule.SchedulePatch{DayIndex: &day, StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("UpdateRuleSchedule: %v", err)
	}
}

func TestCreateRuleReturnsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":41}`))
	}, "tok")
	id, err := c.CreateRule(context.Background(), schedule.CreateRuleInput{Title: "x"})
	if err != nil || id != 41 {
		t.Fatalf("CreateRule: got=%d err=%v", id, err)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		wantAuth bool
		wantMsg  string
	}{
		{name: "server error", status: 500, wantMsg: "API 500: boom"},
		{name: "not found", status: 404, wantMsg: "API 404: boom"},
		{name: "unauthorized", status: 401, wantAuth: true, wantMsg: "API 401: boom"},
		{name: "forbidden", status: 403, wantAuth: true, wantMsg: "API 403: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("boom\n"))
			}, "tok")
			err := c.DeleteRule(context.Background(), 1)
			if err == nil {
				t.Fatalf("expected error")
			}
			if IsAuth(err) != tc.wantAuth {
				t.Fatalf("IsAuth: got=%v want=%v", IsAuth(err), tc.wantAuth)
			}
			if err.Error() != tc.wantMsg {
				t.Fatalf("message: got=%q want=%q", err.Error(), tc.wantMsg)
			}
			if StatusOf(err) != tc.status {
				t.Fatalf("status: got=%d want=%d", StatusOf(err), tc.status)
			}
		})
	}
}

func TestMissingCredentialNeverSends(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, "")
	err := c.UpdateRuleSchedule(context.Background(), 1, schedule.SchedulePatch{})
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Status != 0 {
		t.Fatalf("expected credential error, got %v", err)
	}
	if called {
		t.Fatalf("request sent without credential")
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	c, err := New(logger.Nop(), Config{BaseURL: url, Token: "tok"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.DeleteRule(context.Background(), 1)
	var te *TransportError
	if !errors.As(err, &te) || te.Status != 0 {
		t.Fatalf("expected transport error, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (failingBody) Close() error             { return nil }

func TestBodyReadFailureIsTransportError(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: failingBody{}, Header: http.Header{}, Request: r}, nil
	})}
	c, err := New(logger.Nop(), Config{BaseURL: "http://api.test", Token: "tok", HTTPClient: hc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ListOccurrencesInWeek(context.Background(), calendar.MustDate("2024-01-08"))
	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusOK || te.Err == nil {
		t.Fatalf("expected transport error with status, got %v", err)
	}
}
