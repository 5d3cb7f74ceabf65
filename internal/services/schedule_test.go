package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/clients/redis"
	"github.com/pak23399/TSchedule/internal/data/repos"
	"github.com/pak23399/TSchedule/internal/data/repos/testutil"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/pkg/pointers"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/requestdata"
)

type memCache struct {
	mu          sync.Mutex
	views       map[string]*schedule.WeekView
	invalidated int
}

func (c *memCache) Get(_ context.Context, owner, week string) (*schedule.WeekView, redis.Version, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[owner+"/"+week]
	return v, redis.Version(c.invalidated), ok
}

// Put drops writes made against a version that has since been invalidated.
func (c *memCache) Put(_ context.Context, owner, week string, ver redis.Version, v *schedule.WeekView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ver != redis.Version(c.invalidated) {
		return
	}
	c.views[owner+"/"+week] = v
}

func (c *memCache) Invalidate(_ context.Context, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.views = map[string]*schedule.WeekView{}
}

func (c *memCache) Close() error { return nil }

type scheduleFixture struct {
	svc     ScheduleService
	changes repos.RuleChangeRepo
	cache   *memCache
}

func newScheduleFixture(t *testing.T) scheduleFixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	cache := &memCache{views: map[string]*schedule.WeekView{}}
	changes := repos.NewRuleChangeRepo(gdb, log)
	svc := NewScheduleService(gdb, log, repos.NewRuleRepo(gdb, log), changes, cache, time.UTC)
	return scheduleFixture{svc: svc, changes: changes, cache: cache}
}

func ownerCtx(owner string) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{OwnerID: owner})
}

func algebraInput() schedule.CreateRuleInput {
	return schedule.CreateRuleInput{
		EventType: "study_plan",
		Title:     "Algebra",
		DayIndex:  pointers.Ptr(2),
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		StartTime: "10:00",
		EndTime:   "11:30",
	}
}

func TestScheduleServiceCreateAndList(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")

	res, err := f.svc.Create(ctx, algebraInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ID <= 0 {
		t.Fatalf("Create: got id=%d", res.ID)
	}

	view, err := f.svc.ListWeek(ctx, "2024-01-10")
	if err != nil {
		t.Fatalf("ListWeek: %v", err)
	}
	if view.WeekStart != "2024-01-08" {
		t.Fatalf("weekStart: got=%s want=2024-01-08", view.WeekStart)
	}
	if len(view.Events) != 1 {
		t.Fatalf("events: got=%d want=1", len(view.Events))
	}
	ev := view.Events[0]
	if ev.ID != res.ID || ev.DayIndex != 2 || ev.StartTime != "10:00" || ev.EndTime != "11:30" {
		t.Fatalf("event: got=%+v", ev)
	}
	if ev.StartIso != "2024-01-10T10:00:00Z" {
		t.Fatalf("startIso: got=%s want=2024-01-10T10:00:00Z", ev.StartIso)
	}

	other, err := f.svc.ListWeek(ownerCtx("svc-owner-2"), "2024-01-08")
	if err != nil || len(other.Events) != 0 {
		t.Fatalf("other owner: got=%+v err=%v", other, err)
	}

	outside, err := f.svc.ListWeek(ctx, "2024-02-05")
	if err != nil || len(outside.Events) != 0 {
		t.Fatalf("outside window: got=%+v err=%v", outside, err)
	}

	history, err := f.changes.ListByRule(context.Background(), nil, "svc-owner-1", res.ID)
	if err != nil || len(history) != 1 || history[0].Kind != schedule.ChangeCreate {
		t.Fatalf("history: got=%+v err=%v", history, err)
	}
}

func TestScheduleServiceCreateValidation(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")

	cases := []struct {
		name   string
		mutate func(*schedule.CreateRuleInput)
	}{
		{"bad type", func(in *schedule.CreateRuleInput) { in.EventType = "meeting" }},
		{"blank title", func(in *schedule.CreateRuleInput) { in.Title = "  " }},
		{"missing day", func(in *schedule.CreateRuleInput) { in.DayIndex = nil }},
		{"day out of range", func(in *schedule.CreateRuleInput) { in.DayIndex = pointers.Ptr(7) }},
		{"bad date", func(in *schedule.CreateRuleInput) { in.StartDate = "2024-02-30" }},
		{"bad time", func(in *schedule.CreateRuleInput) { in.EndTime = "25:00" }},
		{"inverted range", func(in *schedule.CreateRuleInput) { in.StartDate, in.EndDate = "2024-02-01", "2024-01-01" }},
		{"empty interval", func(in *schedule.CreateRuleInput) { in.EndTime = in.StartTime }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := algebraInput()
			tc.mutate(&in)
			_, err := f.svc.Create(ctx, in)
			if !apierr.IsStatus(err, http.StatusBadRequest) {
				t.Fatalf("Create: got=%v want=400", err)
			}
		})
	}
}

func TestScheduleServiceRequiresOwner(t *testing.T) {
	f := newScheduleFixture(t)
	_, err := f.svc.ListWeek(context.Background(), "2024-01-08")
	if !apierr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("ListWeek: got=%v want=401", err)
	}
	if err := f.svc.Delete(context.Background(), 1); !apierr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Delete: got=%v want=401", err)
	}
}

func TestScheduleServiceListWeekRequiresDate(t *testing.T) {
	f := newScheduleFixture(t)
	for _, raw := range []string{"", "2024-13-01", "next week"} {
		if _, err := f.svc.ListWeek(ownerCtx("svc-owner-1"), raw); !apierr.IsStatus(err, http.StatusBadRequest) {
			t.Fatalf("ListWeek(%q): got=%v want=400", raw, err)
		}
	}
}

func TestScheduleServiceUpdate(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")
	res, err := f.svc.Create(ctx, algebraInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.ListWeek(ctx, "2024-01-08"); err != nil {
		t.Fatalf("ListWeek: %v", err)
	}
	before := f.cache.invalidated

	relocate := schedule.RulePatch{SchedulePatch: schedule.SchedulePatch{
		DayIndex:  pointers.Ptr(4),
		StartTime: pointers.Ptr("13:00:00"),
		EndTime:   pointers.Ptr("14:00:00"),
	}}
	if err := f.svc.Update(ctx, res.ID, relocate); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.cache.invalidated == before {
		t.Fatalf("Update did not invalidate the week cache")
	}

	view, err := f.svc.ListWeek(ctx, "2024-01-08")
	if err != nil || len(view.Events) != 1 {
		t.Fatalf("ListWeek: got=%+v err=%v", view, err)
	}
	if ev := view.Events[0]; ev.DayIndex != 4 || ev.StartTime != "13:00" || ev.EndTime != "14:00" || ev.Title != "Algebra" {
		t.Fatalf("relocated event: got=%+v", ev)
	}

	if err := f.svc.Update(ctx, res.ID, schedule.RulePatch{Title: pointers.Ptr("Geometry")}); err != nil {
		t.Fatalf("Update title: %v", err)
	}
	history, err := f.changes.ListByRule(context.Background(), nil, "svc-owner-1", res.ID)
	if err != nil || len(history) != 3 {
		t.Fatalf("history: got=%+v err=%v", history, err)
	}
	if history[1].Kind != schedule.ChangeRelocate || history[2].Kind != schedule.ChangeEdit {
		t.Fatalf("history kinds: got=%s,%s want=relocate,edit", history[1].Kind, history[2].Kind)
	}

	if err := f.svc.Update(ctx, res.ID, schedule.RulePatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
}

func TestScheduleServiceUpdateRejects(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")
	res, err := f.svc.Create(ctx, algebraInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		name   string
		ctx    context.Context
		id     int64
		patch  schedule.RulePatch
		status int
	}{
		{
			name:   "merged interval empty",
			ctx:    ctx,
			id:     res.ID,
			patch:  schedule.RulePatch{SchedulePatch: schedule.SchedulePatch{StartTime: pointers.Ptr("12:00")}},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad time",
			ctx:    ctx,
			id:     res.ID,
			patch:  schedule.RulePatch{SchedulePatch: schedule.SchedulePatch{EndTime: pointers.Ptr("noon")}},
			status: http.StatusBadRequest,
		},
		{
			name:   "day out of range",
			ctx:    ctx,
			id:     res.ID,
			patch:  schedule.RulePatch{SchedulePatch: schedule.SchedulePatch{DayIndex: pointers.Ptr(-1)}},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown id",
			ctx:    ctx,
			id:     res.ID + 100,
			patch:  schedule.RulePatch{Title: pointers.Ptr("x")},
			status: http.StatusNotFound,
		},
		{
			name:   "other owner",
			ctx:    ownerCtx("svc-owner-2"),
			id:     res.ID,
			patch:  schedule.RulePatch{Title: pointers.Ptr("x")},
			status: http.StatusNotFound,
		},
		{
			name:   "invalid id",
			ctx:    ctx,
			id:     0,
			patch:  schedule.RulePatch{Title: pointers.Ptr("x")},
			status: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.Update(tc.ctx, tc.id, tc.patch)
			if !apierr.IsStatus(err, tc.status) {
				t.Fatalf("Update: got=%v want=%d", err, tc.status)
			}
		})
	}
}

func TestScheduleServiceDeleteIsIdempotent(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")
	res, err := f.svc.Create(ctx, algebraInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.svc.Delete(ctx, res.ID); err != nil {
			t.Fatalf("Delete #%d: %v", i+1, err)
		}
	}
	view, err := f.svc.ListWeek(ctx, "2024-01-08")
	if err != nil || len(view.Events) != 0 {
		t.Fatalf("ListWeek after delete: got=%+v err=%v", view, err)
	}
	history, err := f.changes.ListByRule(context.Background(), nil, "svc-owner-1", res.ID)
	if err != nil || len(history) != 2 || history[1].Kind != schedule.ChangeDelete {
		t.Fatalf("history: got=%+v err=%v", history, err)
	}
}

func TestScheduleServiceServesCachedWeek(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")
	f.cache.views["svc-owner-1/2024-01-08"] = &schedule.WeekView{WeekStart: "2024-01-08", UserID: "svc-owner-1"}

	view, err := f.svc.ListWeek(ctx, "2024-01-12")
	if err != nil {
		t.Fatalf("ListWeek: %v", err)
	}
	if view != f.cache.views["svc-owner-1/2024-01-08"] {
		t.Fatalf("ListWeek did not return the cached view")
	}
}

func TestScheduleServiceRulesInRange(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := ownerCtx("svc-owner-1")
	if _, err := f.svc.Create(ctx, algebraInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rules, err := f.svc.RulesInRange(ctx, calendarDate(t, "2024-01-20"), calendarDate(t, "2024-03-01"))
	if err != nil || len(rules) != 1 {
		t.Fatalf("RulesInRange: got=%d err=%v", len(rules), err)
	}
	if _, err := f.svc.RulesInRange(ctx, calendarDate(t, "2024-03-01"), calendarDate(t, "2024-01-01")); !apierr.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("inverted range: got=%v want=400", err)
	}
}

func calendarDate(t *testing.T, s string) calendar.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
