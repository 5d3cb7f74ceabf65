package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/interaction"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

// memGateway projects stored rules the same way the server does.
type memGateway struct {
	mu      sync.Mutex
	rules   []schedule.EventRule
	nextID  int64
	listErr error
	weeks   []string
}

func (g *memGateway) ListOccurrencesInWeek(ctx context.Context, anchor calendar.Date) (*schedule.WeekView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.weeks = append(g.weeks, anchor.String())
	if g.listErr != nil {
		return nil, g.listErr
	}
	occs, _ := calendar.Project(g.rules, anchor, time.UTC)
	view := &schedule.WeekView{WeekStart: calendar.WeekStart(anchor).String(), UserID: "u1"}
	for _, o := range occs {
		view.Events = append(view.Events, calendar.ToView(o))
	}
	return view, nil
}

func (g *memGateway) CreateRule(ctx context.Context, in schedule.CreateRuleInput) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.rules = append(g.rules, schedule.EventRule{
		ID:         g.nextID,
		OwnerID:    "u1",
		EventType:  schedule.EventType(in.EventType),
		DayIndex:   *in.DayIndex,
		Title:      in.Title,
		ActiveFrom: in.StartDate,
		ActiveTo:   in.EndDate,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
	})
	return g.nextID, nil
}

func (g *memGateway) UpdateRuleSchedule(ctx context.Context, id int64, p schedule.SchedulePatch) error {
	return nil
}

func (g *memGateway) UpdateRule(ctx context.Context, id int64, p schedule.RulePatch) error {
	return nil
}

func (g *memGateway) DeleteRule(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.rules {
		if g.rules[i].ID == id {
			g.rules = append(g.rules[:i], g.rules[i+1:]...)
			break
		}
	}
	return nil
}

func newBoard(t *testing.T, gw *memGateway) *Board {
	t.Helper()
	return New(logger.Nop(), gw, calendar.MustDate("2024-01-10"), time.UTC)
}

func createInput(day int, start, end string) schedule.CreateRuleInput {
	return schedule.CreateRuleInput{
		EventType: "normal",
		Title:     "Physics",
		DayIndex:  &day,
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		StartTime: start,
		EndTime:   end,
	}
}

func TestCreateNormalizesAndReloads(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	if b.Week().String() != "2024-01-08" {
		t.Fatalf("week: got=%s want=2024-01-08", b.Week())
	}
	id, err := b.Create(context.Background(), createInput(3, "09:00", "10:30"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gw.rules[0].StartTime != "09:00:00" || gw.rules[0].EndTime != "10:30:00" {
		t.Fatalf("times not normalized: %+v", gw.rules[0])
	}
	occs := b.Occurrences()
	if len(occs) != 1 || occs[0].RuleID != id || occs[0].DayIndex != 3 {
		t.Fatalf("occurrences after create: %+v", occs)
	}
	if got := b.Grouped()[3]; len(got) != 1 {
		t.Fatalf("grouped: got=%d want=1", len(got))
	}
	if b.UserID() != "u1" {
		t.Fatalf("user: got=%q", b.UserID())
	}
}

func TestCreateRejectsBadTime(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	if _, err := b.Create(context.Background(), createInput(0, "25:00", "26:00")); err == nil {
		t.Fatalf("expected error")
	}
	if len(gw.rules) != 0 {
		t.Fatalf("rule persisted despite bad time")
	}
}

func TestNavigation(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	ctx := context.Background()
	if _, err := b.Create(ctx, createInput(0, "09:00", "10:00")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := b.NextWeek(ctx); err != nil {
		t.Fatalf("NextWeek: %v", err)
	}
	if b.Week().String() != "2024-01-15" || len(b.Occurrences()) != 1 {
		t.Fatalf("next week: %s %d", b.Week(), len(b.Occurrences()))
	}
	if err := b.Pick(ctx, calendar.MustDate("2024-02-07")); err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if b.Week().String() != "2024-02-05" || len(b.Occurrences()) != 0 {
		t.Fatalf("picked week: %s %d", b.Week(), len(b.Occurrences()))
	}
	if err := b.PrevWeek(ctx); err != nil {
		t.Fatalf("PrevWeek: %v", err)
	}
	if b.Week().String() != "2024-01-29" || len(b.Occurrences()) != 1 {
		t.Fatalf("prev week: %s %d", b.Week(), len(b.Occurrences()))
	}
}

func TestDeleteAndReloadError(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	ctx := context.Background()
	id, _ := b.Create(ctx, createInput(1, "09:00", "10:00"))
	if err := b.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(b.Occurrences()) != 0 {
		t.Fatalf("occurrence still displayed after delete")
	}
	gw.listErr = errors.New("API 500: down")
	if err := b.Reload(ctx); err == nil {
		t.Fatalf("expected reload error")
	}
}

func TestApplyCommittedResult(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	ctx := context.Background()
	id, _ := b.Create(ctx, createInput(0, "10:00", "11:00"))
	o := b.Occurrences()[0]
	start, _ := calendar.ParseTimeOfDay("13:00")
	end, _ := calendar.ParseTimeOfDay("14:00")
	moved := calendar.Relocate(o, 2, start, end)

	if b.Apply(interaction.CommitResult{Outcome: interaction.Failed, RuleID: id, Occurrence: moved}) {
		t.Fatalf("failed result applied")
	}
	if !b.Apply(interaction.CommitResult{Outcome: interaction.Committed, RuleID: id, Occurrence: moved}) {
		t.Fatalf("committed result not applied")
	}
	d, ok := b.Details(id)
	if !ok || d.Start.Format("2006-01-02 15:04") != "2024-01-10 13:00" {
		t.Fatalf("details: %+v", d)
	}
}

func TestApplyIgnoresResultForAnotherWeek(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	ctx := context.Background()
	id, _ := b.Create(ctx, createInput(0, "10:00", "11:00"))
	o := b.Occurrences()[0]
	start, _ := calendar.ParseTimeOfDay("13:00")
	end, _ := calendar.ParseTimeOfDay("14:00")
	res := interaction.CommitResult{
		Outcome:    interaction.Committed,
		RuleID:     id,
		Week:       calendar.MustDate("2024-01-08"),
		Occurrence: calendar.Relocate(o, 2, start, end),
	}

	if err := b.NextWeek(ctx); err != nil {
		t.Fatalf("NextWeek: %v", err)
	}
	if b.Apply(res) {
		t.Fatalf("result from 2024-01-08 applied to week %s", b.Week())
	}
	occs := b.Occurrences()
	if len(occs) != 1 || occs[0].DayIndex != 0 || occs[0].Start.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("displayed week changed: %+v", occs)
	}
}

func TestWeeksLoadsInParallel(t *testing.T) {
	gw := &memGateway{}
	b := newBoard(t, gw)
	ctx := context.Background()
	_, _ = b.Create(ctx, createInput(4, "09:00", "10:00"))
	weeks, err := b.Weeks(ctx, 6)
	if err != nil {
		t.Fatalf("Weeks: %v", err)
	}
	got := 0
	for _, w := range weeks {
		got += len(w)
	}
	// Fridays in range: Jan 12, 19, 26 (Jan 5 precedes the first loaded week).
	if len(weeks) != 6 || got != 3 {
		t.Fatalf("weeks: len=%d occurrences=%d", len(weeks), got)
	}
}
