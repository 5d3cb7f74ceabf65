package calendar

import (
	"testing"
	"time"

	"github.com/pak23399/TSchedule/internal/domain/schedule"
)

func wedRule() schedule.EventRule {
	return schedule.EventRule{
		ID:         1,
		OwnerID:    "owner-1",
		EventType:  schedule.EventTypeStudyPlan,
		DayIndex:   2,
		Title:      "Algebra",
		ActiveFrom: "2024-01-01",
		ActiveTo:   "2024-01-31",
		StartTime:  "10:00:00",
		EndTime:    "11:30:00",
	}
}

func TestProjectWeekInsideAndOutsideRange(t *testing.T) {
	occs, anomalies := Project([]schedule.EventRule{wedRule()}, MustDate("2024-01-08"), time.UTC)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	if len(occs) != 1 {
		t.Fatalf("unexpected occurrence count: got=%d want=1", len(occs))
	}
	want := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	if !occs[0].Start.Equal(want) {
		t.Fatalf("unexpected start: got=%s want=%s", occs[0].Start, want)
	}
	if !occs[0].End.Equal(time.Date(2024, 1, 10, 11, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %s", occs[0].End)
	}

	occs, _ = Project([]schedule.EventRule{wedRule()}, MustDate("2024-02-05"), time.UTC)
	if len(occs) != 0 {
		t.Fatalf("expected no occurrence in February, got %d", len(occs))
	}
}

func TestProjectNormalizesAnchorToMonday(t *testing.T) {
	occs, _ := Project([]schedule.EventRule{wedRule()}, MustDate("2024-01-14"), time.UTC)
	if len(occs) != 1 || DateOf(occs[0].Start) != MustDate("2024-01-10") {
		t.Fatalf("expected Sunday anchor to project the week of 2024-01-08, got %v", occs)
	}
}

func TestProjectBoundaryInclusion(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want int
	}{
		{"single day range", "2024-01-10", "2024-01-10", 1},
		{"starts the day after", "2024-01-11", "2024-01-31", 0},
		{"ends the day before", "2024-01-01", "2024-01-09", 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := wedRule()
			r.ActiveFrom, r.ActiveTo = tc.from, tc.to
			occs, _ := Project([]schedule.EventRule{r}, MustDate("2024-01-08"), time.UTC)
			if len(occs) != tc.want {
				t.Fatalf("unexpected count: got=%d want=%d", len(occs), tc.want)
			}
		})
	}
}

func TestProjectDataQualityGuards(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *schedule.EventRule)
		reason string
	}{
		{"malformed hour", func(r *schedule.EventRule) { r.StartTime = "25:00:00" }, ReasonStartTime},
		{"malformed end", func(r *schedule.EventRule) { r.EndTime = "11:60" }, ReasonEndTime},
		{"degenerate interval", func(r *schedule.EventRule) { r.StartTime, r.EndTime = "10:00:00", "10:00:00" }, ReasonEmptyInterval},
		{"inverted interval", func(r *schedule.EventRule) { r.StartTime, r.EndTime = "12:00:00", "10:00:00" }, ReasonEmptyInterval},
		{"day index", func(r *schedule.EventRule) { r.DayIndex = 7 }, ReasonDayIndex},
		{"bad date", func(r *schedule.EventRule) { r.ActiveFrom = "2024-02-30" }, ReasonActiveFrom},
		{"inverted range", func(r *schedule.EventRule) { r.ActiveFrom, r.ActiveTo = "2024-02-01", "2024-01-01" }, ReasonInvertedRange},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := wedRule()
			tc.mutate(&r)
			for _, week := range []string{"2024-01-01", "2024-01-08", "2024-01-29"} {
				occs, anomalies := Project([]schedule.EventRule{r}, MustDate(week), time.UTC)
				if len(occs) != 0 {
					t.Fatalf("week %s: expected no occurrence, got %d", week, len(occs))
				}
				if len(anomalies) != 1 || anomalies[0].Reason != tc.reason || anomalies[0].RuleID != r.ID {
					t.Fatalf("week %s: unexpected anomalies: %v", week, anomalies)
				}
			}
		})
	}
}

func TestProjectOrdersByDayStableWithinDay(t *testing.T) {
	mk := func(id int64, day int) schedule.EventRule {
		r := wedRule()
		r.ID, r.DayIndex = id, day
		return r
	}
	rules := []schedule.EventRule{mk(1, 4), mk(2, 0), mk(3, 4), mk(4, 0), mk(5, 2)}
	occs, _ := Project(rules, MustDate("2024-01-08"), time.UTC)
	var got []int64
	for _, o := range occs {
		got = append(got, o.RuleID)
	}
	want := []int64{2, 4, 5, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("unexpected ids: got=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected ids: got=%v want=%v", got, want)
		}
	}
	grouped := GroupByDay(occs)
	if len(grouped[0]) != 2 || len(grouped[2]) != 1 || len(grouped[4]) != 2 {
		t.Fatalf("unexpected grouping: %v", grouped)
	}
}

func TestProjectUsesLocalMidnight(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	occs, _ := Project([]schedule.EventRule{wedRule()}, MustDate("2024-01-08"), loc)
	if len(occs) != 1 {
		t.Fatalf("unexpected count: %d", len(occs))
	}
	if got := occs[0].Start.UTC(); !got.Equal(time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected UTC start: %s", got)
	}
}

func TestRelocateMatchesFreshProjection(t *testing.T) {
	r := wedRule()
	occs, _ := Project([]schedule.EventRule{r}, MustDate("2024-01-15"), time.UTC)
	if len(occs) != 1 {
		t.Fatalf("unexpected count: %d", len(occs))
	}
	start, _ := ParseTimeOfDay("13:00")
	end, _ := ParseTimeOfDay("14:30")
	moved := Relocate(occs[0], 4, start, end)

	r.DayIndex, r.StartTime, r.EndTime = 4, "13:00:00", "14:30:00"
	fresh, _ := Project([]schedule.EventRule{r}, MustDate("2024-01-15"), time.UTC)
	if len(fresh) != 1 {
		t.Fatalf("unexpected fresh count: %d", len(fresh))
	}
	if !moved.Start.Equal(fresh[0].Start) || !moved.End.Equal(fresh[0].End) || moved.DayIndex != fresh[0].DayIndex {
		t.Fatalf("relocation diverged from projection: moved=%v..%v fresh=%v..%v", moved.Start, moved.End, fresh[0].Start, fresh[0].End)
	}
}
