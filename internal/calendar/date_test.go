package calendar

import "testing"

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2024-01-08": "2024-01-08",
		"2024-01-10": "2024-01-08",
		"2024-01-14": "2024-01-08",
		"2024-01-01": "2024-01-01",
		"2024-03-03": "2024-02-26",
		"2025-01-01": "2024-12-30",
	}
	for in, want := range cases {
		if got := WeekStart(MustDate(in)).String(); got != want {
			t.Fatalf("WeekStart(%s): got=%s want=%s", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	for _, bad := range []string{"", "2024-1-08", "2024/01/08", "2024-02-30", "2024-13-01", "2024-01-08T00:00:00"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("ParseDate(%q): expected error", bad)
		}
	}
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate leap day: %v", err)
	}
	if d.AddDays(1).String() != "2024-03-01" {
		t.Fatalf("AddDays across month: got=%s", d.AddDays(1))
	}
	if d.AddDays(-60).String() != "2023-12-31" {
		t.Fatalf("AddDays backwards: got=%s", d.AddDays(-60))
	}
}

func TestDateOrdering(t *testing.T) {
	a, b := MustDate("2024-01-31"), MustDate("2024-02-01")
	if !a.Before(b) || b.Before(a) || !b.After(a) || a.Compare(a) != 0 {
		t.Fatalf("unexpected ordering between %s and %s", a, b)
	}
	if a.DaysUntil(b) != 1 || b.DaysUntil(a) != -1 {
		t.Fatalf("unexpected DaysUntil")
	}
	if MustDate("2024-01-14").DayIndex() != 6 || MustDate("2024-01-08").DayIndex() != 0 {
		t.Fatalf("unexpected Monday-based day index")
	}
}
