// Package ics renders stored rules as an iCalendar feed.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
)

type Mode string

const (
	// ModeRecurring emits one VEVENT per rule carrying a weekly RRULE.
	ModeRecurring Mode = "rrule"
	// ModeExpanded emits one VEVENT per occurrence inside [From, To].
	ModeExpanded Mode = "expanded"
)

const utcStamp = "20060102T150405Z"

var byDay = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

type Options struct {
	Name string
	Mode Mode
	From calendar.Date
	To   calendar.Date
	Loc  *time.Location
	Now  time.Time
}

func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeRecurring:
		return ModeRecurring, true
	case ModeExpanded:
		return ModeExpanded, true
	default:
		return "", false
	}
}

// Build serializes rules. Rules that cannot yield occurrences are left out
// and reported.
func Build(rules []schedule.EventRule, opts Options) (string, []calendar.Anomaly) {
	if opts.Loc == nil {
		opts.Loc = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	cal := ical.NewCalendarFor("TSchedule")
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	var skipped []calendar.Anomaly
	for _, rule := range rules {
		if reason := calendar.Check(rule); reason != "" {
			skipped = append(skipped, calendar.Anomaly{RuleID: rule.ID, Reason: reason})
			continue
		}
		var err error
		if opts.Mode == ModeExpanded {
			err = addExpanded(cal, rule, opts)
		} else {
			err = addRecurring(cal, rule, opts)
		}
		if err != nil {
			skipped = append(skipped, calendar.Anomaly{RuleID: rule.ID, Reason: err.Error()})
		}
	}
	return cal.Serialize(), skipped
}

func addRecurring(cal *ical.Calendar, rule schedule.EventRule, opts Options) error {
	r, err := calendar.WeeklyRRule(rule, opts.Loc)
	if err != nil {
		return err
	}
	first := r.After(time.Time{}, true)
	if first.IsZero() {
		return nil
	}
	to, _ := calendar.ParseDate(rule.ActiveTo)
	until := to.At(calendar.TimeOfDay{Hour: 23, Minute: 59, Second: 59}, opts.Loc)
	start, _ := calendar.ParseTimeOfDay(rule.StartTime)
	end, _ := calendar.ParseTimeOfDay(rule.EndTime)
	length := time.Duration(end.Seconds()-start.Seconds()) * time.Second

	ev := cal.AddEvent(fmt.Sprintf("rule-%d@tschedule", rule.ID))
	describe(ev, rule, opts.Now)
	ev.SetStartAt(first)
	ev.SetEndAt(first.Add(length))
	ev.AddProperty(ical.ComponentPropertyRrule,
		fmt.Sprintf("FREQ=WEEKLY;WKST=MO;BYDAY=%s;UNTIL=%s", byDay[rule.DayIndex], until.UTC().Format(utcStamp)))
	return nil
}

func addExpanded(cal *ical.Calendar, rule schedule.EventRule, opts Options) error {
	occs, err := calendar.ExpandRange(rule, opts.From, opts.To, opts.Loc)
	if err != nil {
		return err
	}
	for _, o := range occs {
		ev := cal.AddEvent(fmt.Sprintf("rule-%d-%s@tschedule", rule.ID, calendar.DateOf(o.Start).String()))
		describe(ev, rule, opts.Now)
		ev.SetStartAt(o.Start)
		ev.SetEndAt(o.End)
	}
	return nil
}

func describe(ev *ical.VEvent, rule schedule.EventRule, now time.Time) {
	ev.SetDtStampTime(now)
	if !rule.CreatedAt.IsZero() {
		ev.SetCreatedTime(rule.CreatedAt)
	}
	ev.SetSummary(rule.Title)
	categories := string(rule.EventType)
	if rule.Topic != nil && strings.TrimSpace(*rule.Topic) != "" {
		categories += "," + strings.TrimSpace(*rule.Topic)
	}
	ev.SetProperty(ical.ComponentPropertyCategories, categories)

	var parts []string
	for _, p := range []*string{rule.Summary, rule.Details, rule.Exercises} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) > 0 {
		ev.SetDescription(strings.Join(parts, "\n\n"))
	}
}
