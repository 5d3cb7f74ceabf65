package calendar

import (
	"sort"
	"time"

	"github.com/pak23399/TSchedule/internal/domain/schedule"
)

// Occurrence is one concrete instance of a rule inside a displayed week.
type Occurrence struct {
	RuleID    int64
	OwnerID   string
	EventType schedule.EventType
	Topic     *string
	DayIndex  int
	Title     string
	Summary   *string
	Details   *string
	Exercises *string

	Start time.Time
	End   time.Time

	ActiveFrom Date
	ActiveTo   Date
	CreatedAt  time.Time
}

func (o Occurrence) StartTime() TimeOfDay {
	return TimeOfDay{Hour: o.Start.Hour(), Minute: o.Start.Minute(), Second: o.Start.Second()}
}

func (o Occurrence) EndTime() TimeOfDay {
	return TimeOfDay{Hour: o.End.Hour(), Minute: o.End.Minute(), Second: o.End.Second()}
}

// Anomaly names a stored rule that cannot yield occurrences.
type Anomaly struct {
	RuleID int64
	Reason string
}

const (
	ReasonDayIndex      = "day_index_out_of_range"
	ReasonActiveFrom    = "invalid_start_date"
	ReasonActiveTo      = "invalid_end_date"
	ReasonInvertedRange = "start_date_after_end_date"
	ReasonStartTime     = "invalid_start_time"
	ReasonEndTime       = "invalid_end_time"
	ReasonEmptyInterval = "end_time_not_after_start_time"
)

// parsedRule holds the validated form of a stored rule.
type parsedRule struct {
	rule  *schedule.EventRule
	from  Date
	to    Date
	start TimeOfDay
	end   TimeOfDay
}

func parseRule(rule *schedule.EventRule) (parsedRule, string) {
	if rule.DayIndex < 0 || rule.DayIndex > 6 {
		return parsedRule{}, ReasonDayIndex
	}
	from, err := ParseDate(rule.ActiveFrom)
	if err != nil {
		return parsedRule{}, ReasonActiveFrom
	}
	to, err := ParseDate(rule.ActiveTo)
	if err != nil {
		return parsedRule{}, ReasonActiveTo
	}
	if from.After(to) {
		return parsedRule{}, ReasonInvertedRange
	}
	start, err := ParseTimeOfDay(rule.StartTime)
	if err != nil {
		return parsedRule{}, ReasonStartTime
	}
	end, err := ParseTimeOfDay(rule.EndTime)
	if err != nil {
		return parsedRule{}, ReasonEndTime
	}
	if end.Seconds() <= start.Seconds() {
		return parsedRule{}, ReasonEmptyInterval
	}
	return parsedRule{rule: rule, from: from, to: to, start: start, end: end}, ""
}

// Check reports why a rule can never produce an occurrence, or "" when it is sound.
func Check(rule schedule.EventRule) string {
	_, reason := parseRule(&rule)
	return reason
}

// Project returns the occurrences of rules in the week containing anchor.
// Rules that cannot produce an occurrence are omitted and listed as anomalies.
// The result is ordered by day index and keeps input order within a day.
func Project(rules []schedule.EventRule, anchor Date, loc *time.Location) ([]Occurrence, []Anomaly) {
	if loc == nil {
		loc = time.Local
	}
	monday := WeekStart(anchor)
	out := make([]Occurrence, 0, len(rules))
	var anomalies []Anomaly
	for i := range rules {
		pr, reason := parseRule(&rules[i])
		if reason != "" {
			anomalies = append(anomalies, Anomaly{RuleID: rules[i].ID, Reason: reason})
			continue
		}
		target := monday.AddDays(pr.rule.DayIndex)
		if target.Before(pr.from) || target.After(pr.to) {
			continue
		}
		out = append(out, pr.occurrenceOn(target, loc))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DayIndex < out[j].DayIndex })
	return out, anomalies
}

func (pr parsedRule) occurrenceOn(day Date, loc *time.Location) Occurrence {
	r := pr.rule
	return Occurrence{
		RuleID:     r.ID,
		OwnerID:    r.OwnerID,
		EventType:  r.EventType,
		Topic:      r.Topic,
		DayIndex:   r.DayIndex,
		Title:      r.Title,
		Summary:    r.Summary,
		Details:    r.Details,
		Exercises:  r.Exercises,
		Start:      day.At(pr.start, loc),
		End:        day.At(pr.end, loc),
		ActiveFrom: pr.from,
		ActiveTo:   pr.to,
		CreatedAt:  r.CreatedAt,
	}
}

// GroupByDay buckets occurrences by day index for column rendering.
func GroupByDay(occs []Occurrence) [7][]Occurrence {
	var out [7][]Occurrence
	for _, o := range occs {
		if o.DayIndex < 0 || o.DayIndex > 6 {
			continue
		}
		out[o.DayIndex] = append(out[o.DayIndex], o)
	}
	return out
}

// Relocate applies a confirmed schedule change to an occurrence: the start
// date shifts by the day delta and the new times are applied on that date.
func Relocate(o Occurrence, dayIndex int, start, end TimeOfDay) Occurrence {
	loc := o.Start.Location()
	day := DateOf(o.Start).AddDays(dayIndex - o.DayIndex)
	o.DayIndex = dayIndex
	o.Start = day.At(start, loc)
	o.End = day.At(end, loc)
	return o
}
