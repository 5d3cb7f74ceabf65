package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/pak23399/TSchedule/internal/domain/schedule"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// WeeklyRRule expresses a rule as an RFC 5545 weekly recurrence starting on
// the first matching weekday on or after the active-from date.
func WeeklyRRule(rule schedule.EventRule, loc *time.Location) (*rrule.RRule, error) {
	pr, reason := parseRule(&rule)
	if reason != "" {
		return nil, fmt.Errorf("rule %d: %s", rule.ID, reason)
	}
	return pr.rrule(loc)
}

func (pr parsedRule) firstDay() Date {
	offset := (pr.rule.DayIndex - pr.from.DayIndex() + 7) % 7
	return pr.from.AddDays(offset)
}

func (pr parsedRule) rrule(loc *time.Location) (*rrule.RRule, error) {
	if loc == nil {
		loc = time.Local
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   pr.firstDay().At(pr.start, loc),
		Until:     pr.to.At(TimeOfDay{Hour: 23, Minute: 59, Second: 59}, loc),
		Wkst:      rrule.MO,
		Byweekday: []rrule.Weekday{rruleWeekdays[pr.rule.DayIndex]},
	})
}

// ExpandRange lists every occurrence of rule whose date lies in [from, to].
// It agrees with calling Project for each week of the range.
func ExpandRange(rule schedule.EventRule, from, to Date, loc *time.Location) ([]Occurrence, error) {
	if loc == nil {
		loc = time.Local
	}
	pr, reason := parseRule(&rule)
	if reason != "" {
		return nil, fmt.Errorf("rule %d: %s", rule.ID, reason)
	}
	if pr.firstDay().After(pr.to) {
		return nil, nil
	}
	r, err := pr.rrule(loc)
	if err != nil {
		return nil, err
	}
	after := from.Midnight(loc)
	before := to.At(TimeOfDay{Hour: 23, Minute: 59, Second: 59}, loc)
	starts := r.Between(after, before, true)
	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, pr.occurrenceOn(DateOf(s), loc))
	}
	return out, nil
}
