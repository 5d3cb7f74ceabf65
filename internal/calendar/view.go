package calendar

import (
	"fmt"
	"time"

	"github.com/pak23399/TSchedule/internal/domain/schedule"
)

// FromView rebuilds an occurrence from its wire form. Start and End come
// from startIso/endIso so seconds survive; startTime/endTime are only
// validated, and endTime stands in when endIso is absent.
func FromView(v schedule.OccurrenceView, loc *time.Location) (Occurrence, error) {
	if loc == nil {
		loc = time.Local
	}
	at, err := time.Parse(time.RFC3339, v.StartIso)
	if err != nil {
		return Occurrence{}, fmt.Errorf("startIso: %w", err)
	}
	startAt := at.In(loc)
	if _, err := ParseTimeOfDay(v.StartTime); err != nil {
		return Occurrence{}, fmt.Errorf("startTime: %w", err)
	}
	end, err := ParseTimeOfDay(v.EndTime)
	if err != nil {
		return Occurrence{}, fmt.Errorf("endTime: %w", err)
	}
	endAt := DateOf(startAt).At(end, loc)
	if v.EndIso != "" {
		t, err := time.Parse(time.RFC3339, v.EndIso)
		if err != nil {
			return Occurrence{}, fmt.Errorf("endIso: %w", err)
		}
		endAt = t.In(loc)
	}
	from, _ := ParseDate(v.StartDate)
	to, _ := ParseDate(v.EndDate)
	created, _ := time.Parse(time.RFC3339, v.CreatedAt)

	return Occurrence{
		RuleID:     v.ID,
		OwnerID:    v.UserID,
		EventType:  v.EventType,
		Topic:      v.Topic,
		DayIndex:   v.DayIndex,
		Title:      v.Title,
		Summary:    v.Summary,
		Details:    v.Details,
		Exercises:  v.Exercises,
		Start:      startAt,
		End:        endAt,
		ActiveFrom: from,
		ActiveTo:   to,
		CreatedAt:  created,
	}, nil
}

// ToView is the inverse of FromView.
func ToView(o Occurrence) schedule.OccurrenceView {
	v := schedule.OccurrenceView{
		ID:        o.RuleID,
		UserID:    o.OwnerID,
		EventType: o.EventType,
		Topic:     o.Topic,
		DayIndex:  o.DayIndex,
		Title:     o.Title,
		Summary:   o.Summary,
		Details:   o.Details,
		Exercises: o.Exercises,
		StartIso:  o.Start.Format(time.RFC3339),
		EndIso:    o.End.Format(time.RFC3339),
		StartTime: o.StartTime().HHMM(),
		EndTime:   o.EndTime().HHMM(),
	}
	if !o.ActiveFrom.IsZero() {
		v.StartDate = o.ActiveFrom.String()
	}
	if !o.ActiveTo.IsZero() {
		v.EndDate = o.ActiveTo.String()
	}
	if !o.CreatedAt.IsZero() {
		v.CreatedAt = o.CreatedAt.Format(time.RFC3339)
	}
	return v
}
