package services

import (
	"strings"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
)

func validDayIndex(d *int) bool {
	return d != nil && *d >= 0 && *d <= 6
}

func normalizeDate(field, raw string) (string, error) {
	d, err := calendar.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return "", apierr.Invalid("%s must be a valid YYYY-MM-DD date", field)
	}
	return d.String(), nil
}

func normalizeTime(field, raw string) (string, error) {
	t, err := calendar.NormalizeTime(strings.TrimSpace(raw))
	if err != nil {
		return "", apierr.Invalid("%s must be HH:MM or HH:MM:SS", field)
	}
	return t, nil
}

// ruleFromInput validates a create request and returns the rule to insert.
func ruleFromInput(ownerID string, in schedule.CreateRuleInput) (*schedule.EventRule, error) {
	et, ok := schedule.ParseEventType(in.EventType)
	if !ok {
		return nil, apierr.Invalid("eventType must be 'study_plan' or 'normal'")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.Invalid("title is required")
	}
	if !validDayIndex(in.DayIndex) {
		return nil, apierr.Invalid("dayIndex is required (0..6)")
	}
	from, err := normalizeDate("startDate", in.StartDate)
	if err != nil {
		return nil, err
	}
	to, err := normalizeDate("endDate", in.EndDate)
	if err != nil {
		return nil, err
	}
	start, err := normalizeTime("startTime", in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := normalizeTime("endTime", in.EndTime)
	if err != nil {
		return nil, err
	}
	rule := &schedule.EventRule{
		OwnerID:    ownerID,
		EventType:  et,
		Topic:      in.Topic,
		DayIndex:   *in.DayIndex,
		Title:      title,
		Summary:    in.Summary,
		Details:    in.Details,
		Exercises:  in.Exercises,
		ActiveFrom: from,
		ActiveTo:   to,
		StartTime:  start,
		EndTime:    end,
	}
	if err := checkInvariants(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// checkInvariants enforces the cross-field rules on a complete rule.
func checkInvariants(rule *schedule.EventRule) error {
	switch calendar.Check(*rule) {
	case "":
		return nil
	case calendar.ReasonEmptyInterval:
		return apierr.Invalid("endTime must be after startTime")
	case calendar.ReasonInvertedRange:
		return apierr.Invalid("startDate must not be after endDate")
	case calendar.ReasonDayIndex:
		return apierr.Invalid("dayIndex must be 0..6")
	default:
		return apierr.Invalid("rule has invalid dates or times")
	}
}

// mergePatch applies patch onto a copy of rule and returns the merged rule
// with the column updates it implies.
func mergePatch(rule schedule.EventRule, patch schedule.RulePatch) (*schedule.EventRule, map[string]any, error) {
	updates := map[string]any{}
	if patch.DayIndex != nil {
		if !validDayIndex(patch.DayIndex) {
			return nil, nil, apierr.Invalid("dayIndex must be 0..6")
		}
		rule.DayIndex = *patch.DayIndex
		updates["day_index"] = rule.DayIndex
	}
	if patch.StartTime != nil {
		t, err := normalizeTime("startTime", *patch.StartTime)
		if err != nil {
			return nil, nil, err
		}
		rule.StartTime = t
		updates["start_time"] = t
	}
	if patch.EndTime != nil {
		t, err := normalizeTime("endTime", *patch.EndTime)
		if err != nil {
			return nil, nil, err
		}
		rule.EndTime = t
		updates["end_time"] = t
	}
	if patch.StartDate != nil {
		d, err := normalizeDate("startDate", *patch.StartDate)
		if err != nil {
			return nil, nil, err
		}
		rule.ActiveFrom = d
		updates["start_date"] = d
	}
	if patch.EndDate != nil {
		d, err := normalizeDate("endDate", *patch.EndDate)
		if err != nil {
			return nil, nil, err
		}
		rule.ActiveTo = d
		updates["end_date"] = d
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, nil, apierr.Invalid("title must not be empty")
		}
		rule.Title = title
		updates["title"] = title
	}
	if patch.EventType != nil {
		et, ok := schedule.ParseEventType(*patch.EventType)
		if !ok {
			return nil, nil, apierr.Invalid("eventType must be 'study_plan' or 'normal'")
		}
		rule.EventType = et
		updates["event_type"] = string(et)
	}
	if patch.Topic != nil {
		rule.Topic = patch.Topic
		updates["topic"] = *patch.Topic
	}
	if patch.Summary != nil {
		rule.Summary = patch.Summary
		updates["summary"] = *patch.Summary
	}
	if patch.Details != nil {
		rule.Details = patch.Details
		updates["details"] = *patch.Details
	}
	if patch.Exercises != nil {
		rule.Exercises = patch.Exercises
		updates["exercises"] = *patch.Exercises
	}
	if err := checkInvariants(&rule); err != nil {
		return nil, nil, err
	}
	return &rule, updates, nil
}
