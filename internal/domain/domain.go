package domain

import "github.com/pak23399/TSchedule/internal/domain/schedule"

type (
	EventRule  = schedule.EventRule
	RuleChange = schedule.RuleChange
	EventType  = schedule.EventType
)

const (
	EventTypeStudyPlan = schedule.EventTypeStudyPlan
	EventTypeNormal    = schedule.EventTypeNormal
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&schedule.EventRule{},
		&schedule.RuleChange{},
	}
}
