package schedule

import (
	"strings"
	"time"
)

type EventType string

const (
	EventTypeStudyPlan EventType = "study_plan"
	EventTypeNormal    EventType = "normal"
)

func (t EventType) Valid() bool {
	return t == EventTypeStudyPlan || t == EventTypeNormal
}

func ParseEventType(raw string) (EventType, bool) {
	t := EventType(strings.TrimSpace(raw))
	return t, t.Valid()
}

// EventRule is a weekly-recurring event template: one weekday slot active
// between two calendar dates. Dates are stored as YYYY-MM-DD and times as
// HH:MM:SS so that text ordering matches calendar ordering.
type EventRule struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;type:varchar(64);not null;index:idx_user_events_owner_window,priority:1" json:"owner_id"`
	EventType EventType `gorm:"column:event_type;type:varchar(20);not null;check:chk_user_events_event_type,event_type IN ('study_plan','normal')" json:"event_type"`
	Topic     *string   `gorm:"column:topic;type:varchar(200)" json:"topic"`
	DayIndex  int       `gorm:"column:day_index;not null;check:chk_user_events_day_index,day_index >= 0 AND day_index <= 6" json:"day_index"`
	Title     string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Summary   *string   `gorm:"column:summary;type:text" json:"summary"`
	Details   *string   `gorm:"column:details;type:text" json:"details"`
	Exercises *string   `gorm:"column:exercises;type:text" json:"exercises"`

	ActiveFrom string `gorm:"column:start_date;type:varchar(10);not null;index:idx_user_events_owner_window,priority:2" json:"start_date"`
	ActiveTo   string `gorm:"column:end_date;type:varchar(10);not null;index:idx_user_events_owner_window,priority:3;check:chk_user_events_window,start_date <= end_date" json:"end_date"`
	StartTime  string `gorm:"column:start_time;type:varchar(8);not null" json:"start_time"`
	EndTime    string `gorm:"column:end_time;type:varchar(8);not null;check:chk_user_events_times,start_time < end_time" json:"end_time"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (EventRule) TableName() string { return "user_events" }
