package schedule

// Wire shapes shared by the HTTP handlers and the gateway client.

type OccurrenceView struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	EventType EventType `json:"eventType"`
	Topic     *string   `json:"topic"`
	DayIndex  int       `json:"dayIndex"`
	Title     string    `json:"title"`
	Summary   *string   `json:"summary"`
	Details   *string   `json:"details"`
	Exercises *string   `json:"exercises"`
	StartIso  string    `json:"startIso"`
	EndIso    string    `json:"endIso"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	CreatedAt string    `json:"createdAt"`
}

type WeekView struct {
	WeekStart string           `json:"weekStart"`
	UserID    string           `json:"userId"`
	Events    []OccurrenceView `json:"events"`
}

type CreateRuleInput struct {
	EventType string  `json:"eventType"`
	Title     string  `json:"title"`
	Topic     *string `json:"topic,omitempty"`
	DayIndex  *int    `json:"dayIndex"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Summary   *string `json:"summary,omitempty"`
	Details   *string `json:"details,omitempty"`
	Exercises *string `json:"exercises,omitempty"`
}

type CreateRuleResponse struct {
	ID int64 `json:"id"`
}

// SchedulePatch is the relocation subset of a rule update. Nil fields keep
// the stored value.
type SchedulePatch struct {
	DayIndex  *int    `json:"dayIndex,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
}

// RulePatch is a full-field edit with the same coalesce semantics.
type RulePatch struct {
	SchedulePatch
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
	Title     *string `json:"title,omitempty"`
	Summary   *string `json:"summary,omitempty"`
	Details   *string `json:"details,omitempty"`
	Exercises *string `json:"exercises,omitempty"`
	Topic     *string `json:"topic,omitempty"`
	EventType *string `json:"eventType,omitempty"`
}

func (p RulePatch) Empty() bool {
	return p.DayIndex == nil && p.StartTime == nil && p.EndTime == nil &&
		p.StartDate == nil && p.EndDate == nil && p.Title == nil && p.Summary == nil &&
		p.Details == nil && p.Exercises == nil && p.Topic == nil && p.EventType == nil
}

// ScheduleOnly reports whether the patch only relocates the rule.
func (p RulePatch) ScheduleOnly() bool {
	return p.StartDate == nil && p.EndDate == nil && p.Title == nil && p.Summary == nil &&
		p.Details == nil && p.Exercises == nil && p.Topic == nil && p.EventType == nil
}

type OKResponse struct {
	OK bool `json:"ok"`
}
