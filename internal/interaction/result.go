package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	Committed
	Abandoned
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Abandoned:
		return "abandoned"
	case Failed:
		return "failed"
	default:
		return "none"
	}
}

// CommitResult is the outcome of one ended drag. Week is the Monday of the
// week that was displayed when the drag started.
type CommitResult struct {
	Outcome    Outcome
	RuleID     int64
	Week       calendar.Date
	Request    *schedule.SchedulePatch
	Occurrence calendar.Occurrence
	Reason     string
	Err        error
}

// AuthFailed reports whether the commit was refused for missing or rejected
// credentials. Errors opt in by implementing AuthFailure() bool.
func (r CommitResult) AuthFailed() bool {
	var af interface{ AuthFailure() bool }
	return r.Err != nil && errors.As(r.Err, &af) && af.AuthFailure()
}

// FailureSink is told about commits the backend refused.
type FailureSink interface {
	CommitFailed(res CommitResult)
}

type SinkFunc func(CommitResult)

func (f SinkFunc) CommitFailed(res CommitResult) { f(res) }

type nopSink struct{}

func (nopSink) CommitFailed(CommitResult) {}

type logSink struct {
	log *logger.Logger
}

// NewLogSink reports failures through the structured logger.
func NewLogSink(log *logger.Logger) FailureSink {
	return &logSink{log: log.With("component", "interaction")}
}

func (s *logSink) CommitFailed(res CommitResult) {
	if res.AuthFailed() {
		s.log.Warn("relocation refused: not authenticated", "rule_id", res.RuleID, "error", res.Err)
		return
	}
	s.log.Warn("relocation not saved", "rule_id", res.RuleID, "error", res.Err)
}

// Details is the read-only view shown on double activation.
type Details struct {
	RuleID    int64
	Title     string
	EventType schedule.EventType
	Topic     *string
	Summary   *string
	Details   *string
	Exercises *string
	Start     time.Time
	End       time.Time
}

func DetailsOf(o calendar.Occurrence) Details {
	return Details{
		RuleID:    o.RuleID,
		Title:     o.Title,
		EventType: o.EventType,
		Topic:     o.Topic,
		Summary:   o.Summary,
		Details:   o.Details,
		Exercises: o.Exercises,
		Start:     o.Start,
		End:       o.End,
	}
}

// Lines renders the details as display lines.
func (d Details) Lines() []string {
	lines := []string{
		"Title: " + d.Title,
		"Type: " + string(d.EventType),
	}
	if d.Topic != nil && *d.Topic != "" {
		lines = append(lines, "Topic: "+*d.Topic)
	}
	lines = append(lines,
		fmt.Sprintf("Start: %s", d.Start.Format("2006-01-02 15:04")),
		fmt.Sprintf("End: %s", d.End.Format("2006-01-02 15:04")),
	)
	return lines
}
