// Package replay drives the drag state machine from a recorded YAML script
// against a live schedule API.
package replay

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pak23399/TSchedule/internal/board"
	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/gateway"
	"github.com/pak23399/TSchedule/internal/grid"
	"github.com/pak23399/TSchedule/internal/interaction"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

const (
	defaultGutterPx      = 56.0
	defaultColumnWidthPx = 140.0
)

type Step struct {
	Kind string  `yaml:"kind"`
	Rule int64   `yaml:"rule"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

type Timeline struct {
	Labels       []string `yaml:"labels"`
	End          string   `yaml:"end"`
	SlotHeightPx float64  `yaml:"slot_height_px"`
}

type Script struct {
	Week          string   `yaml:"week"`
	Timezone      string   `yaml:"timezone"`
	GutterPx      float64  `yaml:"gutter_px"`
	ColumnWidthPx float64  `yaml:"column_width_px"`
	Timeline      Timeline `yaml:"timeline"`
	Steps         []Step   `yaml:"steps"`
}

func Load(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if s.GutterPx <= 0 {
		s.GutterPx = defaultGutterPx
	}
	if s.ColumnWidthPx <= 0 {
		s.ColumnWidthPx = defaultColumnWidthPx
	}
	if len(s.Timeline.Labels) == 0 {
		s.Timeline.Labels = []string{"09:00", "09:30"}
	}
	if s.Timeline.SlotHeightPx <= 0 {
		s.Timeline.SlotHeightPx = 50
	}
	return &s, nil
}

func (s *Script) location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

func (s *Script) events() ([]interaction.InputEvent, error) {
	out := make([]interaction.InputEvent, 0, len(s.Steps))
	for i, st := range s.Steps {
		ev := interaction.InputEvent{RuleID: st.Rule, X: st.X, Y: st.Y}
		switch strings.ToLower(strings.TrimSpace(st.Kind)) {
		case "down":
			ev.Kind = interaction.PointerDown
		case "move":
			ev.Kind = interaction.PointerMove
		case "up":
			ev.Kind = interaction.PointerUp
		case "blur":
			ev.Kind = interaction.Blur
		case "activate":
			ev.Kind = interaction.Activate
		default:
			return nil, fmt.Errorf("step %d: unknown kind %q", i, st.Kind)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Report is what a replay produced: every commit result in completion order
// and the week as the board shows it afterwards.
type Report struct {
	Week        calendar.Date
	Results     []interaction.CommitResult
	Activated   []interaction.Details
	Occurrences []calendar.Occurrence
}

var metrics = observability.Current

// Run loads the script's week through client, replays its steps and applies
// each committed relocation to the board.
func Run(ctx context.Context, log *logger.Logger, client gateway.Client, s *Script) (*Report, error) {
	loc, err := s.location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	anchor := calendar.DateOf(time.Now().In(loc))
	if strings.TrimSpace(s.Week) != "" {
		if anchor, err = calendar.ParseDate(strings.TrimSpace(s.Week)); err != nil {
			return nil, fmt.Errorf("week: %w", err)
		}
	}
	g, err := grid.New(s.Timeline.Labels, s.Timeline.End, s.Timeline.SlotHeightPx)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	events, err := s.events()
	if err != nil {
		return nil, err
	}

	b := board.New(log, client, anchor, loc)
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}

	rep := &Report{Week: b.Week()}
	m := interaction.NewMachine(interaction.Config{
		Grid:    g,
		Columns: interaction.UniformColumns(s.GutterPx, s.ColumnWidthPx),
		OnActivate: func(d interaction.Details) {
			rep.Activated = append(rep.Activated, d)
		},
	}, client, interaction.NewLogSink(log))
	m.Layout(b.Occurrences())

	in := make(chan interaction.InputEvent)
	results := m.Run(ctx, in)
	go func() {
		defer close(in)
		for _, ev := range events {
			select {
			case in <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	for res := range results {
		metrics().IncCommit(res.Outcome.String())
		b.Apply(res)
		rep.Results = append(rep.Results, res)
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	rep.Occurrences = b.Occurrences()
	return rep, nil
}

// Print writes one line per result followed by the final week.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "week %s\n", r.Week)
	for _, res := range r.Results {
		switch res.Outcome {
		case interaction.Committed:
			o := res.Occurrence
			fmt.Fprintf(w, "committed rule=%d day=%d %s-%s\n", res.RuleID, o.DayIndex, o.StartTime().HHMM(), o.EndTime().HHMM())
		case interaction.Failed:
			fmt.Fprintf(w, "failed rule=%d error=%v\n", res.RuleID, res.Err)
		default:
			fmt.Fprintf(w, "%s rule=%d %s\n", res.Outcome, res.RuleID, res.Reason)
		}
	}
	for _, d := range r.Activated {
		fmt.Fprintf(w, "details rule=%d\n", d.RuleID)
		for _, line := range d.Lines() {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	for _, o := range r.Occurrences {
		fmt.Fprintf(w, "%d %s %s-%s %s\n", o.DayIndex, o.Start.Format("2006-01-02"), o.StartTime().HHMM(), o.EndTime().HHMM(), o.Title)
	}
}
