// Package interaction implements pointer-driven move and resize of rendered
// occurrences as an explicit state machine. It knows nothing about the
// rendering surface: callers feed abstract input events and receive commit
// results.
package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/grid"
)

const (
	DefaultResizeZonePx = 10.0
	DefaultMinHeightPx  = 20.0
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateCommitting:
		return "committing"
	default:
		return "idle"
	}
}

type Mode int

const (
	ModeMove Mode = iota
	ModeResize
)

func (m Mode) String() string {
	if m == ModeResize {
		return "resize"
	}
	return "move"
}

// Column is the horizontal extent of one day on the rendered grid.
type Column struct {
	DayIndex int
	Left     float64
	Right    float64
}

// Block is a placed occurrence.
type Block struct {
	Occurrence calendar.Occurrence
	Left       float64
	Width      float64
	Top        float64
	Height     float64
}

// Scheduler persists a relocation.
type Scheduler interface {
	UpdateRuleSchedule(ctx context.Context, id int64, patch schedule.SchedulePatch) error
}

type Config struct {
	Grid         grid.Grid
	Columns      []Column
	ResizeZonePx float64
	MinHeightPx  float64
	// OnActivate receives read-only details for a double-activated occurrence.
	OnActivate func(Details)
}

// Session is the in-progress drag.
type Session struct {
	RuleID         int64
	Week           calendar.Date
	OriginDayIndex int
	OriginStart    time.Time
	PointerX       float64
	PointerY       float64
	Mode           Mode
	OriginTop      float64
	OriginHeight   float64
	OriginLeft     float64
	Width          float64
	LiveTop        float64
	LiveHeight     float64
	DayIndex       int
}

// Pending is a resolved relocation waiting to be persisted.
type Pending struct {
	RuleID     int64
	Week       calendar.Date
	Request    schedule.SchedulePatch
	DayIndex   int
	Start      calendar.TimeOfDay
	End        calendar.TimeOfDay
	occurrence calendar.Occurrence
}

// Machine is not safe for concurrent use; Run drives it from one goroutine.
type Machine struct {
	cfg       Config
	scheduler Scheduler
	sink      FailureSink

	occurrences []calendar.Occurrence
	blocks      map[int64]Block
	session     *Session
	inflight    int
}

func NewMachine(cfg Config, scheduler Scheduler, sink FailureSink) *Machine {
	if cfg.ResizeZonePx <= 0 {
		cfg.ResizeZonePx = DefaultResizeZonePx
	}
	if cfg.MinHeightPx <= 0 {
		cfg.MinHeightPx = DefaultMinHeightPx
	}
	if sink == nil {
		sink = nopSink{}
	}
	return &Machine{
		cfg:       cfg,
		scheduler: scheduler,
		sink:      sink,
		blocks:    map[int64]Block{},
	}
}

// UniformColumns lays out seven equal day columns starting at left.
func UniformColumns(left, width float64) []Column {
	cols := make([]Column, 7)
	for i := range cols {
		l := left + float64(i)*width
		cols[i] = Column{DayIndex: i, Left: l, Right: l + width}
	}
	return cols
}

func (m *Machine) State() State {
	switch {
	case m.session != nil:
		return StateDragging
	case m.inflight > 0:
		return StateCommitting
	default:
		return StateIdle
	}
}

func (m *Machine) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Layout replaces the displayed occurrences and recomputes their blocks.
func (m *Machine) Layout(occs []calendar.Occurrence) {
	m.occurrences = append(m.occurrences[:0], occs...)
	m.blocks = make(map[int64]Block, len(occs))
	for _, o := range m.occurrences {
		m.blocks[o.RuleID] = m.place(o)
	}
}

func (m *Machine) Occurrences() []calendar.Occurrence {
	out := make([]calendar.Occurrence, len(m.occurrences))
	copy(out, m.occurrences)
	return out
}

func (m *Machine) Block(ruleID int64) (Block, bool) {
	b, ok := m.blocks[ruleID]
	if !ok {
		return Block{}, false
	}
	if s := m.session; s != nil && s.RuleID == ruleID {
		b.Top, b.Height = s.LiveTop, s.LiveHeight
		b.Left = s.OriginLeft
		if col, ok := m.column(s.DayIndex); ok {
			b.Left = col.Left
		}
	}
	return b, true
}

func (m *Machine) place(o calendar.Occurrence) Block {
	p := m.cfg.Grid.Place(o.StartTime().Minutes(), o.EndTime().Minutes())
	b := Block{Occurrence: o, Top: p.Top, Height: p.Height}
	if col, ok := m.column(o.DayIndex); ok {
		b.Left, b.Width = col.Left, col.Right-col.Left
	}
	return b
}

func (m *Machine) column(day int) (Column, bool) {
	for _, c := range m.cfg.Columns {
		if c.DayIndex == day {
			return c, true
		}
	}
	return Column{}, false
}

// Released is a drag ended by a later pointer-down. OK reports that Pending
// still has to be persisted; otherwise Result says why nothing will be.
type Released struct {
	Pending Pending
	Result  CommitResult
	OK      bool
}

// PointerDown starts a drag on the block for ruleID. A drag that is still
// live is released first and handed back so the caller can commit it.
func (m *Machine) PointerDown(ruleID int64, x, y float64) (Released, error) {
	b, ok := m.blocks[ruleID]
	if !ok {
		return Released{}, fmt.Errorf("no rendered occurrence for rule %d", ruleID)
	}
	var prior Released
	if m.session != nil {
		prior.Pending, prior.Result, prior.OK = m.Release()
	}
	mode := ModeMove
	if y-b.Top > b.Height-m.cfg.ResizeZonePx {
		mode = ModeResize
	}
	m.session = &Session{
		RuleID:         ruleID,
		Week:           calendar.WeekStart(calendar.DateOf(b.Occurrence.Start)),
		OriginDayIndex: b.Occurrence.DayIndex,
		OriginStart:    b.Occurrence.Start,
		PointerX:       x,
		PointerY:       y,
		Mode:           mode,
		OriginTop:      b.Top,
		OriginHeight:   b.Height,
		OriginLeft:     b.Left,
		Width:          b.Width,
		LiveTop:        b.Top,
		LiveHeight:     b.Height,
		DayIndex:       b.Occurrence.DayIndex,
	}
	return prior, nil
}

// PointerMove updates live geometry only.
func (m *Machine) PointerMove(x, y float64) {
	s := m.session
	if s == nil {
		return
	}
	dx, dy := x-s.PointerX, y-s.PointerY
	if s.Mode == ModeResize {
		h := s.OriginHeight + dy
		if h < m.cfg.MinHeightPx {
			h = m.cfg.MinHeightPx
		}
		s.LiveHeight = h
		return
	}
	s.LiveTop = s.OriginTop + dy
	centerX := s.OriginLeft + dx + s.Width/2
	for _, c := range m.cfg.Columns {
		if centerX >= c.Left && centerX <= c.Right {
			s.DayIndex = c.DayIndex
		}
	}
}

// Release ends the drag and resolves its geometry. When the result cannot
// be persisted the session is abandoned and the returned result says so.
func (m *Machine) Release() (Pending, CommitResult, bool) {
	s := m.session
	if s == nil {
		return Pending{}, CommitResult{}, false
	}
	m.session = nil

	b, ok := m.blocks[s.RuleID]
	if !ok {
		return Pending{}, abandoned(s.RuleID, "occurrence no longer displayed"), false
	}
	startMin, endMin := m.cfg.Grid.Resolve(s.LiveTop, s.LiveHeight)
	startHHMM, endHHMM := calendar.FormatMinutes(startMin), calendar.FormatMinutes(endMin)
	if !calendar.IsHHMM(startHHMM) || !calendar.IsHHMM(endHHMM) {
		return Pending{}, abandoned(s.RuleID, fmt.Sprintf("resolved times %s-%s are not HH:MM", startHHMM, endHHMM)), false
	}
	start, _ := calendar.ParseTimeOfDay(startHHMM)
	end, _ := calendar.ParseTimeOfDay(endHHMM)

	day := s.DayIndex
	startStr, endStr := start.String(), end.String()
	m.inflight++
	return Pending{
		RuleID: s.RuleID,
		Week:   s.Week,
		Request: schedule.SchedulePatch{
			DayIndex:  &day,
			StartTime: &startStr,
			EndTime:   &endStr,
		},
		DayIndex:   day,
		Start:      start,
		End:        end,
		occurrence: b.Occurrence,
	}, CommitResult{}, true
}

// Persist sends a pending relocation. It touches no machine state and may
// run on any goroutine. No timeout is applied beyond ctx.
func (m *Machine) Persist(ctx context.Context, p Pending) CommitResult {
	req := p.Request
	if m.scheduler == nil {
		return CommitResult{Outcome: Failed, RuleID: p.RuleID, Week: p.Week, Request: &req, Err: fmt.Errorf("no scheduler configured")}
	}
	if err := m.scheduler.UpdateRuleSchedule(ctx, p.RuleID, p.Request); err != nil {
		return CommitResult{Outcome: Failed, RuleID: p.RuleID, Week: p.Week, Request: &req, Err: err}
	}
	return CommitResult{
		Outcome:    Committed,
		RuleID:     p.RuleID,
		Week:       p.Week,
		Request:    &req,
		Occurrence: calendar.Relocate(p.occurrence, p.DayIndex, p.Start, p.End),
	}
}

// Complete feeds a persisted result back. Successful relocations replace the
// displayed occurrence; failures go to the sink and change nothing.
func (m *Machine) Complete(res CommitResult) {
	if m.inflight > 0 {
		m.inflight--
	}
	switch res.Outcome {
	case Committed:
		for i := range m.occurrences {
			if m.occurrences[i].RuleID == res.RuleID {
				m.occurrences[i] = res.Occurrence
				m.blocks[res.RuleID] = m.place(res.Occurrence)
				break
			}
		}
	case Failed:
		m.sink.CommitFailed(res)
	}
}

// Commit persists and completes a drag released by PointerDown.
func (m *Machine) Commit(ctx context.Context, r Released) CommitResult {
	if !r.OK {
		return r.Result
	}
	res := m.Persist(ctx, r.Pending)
	m.Complete(res)
	return res
}

// PointerUp releases, persists and completes in one call.
func (m *Machine) PointerUp(ctx context.Context) CommitResult {
	var r Released
	r.Pending, r.Result, r.OK = m.Release()
	return m.Commit(ctx, r)
}

// Blur behaves as a pointer-up so a missed release still commits.
func (m *Machine) Blur(ctx context.Context) CommitResult {
	return m.PointerUp(ctx)
}

// Activate returns the details of an occurrence without changing anything.
func (m *Machine) Activate(ruleID int64) (Details, bool) {
	for _, o := range m.occurrences {
		if o.RuleID == ruleID {
			return DetailsOf(o), true
		}
	}
	return Details{}, false
}

func abandoned(ruleID int64, reason string) CommitResult {
	return CommitResult{Outcome: Abandoned, RuleID: ruleID, Reason: reason}
}
