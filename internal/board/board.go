// Package board is the client-side model of one displayed week: it loads
// occurrences through the gateway, navigates between weeks and applies
// confirmed relocations.
package board

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/gateway"
	"github.com/pak23399/TSchedule/internal/interaction"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Board struct {
	log    *logger.Logger
	client gateway.Client
	loc    *time.Location

	mu     sync.Mutex
	week   calendar.Date
	occs   []calendar.Occurrence
	userID string
}

func New(log *logger.Logger, client gateway.Client, anchor calendar.Date, loc *time.Location) *Board {
	if loc == nil {
		loc = time.Local
	}
	return &Board{
		log:    log.With("component", "board"),
		client: client,
		loc:    loc,
		week:   calendar.WeekStart(anchor),
	}
}

func (b *Board) Week() calendar.Date {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.week
}

func (b *Board) UserID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userID
}

func (b *Board) Occurrences() []calendar.Occurrence {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]calendar.Occurrence, len(b.occs))
	copy(out, b.occs)
	return out
}

func (b *Board) Grouped() [7][]calendar.Occurrence {
	return calendar.GroupByDay(b.Occurrences())
}

// Reload fetches the current week. Concurrent reloads are allowed; the one
// that completes last wins.
func (b *Board) Reload(ctx context.Context) error {
	week := b.Week()
	occs, userID, err := b.fetch(ctx, week)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.week != week {
		// navigated away while loading
		return nil
	}
	b.occs = occs
	b.userID = userID
	return nil
}

func (b *Board) fetch(ctx context.Context, week calendar.Date) ([]calendar.Occurrence, string, error) {
	view, err := b.client.ListOccurrencesInWeek(ctx, week)
	if err != nil {
		return nil, "", err
	}
	occs := make([]calendar.Occurrence, 0, len(view.Events))
	for _, v := range view.Events {
		o, err := calendar.FromView(v, b.loc)
		if err != nil {
			b.log.Warn("skipping malformed occurrence", "rule_id", v.ID, "error", err)
			continue
		}
		occs = append(occs, o)
	}
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].DayIndex < occs[j].DayIndex })
	return occs, view.UserID, nil
}

// Weeks loads n consecutive weeks starting at the displayed one, in parallel.
func (b *Board) Weeks(ctx context.Context, n int) ([][]calendar.Occurrence, error) {
	if n <= 0 {
		return nil, nil
	}
	start := b.Week()
	out := make([][]calendar.Occurrence, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			occs, _, err := b.fetch(gctx, start.AddDays(7*i))
			if err != nil {
				return fmt.Errorf("week %s: %w", start.AddDays(7*i), err)
			}
			out[i] = occs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Board) NextWeek(ctx context.Context) error { return b.shift(ctx, 7) }
func (b *Board) PrevWeek(ctx context.Context) error { return b.shift(ctx, -7) }

// Pick displays the week containing d.
func (b *Board) Pick(ctx context.Context, d calendar.Date) error {
	b.mu.Lock()
	b.week = calendar.WeekStart(d)
	b.occs = nil
	b.mu.Unlock()
	return b.Reload(ctx)
}

func (b *Board) shift(ctx context.Context, days int) error {
	b.mu.Lock()
	b.week = b.week.AddDays(days)
	b.occs = nil
	b.mu.Unlock()
	return b.Reload(ctx)
}

// Create normalizes HH:MM inputs, persists the rule and reloads.
func (b *Board) Create(ctx context.Context, in schedule.CreateRuleInput) (int64, error) {
	var err error
	if in.StartTime, err = calendar.NormalizeTime(in.StartTime); err != nil {
		return 0, fmt.Errorf("start time: %w", err)
	}
	if in.EndTime, err = calendar.NormalizeTime(in.EndTime); err != nil {
		return 0, fmt.Errorf("end time: %w", err)
	}
	id, err := b.client.CreateRule(ctx, in)
	if err != nil {
		return 0, err
	}
	return id, b.Reload(ctx)
}

func (b *Board) Delete(ctx context.Context, id int64) error {
	if err := b.client.DeleteRule(ctx, id); err != nil {
		return err
	}
	return b.Reload(ctx)
}

// Apply replaces the occurrence named by a committed result. Other outcomes,
// and results for a week no longer displayed, leave the board unchanged.
func (b *Board) Apply(res interaction.CommitResult) bool {
	if res.Outcome != interaction.Committed {
		return false
	}
	week := res.Week
	if week.IsZero() {
		week = calendar.WeekStart(calendar.DateOf(res.Occurrence.Start))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if week != b.week {
		b.log.Debug("dropping relocation for another week", "rule_id", res.RuleID, "week", week.String())
		return false
	}
	for i := range b.occs {
		if b.occs[i].RuleID == res.RuleID {
			b.occs[i] = res.Occurrence
			sort.SliceStable(b.occs, func(i, j int) bool { return b.occs[i].DayIndex < b.occs[j].DayIndex })
			return true
		}
	}
	return false
}

func (b *Board) Details(id int64) (interaction.Details, bool) {
	for _, o := range b.Occurrences() {
		if o.RuleID == id {
			return interaction.DetailsOf(o), true
		}
	}
	return interaction.Details{}, false
}
