package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/clients/redis"
	"github.com/pak23399/TSchedule/internal/data/db"
	"github.com/pak23399/TSchedule/internal/data/repos"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/requestdata"
)

type ScheduleService interface {
	// ListWeek projects the caller's rules onto the week containing weekStart.
	ListWeek(ctx context.Context, weekStart string) (*schedule.WeekView, error)
	// WeekOccurrences is ListWeek without the wire conversion or cache.
	WeekOccurrences(ctx context.Context, anchor calendar.Date) ([]calendar.Occurrence, error)
	// RulesInRange returns the caller's rules active at any point in [from, to].
	RulesInRange(ctx context.Context, from, to calendar.Date) ([]schedule.EventRule, error)
	Create(ctx context.Context, in schedule.CreateRuleInput) (*schedule.CreateRuleResponse, error)
	Update(ctx context.Context, id int64, patch schedule.RulePatch) error
	Delete(ctx context.Context, id int64) error
	Location() *time.Location
}

type scheduleService struct {
	db      *gorm.DB
	log     *logger.Logger
	rules   repos.RuleRepo
	changes repos.RuleChangeRepo
	cache   redis.WeekCache
	loc     *time.Location
}

func NewScheduleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	rules repos.RuleRepo,
	changes repos.RuleChangeRepo,
	cache redis.WeekCache,
	loc *time.Location,
) ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	if cache == nil {
		cache = redis.NewWeekCache(baseLog, nil, 0)
	}
	return &scheduleService{
		db:      db,
		log:     baseLog.With("service", "ScheduleService"),
		rules:   rules,
		changes: changes,
		cache:   cache,
		loc:     loc,
	}
}

func (s *scheduleService) Location() *time.Location { return s.loc }

func ownerFrom(ctx context.Context) (string, error) {
	owner := requestdata.OwnerID(ctx)
	if owner == "" {
		return "", apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}
	return owner, nil
}

func (s *scheduleService) ListWeek(ctx context.Context, weekStart string) (*schedule.WeekView, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if weekStart == "" {
		return nil, apierr.Invalid("weekStart is required in format YYYY-MM-DD")
	}
	anchor, err := calendar.ParseDate(weekStart)
	if err != nil {
		return nil, apierr.Invalid("weekStart must be a valid YYYY-MM-DD date")
	}
	monday := calendar.WeekStart(anchor)

	cached, ver, ok := s.cache.Get(ctx, owner, monday.String())
	if ok {
		return cached, nil
	}

	occs, err := s.project(ctx, owner, monday)
	if err != nil {
		return nil, err
	}
	view := &schedule.WeekView{
		WeekStart: monday.String(),
		UserID:    owner,
		Events:    make([]schedule.OccurrenceView, 0, len(occs)),
	}
	for _, o := range occs {
		view.Events = append(view.Events, calendar.ToView(o))
	}
	s.cache.Put(ctx, owner, monday.String(), ver, view)
	return view, nil
}

func (s *scheduleService) WeekOccurrences(ctx context.Context, anchor calendar.Date) ([]calendar.Occurrence, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, owner, calendar.WeekStart(anchor))
}

func (s *scheduleService) project(ctx context.Context, owner string, monday calendar.Date) ([]calendar.Occurrence, error) {
	rules, err := s.rules.ListActiveInWindow(ctx, nil, owner, monday.String(), monday.AddDays(6).String())
	if err != nil {
		return nil, db.MapError("list rules", err)
	}
	occs, anomalies := calendar.Project(rules, monday, s.loc)
	if len(anomalies) > 0 {
		issues := make([]observability.Issue, len(anomalies))
		for i, a := range anomalies {
			issues[i] = observability.Issue{RuleID: a.RuleID, Reason: a.Reason}
		}
		observability.ReportDataQuality(ctx, s.log, "projection", issues, map[string]any{
			"owner_id":   owner,
			"week_start": monday.String(),
		})
	}
	return occs, nil
}

func (s *scheduleService) RulesInRange(ctx context.Context, from, to calendar.Date) ([]schedule.EventRule, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, apierr.Invalid("range start must not be after range end")
	}
	rules, err := s.rules.ListActiveInWindow(ctx, nil, owner, from.String(), to.String())
	if err != nil {
		return nil, db.MapError("list rules", err)
	}
	return rules, nil
}

func (s *scheduleService) Create(ctx context.Context, in schedule.CreateRuleInput) (*schedule.CreateRuleResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := ruleFromInput(owner, in)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.rules.Create(ctx, tx, rule); err != nil {
			return err
		}
		return s.changes.Append(ctx, tx, owner, rule.ID, schedule.ChangeCreate, in)
	})
	if err != nil {
		return nil, db.MapError("create rule", err)
	}
	s.cache.Invalidate(ctx, owner)
	s.log.Debug("rule created", "owner_id", owner, "rule_id", rule.ID)
	return &schedule.CreateRuleResponse{ID: rule.ID}, nil
}

// Update coalesces patch onto the stored rule. The merged rule must still
// satisfy every create-time invariant. Concurrent updates are last write wins.
func (s *scheduleService) Update(ctx context.Context, id int64, patch schedule.RulePatch) error {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return err
	}
	if id <= 0 {
		return apierr.Invalid("Invalid id")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.rules.GetByID(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if current == nil {
			return apierr.NotFound("event")
		}
		if patch.Empty() {
			return nil
		}
		_, updates, err := mergePatch(*current, patch)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if _, err := s.rules.Update(ctx, tx, owner, id, updates); err != nil {
			return err
		}
		kind := schedule.ChangeEdit
		if patch.ScheduleOnly() {
			kind = schedule.ChangeRelocate
		}
		return s.changes.Append(ctx, tx, owner, id, kind, updates)
	})
	if err != nil {
		return db.MapError("update rule", err)
	}
	s.cache.Invalidate(ctx, owner)
	return nil
}

// Delete succeeds whether or not the rule existed.
func (s *scheduleService) Delete(ctx context.Context, id int64) error {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return err
	}
	if id <= 0 {
		return apierr.Invalid("Invalid id")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.rules.Delete(ctx, tx, owner, id)
		if err != nil || n == 0 {
			return err
		}
		return s.changes.Append(ctx, tx, owner, id, schedule.ChangeDelete, nil)
	})
	if err != nil {
		return db.MapError("delete rule", err)
	}
	s.cache.Invalidate(ctx, owner)
	return nil
}
