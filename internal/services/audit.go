package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/data/repos"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

const auditPageSize = 500

// AuditReport summarises one sweep over every stored rule.
type AuditReport struct {
	Scanned   int
	Anomalies []observability.Issue
}

// RuleAuditService sweeps stored rules for data that the projector would
// silently skip.
type RuleAuditService interface {
	RunOnce(ctx context.Context) (*AuditReport, error)
	// Start schedules RunOnce on a cron expression. The returned func stops
	// the scheduler and waits for a running sweep.
	Start(ctx context.Context, spec string) (func(), error)
}

type ruleAuditService struct {
	db    *gorm.DB
	log   *logger.Logger
	rules repos.RuleRepo
}

func NewRuleAuditService(db *gorm.DB, baseLog *logger.Logger, rules repos.RuleRepo) RuleAuditService {
	return &ruleAuditService{
		db:    db,
		log:   baseLog.With("service", "RuleAuditService"),
		rules: rules,
	}
}

func (s *ruleAuditService) RunOnce(ctx context.Context) (*AuditReport, error) {
	started := time.Now()
	report := &AuditReport{}
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			observability.Current().ObserveAudit("canceled", time.Since(started))
			return report, err
		}
		page, err := s.rules.ListPage(ctx, nil, afterID, auditPageSize)
		if err != nil {
			observability.Current().ObserveAudit("error", time.Since(started))
			return report, fmt.Errorf("list rules after %d: %w", afterID, err)
		}
		for _, rule := range page {
			report.Scanned++
			if reason := calendar.Check(rule); reason != "" {
				report.Anomalies = append(report.Anomalies, observability.Issue{RuleID: rule.ID, Reason: reason})
			}
		}
		if len(page) < auditPageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	observability.ReportDataQuality(ctx, s.log, "audit", report.Anomalies, map[string]any{
		"scanned": report.Scanned,
	})
	observability.Current().ObserveAudit("ok", time.Since(started))
	s.log.Info("rule audit finished", "scanned", report.Scanned, "anomalies", len(report.Anomalies), "duration", time.Since(started))
	return report, nil
}

func (s *ruleAuditService) Start(ctx context.Context, spec string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("rule audit failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", spec, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
