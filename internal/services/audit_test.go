package services

import (
	"context"
	"testing"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/data/repos"
	"github.com/pak23399/TSchedule/internal/data/repos/testutil"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
)

func TestRuleAuditFindsUnprojectableRules(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	good := testutil.SeedRule(t, ctx, gdb, schedule.EventRule{OwnerID: "audit-owner", Title: "ok"})
	bad := testutil.SeedRule(t, ctx, gdb, schedule.EventRule{
		OwnerID:   "audit-owner",
		Title:     "broken",
		StartTime: "25:00:00",
		EndTime:   "26:00:00",
	})

	svc := NewRuleAuditService(gdb, log, repos.NewRuleRepo(gdb, log))
	report, err := svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Scanned < 2 {
		t.Fatalf("scanned: got=%d want>=2", report.Scanned)
	}
	var flaggedBad, flaggedGood bool
	for _, is := range report.Anomalies {
		switch is.RuleID {
		case bad.ID:
			flaggedBad = is.Reason == calendar.ReasonStartTime
		case good.ID:
			flaggedGood = true
		}
	}
	if !flaggedBad || flaggedGood {
		t.Fatalf("anomalies: got=%+v want only rule %d", report.Anomalies, bad.ID)
	}
}

func TestRuleAuditRejectsBadSchedule(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewRuleAuditService(gdb, log, repos.NewRuleRepo(gdb, log))
	if _, err := svc.Start(context.Background(), "every tuesday"); err == nil {
		t.Fatalf("Start: expected error for invalid cron spec")
	}
	stop, err := svc.Start(context.Background(), "@every 1h")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stop()
}
