package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pak23399/TSchedule/internal/app"
	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/ics"
	"github.com/pak23399/TSchedule/internal/requestdata"
)

func main() {
	var owner, week, mode string
	var weeks int
	flag.StringVar(&owner, "owner", "", "owner id whose rules are exported")
	flag.StringVar(&week, "week", "", "any date in the first week, YYYY-MM-DD (default today)")
	flag.IntVar(&weeks, "weeks", 1, "number of weeks to cover")
	flag.StringVar(&mode, "mode", string(ics.ModeRecurring), "rrule or expanded")
	flag.Parse()

	if owner == "" {
		fmt.Println("-owner is required")
		os.Exit(2)
	}
	m, ok := ics.ParseMode(mode)
	if !ok {
		fmt.Printf("unknown mode %q\n", mode)
		os.Exit(2)
	}
	if weeks < 1 {
		weeks = 1
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	loc := application.Services.Schedule.Location()
	anchor, err := app.Anchor(week, loc)
	if err != nil {
		fmt.Printf("-week: %v\n", err)
		os.Exit(2)
	}
	from := calendar.WeekStart(anchor)
	to := from.AddDays(7*weeks - 1)

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{OwnerID: owner})
	rules, err := application.Services.Schedule.RulesInRange(ctx, from, to)
	if err != nil {
		fmt.Printf("load rules: %v\n", err)
		os.Exit(1)
	}
	body, skipped := ics.Build(rules, ics.Options{
		Name: "TSchedule",
		Mode: m,
		From: from,
		To:   to,
		Loc:  loc,
		Now:  time.Now(),
	})
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "skipped rule %d: %s\n", s.RuleID, s.Reason)
	}
	fmt.Print(body)
}
