package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pak23399/TSchedule/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	report, err := application.Services.Audit.RunOnce(context.Background())
	if err != nil {
		fmt.Printf("audit: %v\n", err)
		os.Exit(1)
	}
	for _, a := range report.Anomalies {
		fmt.Printf("rule %d: %s\n", a.RuleID, a.Reason)
	}
	fmt.Printf("done; scanned=%d anomalies=%d\n", report.Scanned, len(report.Anomalies))
}
