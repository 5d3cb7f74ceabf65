package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pak23399/TSchedule/internal/platform/ctxutil"
	"github.com/pak23399/TSchedule/internal/platform/envutil"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

// Issue is one stored record that failed a data quality check.
type Issue struct {
	RuleID int64
	Reason string
}

type dqAlertState struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var dqAlerts dqAlertState

// ReportDataQuality counts and logs issues found at stage. Issues never
// surface to callers.
func ReportDataQuality(ctx context.Context, log *logger.Logger, stage string, issues []Issue, meta map[string]any) {
	if len(issues) == 0 {
		return
	}
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	if meta == nil {
		meta = map[string]any{}
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			meta["trace_id"] = td.TraceID
		}
		if td.RequestID != "" {
			meta["request_id"] = td.RequestID
		}
	}

	counts := map[string]int{}
	sample := make([]int64, 0, 5)
	for _, is := range issues {
		Current().IncDataQuality(stage, is.Reason)
		counts[is.Reason]++
		if len(sample) < cap(sample) {
			sample = append(sample, is.RuleID)
		}
	}

	if log != nil {
		log.Warn("data quality issue detected",
			"stage", stage,
			"issues", counts,
			"sample_rule_ids", sample,
			"meta", meta,
		)
	}
	sendDataQualityAlert(stage, counts, sample, meta, log)
}

func sendDataQualityAlert(stage string, counts map[string]int, sample []int64, meta map[string]any, log *logger.Logger) {
	if !envutil.Bool("DATA_QUALITY_ALERTS_ENABLED", false) {
		return
	}
	webhook := envutil.String("DATA_QUALITY_ALERT_WEBHOOK_URL", "")
	if webhook == "" || len(counts) == 0 {
		return
	}
	minInterval := envutil.Seconds("DATA_QUALITY_ALERT_MIN_INTERVAL_SECONDS", 5*time.Minute)

	dqAlerts.mu.Lock()
	if dqAlerts.last == nil {
		dqAlerts.last = map[string]time.Time{}
	}
	if last := dqAlerts.last[stage]; !last.IsZero() && time.Since(last) < minInterval {
		dqAlerts.mu.Unlock()
		return
	}
	dqAlerts.last[stage] = time.Now()
	dqAlerts.mu.Unlock()

	body, _ := json.Marshal(map[string]any{
		"title":           "Data quality issue",
		"stage":           stage,
		"issues":          counts,
		"sample_rule_ids": sample,
		"meta":            meta,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
	req, err := http.NewRequest(http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		if log != nil {
			log.Warn("data quality alert request build failed", "error", err, "stage", stage)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Warn("data quality alert post failed", "error", err, "stage", stage)
		}
		return
	}
	_ = resp.Body.Close()
	if log != nil {
		log.Info("data quality alert sent", "stage", stage, "status", resp.StatusCode)
	}
}
