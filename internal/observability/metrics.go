package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/platform/envutil"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *GaugeVec
	dataQuality   *CounterVec
	commits       *CounterVec
	cacheLookups  *CounterVec
	auditRuns     *CounterVec
	auditDuration *HistogramVec
	dbStats       *GaugeVec
	redisUp       *GaugeVec
	redisPing     *GaugeVec

	all []collector
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current is nil unless Init ran with metrics enabled. Every method is
// nil-safe.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered metrics set.
func New() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("ts_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ts_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:  NewGaugeVec("ts_api_inflight_requests", "In-flight API requests.", nil),
		dataQuality:  NewCounterVec("ts_data_quality_issues_total", "Stored rules that cannot be projected, by stage/reason.", []string{"stage", "reason"}),
		commits:      NewCounterVec("ts_relocation_commits_total", "Relocation commits by outcome.", []string{"outcome"}),
		cacheLookups: NewCounterVec("ts_week_cache_lookups_total", "Week cache lookups by result.", []string{"result"}),
		auditRuns:    NewCounterVec("ts_audit_runs_total", "Rule audit runs by status.", []string{"status"}),
		auditDuration: NewHistogramVec(
			"ts_audit_duration_seconds",
			"Rule audit duration in seconds.",
			nil,
			[]float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		),
		dbStats:   NewGaugeVec("ts_db_pool", "Database pool statistics.", []string{"stat"}),
		redisUp:   NewGaugeVec("ts_redis_up", "Redis reachability (1 up, 0 down).", nil),
		redisPing: NewGaugeVec("ts_redis_ping_seconds", "Redis ping latency in seconds.", nil),
	}
	m.all = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.dataQuality, m.commits, m.cacheLookups,
		m.auditRuns, m.auditDuration,
		m.dbStats, m.redisUp, m.redisPing,
	}
	return m
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WriteText(w)
}

// WriteText writes every series in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.all {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

func (m *Metrics) IncDataQuality(stage, reason string) {
	if m == nil {
		return
	}
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	m.dataQuality.Inc(stage, reason)
}

func (m *Metrics) IncCommit(outcome string) {
	if m == nil {
		return
	}
	m.commits.Inc(outcome)
}

func (m *Metrics) CommitCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.commits.Value(outcome)
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.Inc(result)
}

func (m *Metrics) ObserveAudit(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.auditRuns.Inc(status)
	m.auditDuration.Observe(dur.Seconds())
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
