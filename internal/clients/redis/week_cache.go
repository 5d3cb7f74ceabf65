package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

// Version is the owner's cache generation observed by Get. Put must be given
// the version seen before the week was read from the store, so a write that
// raced an invalidation lands under the retired key.
type Version int64

// NoVersion tells Put to skip the write.
const NoVersion Version = -1

// WeekCache holds owner-scoped week responses. Invalidation bumps a per-owner
// version so stale weeks are never read again and expire on their own.
type WeekCache interface {
	Get(ctx context.Context, ownerID, weekStart string) (*schedule.WeekView, Version, bool)
	Put(ctx context.Context, ownerID, weekStart string, ver Version, view *schedule.WeekView)
	Invalidate(ctx context.Context, ownerID string)
	Close() error
}

// commands is the subset of *goredis.Client the cache uses.
type commands interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Close() error
}

const keyPrefix = "ts:week"

func versionKey(ownerID string) string {
	return keyPrefix + ":ver:" + ownerID
}

func weekKey(ownerID string, version Version, weekStart string) string {
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, ownerID, version, weekStart)
}

// NewClient dials and pings addr.
func NewClient(addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type weekCache struct {
	log *logger.Logger
	rdb commands
	ttl time.Duration
}

// NewWeekCache returns a no-op cache when rdb is nil.
func NewWeekCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) WeekCache {
	if rdb == nil {
		return noopCache{}
	}
	return newWeekCache(log, rdb, ttl)
}

func newWeekCache(log *logger.Logger, rdb commands, ttl time.Duration) *weekCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &weekCache{log: log.With("service", "RedisWeekCache"), rdb: rdb, ttl: ttl}
}

func (c *weekCache) version(ctx context.Context, ownerID string) (Version, error) {
	v, err := c.rdb.Get(ctx, versionKey(ownerID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return Version(v), err
}

func (c *weekCache) Get(ctx context.Context, ownerID, weekStart string) (*schedule.WeekView, Version, bool) {
	ver, err := c.version(ctx, ownerID)
	if err != nil {
		observability.Current().IncCacheLookup("error")
		c.log.Warn("week cache version read failed", "owner_id", ownerID, "error", err)
		return nil, NoVersion, false
	}
	raw, err := c.rdb.Get(ctx, weekKey(ownerID, ver, weekStart)).Bytes()
	if errors.Is(err, goredis.Nil) {
		observability.Current().IncCacheLookup("miss")
		return nil, ver, false
	}
	if err != nil {
		observability.Current().IncCacheLookup("error")
		c.log.Warn("week cache read failed", "owner_id", ownerID, "error", err)
		return nil, ver, false
	}
	var view schedule.WeekView
	if err := json.Unmarshal(raw, &view); err != nil {
		observability.Current().IncCacheLookup("error")
		return nil, ver, false
	}
	observability.Current().IncCacheLookup("hit")
	return &view, ver, true
}

func (c *weekCache) Put(ctx context.Context, ownerID, weekStart string, ver Version, view *schedule.WeekView) {
	if view == nil || ver < 0 {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, weekKey(ownerID, ver, weekStart), raw, c.ttl).Err(); err != nil {
		c.log.Warn("week cache write failed", "owner_id", ownerID, "error", err)
	}
}

func (c *weekCache) Invalidate(ctx context.Context, ownerID string) {
	if err := c.rdb.Incr(ctx, versionKey(ownerID)).Err(); err != nil {
		c.log.Warn("week cache invalidate failed", "owner_id", ownerID, "error", err)
	}
}

func (c *weekCache) Close() error {
	return c.rdb.Close()
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string) (*schedule.WeekView, Version, bool) {
	return nil, NoVersion, false
}
func (noopCache) Put(context.Context, string, string, Version, *schedule.WeekView) {}
func (noopCache) Invalidate(context.Context, string)                               {}
func (noopCache) Close() error                                                     { return nil }
