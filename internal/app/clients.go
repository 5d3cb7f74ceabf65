package app

import (
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pak23399/TSchedule/internal/clients/authapi"
	"github.com/pak23399/TSchedule/internal/clients/redis"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset.
	Redis     *goredis.Client
	WeekCache redis.WeekCache
	// AuthAPI is nil when AUTH_API_BASE_URL is unset.
	AuthAPI authapi.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb, err := redis.NewClient(addr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	}
	out.WeekCache = redis.NewWeekCache(log, out.Redis, cfg.Redis.WeekCacheTTL)

	// Auth API
	if strings.TrimSpace(cfg.Auth.AuthAPIBaseURL) != "" {
		c, err := authapi.New(log, authapi.Config{BaseURL: cfg.Auth.AuthAPIBaseURL})
		if err != nil {
			return Clients{}, fmt.Errorf("init auth API client: %w", err)
		}
		out.AuthAPI = c
	} else {
		log.Warn("AUTH_API_BASE_URL not set; login and register are disabled")
	}
	return out, nil
}
