package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/services"
)

type Services struct {
	Schedule services.ScheduleService
	Auth     services.AuthService
	Audit    services.RuleAuditService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, loc *time.Location, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")
	if cfg.Auth.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; every authenticated request will fail")
	}
	return Services{
		Schedule: services.NewScheduleService(db, log, repos.Rule, repos.RuleChange, clients.WeekCache, loc),
		Auth: services.NewAuthService(log, clients.AuthAPI, services.AuthConfig{
			JWTSecretKey: cfg.Auth.JWTSecretKey,
			JWTIssuer:    cfg.Auth.JWTIssuer,
			CookieTTL:    cfg.Auth.CookieTTL,
		}),
		Audit: services.NewRuleAuditService(db, log, repos.Rule),
	}
}
