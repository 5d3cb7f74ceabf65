package app

import (
	"fmt"

	"github.com/pak23399/TSchedule/internal/http"
	httpH "github.com/pak23399/TSchedule/internal/http/handlers"
	httpMW "github.com/pak23399/TSchedule/internal/http/middleware"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/render"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Schedule *httpH.ScheduleHandler
	Export   *httpH.ExportHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) (Handlers, error) {
	log.Info("Wiring handlers...")
	var renderer *render.Renderer
	if cfg.Preview.Enabled {
		g, err := cfg.Grid()
		if err != nil {
			return Handlers{}, err
		}
		renderer, err = render.New(log, render.Config{Grid: g, FontPath: cfg.Preview.FontPath})
		if err != nil {
			return Handlers{}, fmt.Errorf("init preview renderer: %w", err)
		}
	}
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(services.Auth, cfg.Auth.CookieName, cfg.Auth.CookieSecure),
		Schedule: httpH.NewScheduleHandler(log, services.Schedule),
		Export:   httpH.NewExportHandler(log, services.Schedule, renderer),
	}, nil
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth, cfg.Auth.CookieName),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(log, cfg.HTTP.Addr, http.RouterConfig{
		Log:             log,
		ServiceName:     "tschedule",
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		Metrics:         metrics,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		ScheduleHandler: handlers.Schedule,
		ExportHandler:   handlers.Export,
		HealthHandler:   handlers.Health,
	})
}
