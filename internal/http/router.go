package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/pak23399/TSchedule/internal/http/handlers"
	httpMW "github.com/pak23399/TSchedule/internal/http/middleware"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	ScheduleHandler *httpH.ScheduleHandler
	ExportHandler   *httpH.ExportHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tschedule"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.RequestIDs())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/logout", cfg.AuthHandler.Logout)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Weekly schedule
		if cfg.ScheduleHandler != nil {
			protected.GET("/events", cfg.ScheduleHandler.ListWeek)
			protected.POST("/events", cfg.ScheduleHandler.Create)
			protected.PATCH("/events/:id", cfg.ScheduleHandler.Update)
			protected.DELETE("/events/:id", cfg.ScheduleHandler.Delete)
		}

		// Export
		if cfg.ExportHandler != nil {
			protected.GET("/events/export.ics", cfg.ExportHandler.ICS)
			protected.GET("/events/preview.png", cfg.ExportHandler.Preview)
		}
	}

	return r
}
