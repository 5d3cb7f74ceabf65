package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pak23399/TSchedule/internal/platform/ctxutil"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/requestdata"
)

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := append([]interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.TraceFields(c.Request.Context())...)
		// The owner is attached by RequireAuth on the handler's request, which
		// gin keeps on c.Request after c.Next returns.
		if owner := requestdata.OwnerID(c.Request.Context()); owner != "" {
			fields = append(fields, "owner_id", owner)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
