package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pak23399/TSchedule/internal/http/response"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/services"
)

const DefaultCookieName = "dacn_token"

var errUnauthorized = errors.New("Unauthorized")

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	cookieName  string
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, cookieName string) *AuthMiddleware {
	if strings.TrimSpace(cookieName) == "" {
		cookieName = DefaultCookieName
	}
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, cookieName: cookieName}
}

func (am *AuthMiddleware) CookieName() string { return am.cookieName }

// RequireAuth accepts the session cookie or a bearer token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := am.extractToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errUnauthorized)
			c.Abort()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("rejected credential", "error", err)
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if v, err := c.Cookie(am.cookieName); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}
