package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pak23399/TSchedule/internal/http/response"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/services"
)

type AuthHandler struct {
	authService  services.AuthService
	cookieName   string
	cookieSecure bool
}

func NewAuthHandler(authService services.AuthService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieName: cookieName, cookieSecure: cookieSecure}
}

type loginUser struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type loginResponse struct {
	User      loginUser `json:"user"`
	ExpiresAt string    `json:"expiresAt,omitempty"`
}

// POST /api/auth/login proxies the body to the auth API and stores the
// returned token in an HTTP-only cookie.
func (ah *AuthHandler) Login(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.RespondAPIError(c, apierr.Invalid("Invalid JSON body"))
		return
	}
	sess, err := ah.authService.Login(c.Request.Context(), body)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	maxAge := int(ah.authService.CookieTTL().Seconds())
	if exp, perr := time.Parse(time.RFC3339, sess.ExpiresAt); perr == nil {
		if left := int(time.Until(exp).Seconds()); left > 0 {
			maxAge = left
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ah.cookieName, sess.Token, maxAge, "/", "", ah.cookieSecure, true)
	response.RespondOK(c, loginResponse{
		User:      loginUser{UserID: sess.UserID, Email: sess.Email, FullName: sess.FullName},
		ExpiresAt: sess.ExpiresAt,
	})
}

// POST /api/auth/register relays the auth API reply unchanged.
func (ah *AuthHandler) Register(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.RespondAPIError(c, apierr.Invalid("Invalid JSON body"))
		return
	}
	up, err := ah.authService.Register(c.Request.Context(), body)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(up.Status, "application/json", up.Body)
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ah.cookieName, "", -1, "/", "", ah.cookieSecure, true)
	response.RespondOK(c, gin.H{"ok": true})
}
