package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pak23399/TSchedule/internal/clients/authapi"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/requestdata"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	// SetContextFromToken verifies tokenString and attaches its owner to ctx.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(ownerID string) (string, error)
	Login(ctx context.Context, body json.RawMessage) (*authapi.Session, error)
	Register(ctx context.Context, body json.RawMessage) (*authapi.Upstream, error)
	CookieTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey string
	// JWTIssuer, when set, is required on every verified token.
	JWTIssuer string
	CookieTTL time.Duration
}

type authService struct {
	log          *logger.Logger
	upstream     authapi.Client
	jwtSecretKey string
	jwtIssuer    string
	cookieTTL    time.Duration
}

// NewAuthService builds the token verifier. upstream may be nil when login
// and registration are not proxied.
func NewAuthService(baseLog *logger.Logger, upstream authapi.Client, cfg AuthConfig) AuthService {
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 7 * 24 * time.Hour
	}
	return &authService{
		log:          baseLog.With("service", "AuthService"),
		upstream:     upstream,
		jwtSecretKey: cfg.JWTSecretKey,
		jwtIssuer:    strings.TrimSpace(cfg.JWTIssuer),
		cookieTTL:    cfg.CookieTTL,
	}
}

func (as *authService) CookieTTL() time.Duration { return as.cookieTTL }

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apierr.Unauthorized(fmt.Errorf("Unauthorized"))
	}
	if as.jwtSecretKey == "" {
		return ctx, apierr.Internal(fmt.Errorf("JWT secret not configured"))
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if as.jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(as.jwtIssuer))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, opts...)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return ctx, apierr.Unauthorized(fmt.Errorf("Invalid token"))
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apierr.Unauthorized(fmt.Errorf("Invalid token"))
	}
	ownerID := strings.TrimSpace(claims.Subject)
	if ownerID == "" {
		return ctx, apierr.New(http.StatusForbidden, apierr.CodeForbidden, fmt.Errorf("Invalid user"))
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		OwnerID:     ownerID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) IssueToken(ownerID string) (string, error) {
	if as.jwtSecretKey == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			Issuer:    as.jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cookieTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) Login(ctx context.Context, body json.RawMessage) (*authapi.Session, error) {
	if as.upstream == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, apierr.CodeUpstream, fmt.Errorf("auth API not configured"))
	}
	sess, err := as.upstream.Login(ctx, body)
	if err != nil {
		return nil, upstreamError(err, "Login failed")
	}
	if strings.TrimSpace(sess.Token) == "" {
		as.log.Error("login response missing token")
		return nil, apierr.Internal(fmt.Errorf("No token in login response"))
	}
	return sess, nil
}

func (as *authService) Register(ctx context.Context, body json.RawMessage) (*authapi.Upstream, error) {
	if as.upstream == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, apierr.CodeUpstream, fmt.Errorf("auth API not configured"))
	}
	up, err := as.upstream.Register(ctx, body)
	if err != nil {
		return nil, upstreamError(err, "Register failed")
	}
	return up, nil
}

func upstreamError(err error, fallback string) error {
	var ue *authapi.UpstreamError
	if errors.As(err, &ue) {
		return apierr.New(ue.Status, apierr.CodeUpstream, errors.New(ue.Message))
	}
	return apierr.New(http.StatusBadGateway, apierr.CodeUpstream, fmt.Errorf("%s: %w", fallback, err))
}
