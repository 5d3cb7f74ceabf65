package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pak23399/TSchedule/internal/clients/authapi"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/requestdata"
)

const testSecret = "test-secret"

func signed(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestSetContextFromToken(t *testing.T) {
	as := NewAuthService(logger.Nop(), nil, AuthConfig{JWTSecretKey: testSecret, CookieTTL: time.Hour})
	valid, err := as.IssueToken("owner-9")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	ctx, err := as.SetContextFromToken(context.Background(), valid)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := requestdata.OwnerID(ctx); got != "owner-9" {
		t.Fatalf("owner: got=%q want=owner-9", got)
	}

	expired := signed(t, testSecret, jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "owner-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	noSubject := signed(t, testSecret, jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	wrongKey := signed(t, "other-secret", jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "owner-9",
	}})
	wrongAlg := signed(t, testSecret, jwt.SigningMethodHS512, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "owner-9",
	}})

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong key", wrongKey, http.StatusUnauthorized},
		{"wrong alg", wrongAlg, http.StatusUnauthorized},
		{"no subject", noSubject, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, err := as.SetContextFromToken(context.Background(), tc.token)
			if !apierr.IsStatus(err, tc.status) {
				t.Fatalf("SetContextFromToken: got=%v want=%d", err, tc.status)
			}
			if requestdata.OwnerID(ctx) != "" {
				t.Fatalf("rejected token populated the owner")
			}
		})
	}
}

func TestSetContextFromTokenChecksIssuer(t *testing.T) {
	issuerA := NewAuthService(logger.Nop(), nil, AuthConfig{JWTSecretKey: testSecret, JWTIssuer: "auth-a"})
	issuerB := NewAuthService(logger.Nop(), nil, AuthConfig{JWTSecretKey: testSecret, JWTIssuer: "auth-b"})
	tok, err := issuerA.IssueToken("owner-1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := issuerA.SetContextFromToken(context.Background(), tok); err != nil {
		t.Fatalf("same issuer: %v", err)
	}
	if _, err := issuerB.SetContextFromToken(context.Background(), tok); !apierr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("other issuer: got=%v want=401", err)
	}
}

type fakeAuthAPI struct {
	session *authapi.Session
	err     error
}

func (f fakeAuthAPI) Login(context.Context, json.RawMessage) (*authapi.Session, error) {
	return f.session, f.err
}

func (f fakeAuthAPI) Register(context.Context, json.RawMessage) (*authapi.Upstream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &authapi.Upstream{Status: http.StatusCreated, Body: json.RawMessage(`{"ok":true}`)}, nil
}

func TestLoginMapsUpstream(t *testing.T) {
	cases := []struct {
		name   string
		api    authapi.Client
		status int
		msg    string
	}{
		{"no upstream", nil, http.StatusServiceUnavailable, "auth API not configured"},
		{"rejected", fakeAuthAPI{err: &authapi.UpstreamError{Status: 401, Message: "Bad credentials"}}, http.StatusUnauthorized, "Bad credentials"},
		{"unreachable", fakeAuthAPI{err: errors.New("dial tcp: refused")}, http.StatusBadGateway, ""},
		{"missing token", fakeAuthAPI{session: &authapi.Session{UserID: "u1"}}, http.StatusInternalServerError, "No token in login response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := NewAuthService(logger.Nop(), tc.api, AuthConfig{JWTSecretKey: testSecret})
			_, err := as.Login(context.Background(), json.RawMessage(`{}`))
			if !apierr.IsStatus(err, tc.status) {
				t.Fatalf("Login: got=%v want=%d", err, tc.status)
			}
			if tc.msg != "" && err.Error() != tc.msg {
				t.Fatalf("Login message: got=%q want=%q", err.Error(), tc.msg)
			}
		})
	}

	as := NewAuthService(logger.Nop(), fakeAuthAPI{session: &authapi.Session{Token: "tok", UserID: "u1"}}, AuthConfig{JWTSecretKey: testSecret})
	sess, err := as.Login(context.Background(), json.RawMessage(`{}`))
	if err != nil || sess.Token != "tok" {
		t.Fatalf("Login: got=%+v err=%v", sess, err)
	}
	if as.CookieTTL() != 7*24*time.Hour {
		t.Fatalf("CookieTTL: got=%v", as.CookieTTL())
	}
	up, err := as.Register(context.Background(), json.RawMessage(`{}`))
	if err != nil || up.Status != http.StatusCreated {
		t.Fatalf("Register: got=%+v err=%v", up, err)
	}
}
