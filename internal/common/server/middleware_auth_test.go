package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abukstech/folocom/internal/common/auth"
	"github.com/Abukstech/folocom/internal/common/config"
)

func TestJWTAuthAndRequireRoles(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "folocom",
		Audience:  "folocom",
	}

	tokenStr, _, err := auth.GenerateAccessToken(authCfg, "u-1", []string{"BUYER", "ADMIN"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	handler := Chain(
		JWTAuth(authCfg, nil),
		RequireRoles("ADMIN"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ai, ok := AuthFromContext(r.Context())
		if !ok {
			t.Fatalf("missing auth info in ctx")
		}
		if ai.Subject != "u-1" {
			t.Fatalf("subject mismatch: %s", ai.Subject)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/assisted-sourcing", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// 只有 BUYER 角色的 token，应被 RBAC 拒绝
	tokenStr2, _, err := auth.GenerateAccessToken(authCfg, "u-2", []string{"BUYER"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token2: %v", err)
	}
	req2 := httptest.NewRequest(http.MethodGet, "/assisted-sourcing", nil)
	req2.Header.Set("Authorization", "Bearer "+tokenStr2)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec2.Code)
	}

	// 无 token，401
	req3 := httptest.NewRequest(http.MethodGet, "/assisted-sourcing", nil)
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec3.Code)
	}
}

func TestJWTAuthPublicPath(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:     true,
		JWTSecret:   "test-secret",
		PublicPaths: []string{"/auth/login"},
	}

	handler := JWTAuth(authCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public path to pass, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(denyAll{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/parts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context) bool { return false }
