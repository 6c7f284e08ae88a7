package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/Samyy-Momin/onefooddialer/pkg/auth"
	"github.com/Samyy-Momin/onefooddialer/pkg/config"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "onefooddialer", ExpirationMinutes: 60}
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	businessID := uuid.New()

	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:     userID,
		BusinessID: &businessID,
		Role:       enums.UserRoleBusinessOwner,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotUser, gotBusiness, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotBusiness = BusinessIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	})

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	Auth(cfg, logg)(next).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if gotUser != userID.String() {
		t.Fatalf("user id = %q, want %q", gotUser, userID)
	}
	if gotBusiness != businessID.String() {
		t.Fatalf("business id = %q, want %q", gotBusiness, businessID)
	}
	if gotRole != string(enums.UserRoleBusinessOwner) {
		t.Fatalf("role = %q", gotRole)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig(), logg)(next).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestAuthRejectsForgedToken(t *testing.T) {
	cfg := testJWTConfig()
	forged := config.JWTConfig{Secret: "other-secret", Issuer: cfg.Issuer, ExpirationMinutes: 60}

	token, err := pkgauth.MintAccessToken(forged, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(cfg, logg)(next).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestBusinessContextRequired(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a tenant")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	resp := httptest.NewRecorder()
	BusinessContext(logg)(next).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
}

func TestRequireRole(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	ran := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })

	guard := RequireRole(logg, enums.UserRoleSuperAdmin, enums.UserRoleBusinessOwner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req = req.WithContext(withRole(req, string(enums.UserRoleStaff)))
	resp := httptest.NewRecorder()
	guard(next).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden || ran {
		t.Fatalf("staff must be rejected, status = %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req = req.WithContext(withRole(req, string(enums.UserRoleBusinessOwner)))
	resp = httptest.NewRecorder()
	guard(next).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !ran {
		t.Fatalf("owner must pass, status = %d", resp.Code)
	}
}

func withRole(r *http.Request, role string) context.Context {
	return context.WithValue(r.Context(), ctxRole, role)
}
