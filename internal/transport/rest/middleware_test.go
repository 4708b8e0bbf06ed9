package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appctx "github.com/cityagenda/event-platform/internal/pkg/context"
	"github.com/cityagenda/event-platform/internal/security"
	"github.com/cityagenda/event-platform/internal/transport/rest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "testsecret"

func signToken(t *testing.T, uid int64, role, issuer string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  uid,
		"role": role,
		"iss":  issuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := rest.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appctx.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_KeepsIncomingHeader(t *testing.T) {
	var seen string
	h := rest.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appctx.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", seen)
}

func TestAuthMiddleware(t *testing.T) {
	verifier := security.NewHS256Verifier(testSecret)
	var gotAuth rest.AuthContext
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, _ = rest.GetAuth(r.Context())
	})
	h := rest.AuthMiddleware(verifier, rest.AuthOptions{ExpectedIssuer: "auth-service"})(inner)

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, 7, "user", "someone-else"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, 7, "user", "auth-service"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(7), gotAuth.UserID)
		assert.Equal(t, "user", gotAuth.Role)
	})
}

func TestRequireAdmin(t *testing.T) {
	verifier := security.NewHS256Verifier(testSecret)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := rest.AuthMiddleware(verifier, rest.AuthOptions{})(rest.RequireAdmin(inner))

	t.Run("plain user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, 7, "user", ""))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, 1, security.RoleAdmin, ""))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

type stubCache struct{ allow bool }

func (s stubCache) GetViews(ctx context.Context, eventID int64) (int64, error) { return 0, nil }
func (s stubCache) SetViews(ctx context.Context, eventID int64, views int64, ttl time.Duration) error {
	return nil
}
func (s stubCache) AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	return s.allow, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("allowed", func(t *testing.T) {
		h := rest.RateLimitMiddleware(stubCache{allow: true}, 100, time.Minute)(inner)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("blocked", func(t *testing.T) {
		h := rest.RateLimitMiddleware(stubCache{allow: false}, 100, time.Minute)(inner)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}
