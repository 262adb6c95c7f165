// AngelaMos | 2026
// middleware_test.go

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/config"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
)

type stubVerifier struct {
	claims *middleware.AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*middleware.AccessTokenClaims, error) {
	return s.claims, s.err
}

func whoami(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(middleware.GetUserID(r.Context()) + "|" + middleware.GetUserRole(r.Context())))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestAuthenticator(t *testing.T) {
	good := stubVerifier{claims: &middleware.AccessTokenClaims{UserID: "u1", Role: "user"}}

	tests := []struct {
		name     string
		verifier stubVerifier
		header   string
		status   int
		code     string
	}{
		{"missing token", good, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", good, "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", stubVerifier{err: core.ErrTokenExpired}, "Bearer t", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"invalid", stubVerifier{err: core.ErrTokenInvalid}, "Bearer t", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"valid", good, "bearer t", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.Authenticator(tt.verifier)(http.HandlerFunc(whoami))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			} else {
				assert.Equal(t, "u1|user", rec.Body.String())
			}
		})
	}
}

func TestOptionalAuthIgnoresBadTokens(t *testing.T) {
	h := middleware.OptionalAuth(stubVerifier{err: core.ErrTokenInvalid})(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "|", rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	h := middleware.RequireAdmin(http.HandlerFunc(whoami))

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()).Code)

	user := middleware.WithClaims(context.Background(), &middleware.AccessTokenClaims{UserID: "u", Role: "user"})
	assert.Equal(t, http.StatusForbidden, serve(user).Code)

	admin := middleware.WithClaims(context.Background(), &middleware.AccessTokenClaims{UserID: "a", Role: "admin"})
	assert.Equal(t, http.StatusOK, serve(admin).Code)
	assert.True(t, middleware.IsAdmin(admin))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.RequestID(middleware.Logger(logger)(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
		},
	)))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/course/c1/chapters/l1/order", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.EqualValues(t, http.StatusPaymentRequired, line["status"])
	assert.Equal(t, "/v1/course/c1/chapters/l1/order", line["path"])
	assert.NotEmpty(t, line["request_id"])
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://app.test"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           60,
	})(http.HandlerFunc(whoami))

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set("Origin", "https://app.test")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(true)(http.HandlerFunc(whoami)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	middleware.SecurityHeaders(false)(http.HandlerFunc(whoami)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiterFallsBackToLocalBucket(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
		Limit:   middleware.PerMinute(1, 1),
		KeyFunc: middleware.Scoped("purchase", middleware.KeyByUser),
		BypassFunc: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	})
	h := limiter.Handler(http.HandlerFunc(whoami))

	serve := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("/order").Code)

	limited := serve("/order")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, limited))
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve("/healthz").Code)
}

func TestScopedKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{UserID: "u9"}))

	assert.Equal(t, "ratelimit:user:u9", middleware.KeyByUser(req))
	assert.Equal(t, "ratelimit:purchase:user:u9", middleware.Scoped("purchase", middleware.KeyByUser)(req))
}
