package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/pkg/auth"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAuthed(t *testing.T) {
	jwtSvc, err := auth.NewJWTService("secret")
	require.NoError(t, err)
	stale, err := auth.NewJWTService("secret", auth.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
	require.NoError(t, err)

	userID := uuid.New()
	var got model.Actor
	r := gin.New()
	m := NewAuthMiddleware(jwtSvc)
	r.GET("/any", m.Authed(func(c *gin.Context, actor model.Actor) {
		got = actor
		c.Status(http.StatusNoContent)
	}))
	r.GET("/admin", m.Authed(func(c *gin.Context, _ model.Actor) {
		c.Status(http.StatusNoContent)
	}, model.RoleAdmin, model.RoleDoctor))

	patientToken, err := jwtSvc.GenerateAccessToken(userID.String(), "p@example.com", "patient")
	require.NoError(t, err)
	expiredToken, err := stale.GenerateAccessToken(userID.String(), "p@example.com", "patient")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header http.Header
		status int
		msg    string
	}{
		{"missing header", "/any", nil, http.StatusUnauthorized, "No authorization header"},
		{"wrong scheme", "/any", http.Header{"Authorization": []string{"Token abc"}}, http.StatusUnauthorized, "Invalid authorization header format"},
		{"garbage token", "/any", bearer("abc"), http.StatusUnauthorized, "Invalid token"},
		{"expired token", "/any", bearer(expiredToken), http.StatusUnauthorized, "Token has expired"},
		{"wrong role", "/admin", bearer(patientToken), http.StatusForbidden, "Access denied. Required role: admin, doctor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(r, http.MethodGet, tt.path, tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, body["error"])
		})
	}

	w, _ := serve(r, http.MethodGet, "/any", bearer(patientToken))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, model.RolePatient, got.Role)
	assert.Equal(t, "p@example.com", got.Email)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperrors.Conflict("Access already granted")) })
	r.GET("/raw", func(c *gin.Context) { _ = c.Error(errors.New("pq: connection reset")) })

	w, body := serve(r, http.MethodGet, "/app", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Access already granted", body["error"])

	w, body = serve(r, http.MethodGet, "/raw", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w, body := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestRateLimit(t *testing.T) {
	rl := NewIPRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2, IdleTTL: time.Minute})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w, _ := serve(r, http.MethodGet, "/login", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, body := serve(r, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])

	assert.True(t, rl.Allow("10.1.1.1"), "limits are per IP")
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestRequireStore(t *testing.T) {
	r := gin.New()
	r.Use(RequireStore(pinger{err: errors.New("no reachable servers")}, "/api/health"))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/users/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w, _ := serve(r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := serve(r, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Database connection error", body["error"])
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(8))
	r.POST("/upload", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig()), RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w, _ := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}
