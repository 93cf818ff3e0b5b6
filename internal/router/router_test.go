package router_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/router"
)

func TestRootAndFallbacks(t *testing.T) {
	s := newTestServer(t)

	resp := s.makeRequest(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Welcome to BharathMedicare API", resp.String("message"))
	assert.Equal(t, "1.0.0", resp.String("version"))
	assert.Equal(t, "/api/records", resp.Object("endpoints")["records"])

	resp = s.makeRequest(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Endpoint not found", resp.String("error"))

	resp = s.makeRequest(t, http.MethodDelete, "/api/health", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	assert.Equal(t, "Method not allowed for this endpoint", resp.String("error"))
}

func TestResponseHeaders(t *testing.T) {
	s := newTestServer(t)

	resp := s.makeRequest(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get(middleware.HeaderXRequestID))
}

func TestHealthSurvivesStoreOutage(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp := s.makeRequest(t, http.MethodGet, "/api/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, s.fx.Store.Close(ctx))

	resp = s.makeRequest(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "healthy", resp.String("status"))

	resp = s.makeRequest(t, http.MethodGet, "/api/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "Str0ngPass",
	}, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "Database connection error", resp.String("error"))

	s.fx.Store.Reopen()
	resp = s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "Str0ngPass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Invalid email or password", resp.String("error"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.makeRequest(t, http.MethodGet, "/api/health", nil, "")
	resp := s.makeRequest(t, http.MethodGet, "/api/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, string(resp.Raw), "medicare_http_requests_total")
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t, func(c *router.RouterConfig) {
		c.RateLimit = middleware.RateLimiterConfig{Rate: 0, Burst: 1}
	})

	body := map[string]string{"email": "nobody@example.com", "password": "Str0ngPass"}
	first := s.makeRequest(t, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, first.Code)

	second := s.makeRequest(t, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Other groups have no limiter.
	for i := 0; i < 3; i++ {
		resp := s.makeRequest(t, http.MethodGet, "/api/users/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	s := newTestServer(t, func(c *router.RouterConfig) {
		c.MaxBodySize = 64
	})

	resp := s.upload(t, "/api/records/upload", "file", "big.pdf", "application/pdf", make([]byte, 1024), nil, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Equal(t, "Request entity too large", resp.String("error"))
}

func TestOversizedChunkedUploadRejected(t *testing.T) {
	s := newTestServer(t, func(c *router.RouterConfig) {
		c.MaxBodySize = 4096
	})
	_, token := s.login(t, model.RolePatient, "p@example.com")

	req := multipartRequest(t, "/api/records/upload", "file", "big.pdf", "application/pdf", make([]byte, 16<<10), nil)
	req.ContentLength = -1
	resp := s.do(req, token)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Equal(t, "Request entity too large", resp.String("error"))

	req = multipartRequest(t, "/api/users/upload-photo", "photo", "me.png", "image/png", make([]byte, 16<<10), nil)
	req.ContentLength = -1
	resp = s.do(req, token)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestAuthedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	resp := s.makeRequest(t, http.MethodGet, "/api/records/my-records", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "No authorization header", resp.String("error"))

	resp = s.makeRequest(t, http.MethodGet, "/api/records/my-records", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Invalid token", resp.String("error"))
}
