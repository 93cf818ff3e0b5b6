package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/router"
	"github.com/jwalitptl/medicare-api/internal/service/access"
	"github.com/jwalitptl/medicare-api/internal/service/admin"
	"github.com/jwalitptl/medicare-api/internal/service/auth"
	"github.com/jwalitptl/medicare-api/internal/service/patient"
	"github.com/jwalitptl/medicare-api/internal/service/record"
	"github.com/jwalitptl/medicare-api/internal/service/servicetest"
	"github.com/jwalitptl/medicare-api/internal/service/user"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
)

type testServer struct {
	fx       *servicetest.Fixture
	engine   *gin.Engine
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, mutate ...func(*router.RouterConfig)) *testServer {
	t.Helper()

	fx := servicetest.New(t)
	reg := prometheus.NewRegistry()
	fx.Metrics = metrics.New("medicare", reg)

	store := fx.Store
	svcs := router.Services{
		Auth:     auth.NewService(store.Users(), fx.Hasher, fx.JWT, fx.Mailer, fx.Auditor, fx.Metrics, fx.Logger),
		Users:    user.NewService(store.Users(), fx.Auditor),
		Patients: patient.NewService(store.Users(), store.Records()),
		Records:  record.NewService(store, fx.Codec, fx.Auditor, fx.Metrics, fx.Logger),
		Access:   access.NewService(store.Access(), store.Users(), fx.Auditor),
		Admin:    admin.NewService(store.Users(), store.Records(), fx.Auditor, fx.Mailer, fx.Logger),
	}

	config := router.DefaultRouterConfig()
	config.Mode = gin.TestMode
	config.RateLimit = middleware.RateLimiterConfig{Rate: rate.Inf, Burst: 1}
	for _, fn := range mutate {
		fn(&config)
	}

	r := router.NewRouter(store, fx.JWT, svcs, fx.Metrics, reg, config)
	r.Setup()
	return &testServer{fx: fx, engine: r.Engine(), registry: reg}
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
	Raw    []byte
}

func (r response) String(key string) string {
	if v, ok := r.Body[key].(string); ok {
		return v
	}
	return ""
}

func (r response) Object(key string) map[string]interface{} {
	if v, ok := r.Body[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func (r response) List(key string) []interface{} {
	if v, ok := r.Body[key].([]interface{}); ok {
		return v
	}
	return nil
}

func (s *testServer) do(req *http.Request, token string) response {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	resp := response{Code: w.Code, Header: w.Header(), Raw: w.Body.Bytes()}
	_ = json.Unmarshal(resp.Raw, &resp.Body)
	return resp
}

func (s *testServer) makeRequest(t *testing.T, method, path string, body interface{}, token string) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req, token)
}

// upload posts a multipart form carrying one file under field.
func (s *testServer) upload(t *testing.T, path, field, filename, contentType string, data []byte, fields map[string]string, token string) response {
	t.Helper()
	return s.do(multipartRequest(t, path, field, filename, contentType, data, fields), token)
}

func multipartRequest(t *testing.T, path, field, filename, contentType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// login creates a user of role and returns a token for it.
func (s *testServer) login(t *testing.T, role model.Role, email string, mutate ...func(*model.User)) (*model.User, string) {
	t.Helper()

	u := s.fx.CreateUser(t, role, email, mutate...)
	resp := s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": servicetest.Password,
	}, "")
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Raw))
	token := resp.String("token")
	require.NotEmpty(t, token)
	return u, token
}
