package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medicare-api/internal/handler"
	accesshandler "github.com/jwalitptl/medicare-api/internal/handler/access"
	adminhandler "github.com/jwalitptl/medicare-api/internal/handler/admin"
	authhandler "github.com/jwalitptl/medicare-api/internal/handler/auth"
	healthhandler "github.com/jwalitptl/medicare-api/internal/handler/health"
	patienthandler "github.com/jwalitptl/medicare-api/internal/handler/patient"
	promhandler "github.com/jwalitptl/medicare-api/internal/handler/prometheus"
	recordhandler "github.com/jwalitptl/medicare-api/internal/handler/record"
	userhandler "github.com/jwalitptl/medicare-api/internal/handler/user"
	"github.com/jwalitptl/medicare-api/internal/middleware"
	"github.com/jwalitptl/medicare-api/internal/service/access"
	"github.com/jwalitptl/medicare-api/internal/service/admin"
	"github.com/jwalitptl/medicare-api/internal/service/auth"
	"github.com/jwalitptl/medicare-api/internal/service/patient"
	"github.com/jwalitptl/medicare-api/internal/service/record"
	"github.com/jwalitptl/medicare-api/internal/service/user"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Services are the domain services the routes dispatch to.
type Services struct {
	Auth     *auth.Service
	Users    *user.Service
	Patients *patient.Service
	Records  *record.Service
	Access   *access.Service
	Admin    *admin.Service
}

type RouterConfig struct {
	// Mode is a gin mode; empty keeps the current one.
	Mode        string
	RateLimit   middleware.RateLimiterConfig
	CORSConfig  middleware.CORSConfig
	MaxBodySize int64
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Mode:        gin.ReleaseMode,
		RateLimit:   middleware.DefaultRateLimiterConfig(),
		CORSConfig:  middleware.DefaultCORSConfig(),
		MaxBodySize: middleware.DefaultMaxBodySize,
	}
}

type Router struct {
	engine   *gin.Engine
	store    middleware.Pinger
	auth     *middleware.AuthMiddleware
	limiter  *middleware.IPRateLimiter
	authH    *authhandler.Handler
	health   Handler
	metricsH Handler
	handlers []Handler
}

// NewRouter builds the engine and its middleware chain. Call Setup to mount
// the routes.
func NewRouter(
	store middleware.Pinger,
	tokens middleware.TokenValidator,
	svcs Services,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultMaxBodySize
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := middleware.RegisterValidators(); err != nil {
		log.Warn().Err(err).Msg("failed to register request validators")
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	authMW := middleware.NewAuthMiddleware(tokens)
	r := &Router{
		engine:   engine,
		store:    store,
		auth:     authMW,
		limiter:  middleware.NewIPRateLimiter(config.RateLimit),
		authH:    authhandler.NewHandler(svcs.Auth),
		health:   healthhandler.NewHandler(store),
		metricsH: promhandler.New(gatherer),
		handlers: []Handler{
			userhandler.NewHandler(svcs.Users, authMW),
			patienthandler.NewHandler(svcs.Patients, authMW),
			recordhandler.NewHandler(svcs.Records, authMW),
			accesshandler.NewHandler(svcs.Access, authMW),
			adminhandler.NewHandler(svcs.Admin, authMW),
		},
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodySize),
	)

	return r
}

func (r *Router) Setup() {
	r.engine.NoRoute(handler.NoRoute)
	r.engine.NoMethod(handler.NoMethod)
	r.engine.GET("/", handler.Root)

	api := r.engine.Group("/api")

	// Health and metrics answer even when the store is down.
	r.health.RegisterRoutes(api)
	r.metricsH.RegisterRoutes(api)

	api.Use(middleware.RequireStore(r.store))
	r.authH.RegisterRoutes(api, r.limiter.RateLimit())
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
