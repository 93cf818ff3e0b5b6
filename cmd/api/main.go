package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medicare-api/internal/config"
	"github.com/jwalitptl/medicare-api/internal/email"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/internal/repository/memory"
	"github.com/jwalitptl/medicare-api/internal/repository/mongo"
	"github.com/jwalitptl/medicare-api/internal/repository/postgres"
	"github.com/jwalitptl/medicare-api/internal/router"
	accessService "github.com/jwalitptl/medicare-api/internal/service/access"
	adminService "github.com/jwalitptl/medicare-api/internal/service/admin"
	auditService "github.com/jwalitptl/medicare-api/internal/service/audit"
	authService "github.com/jwalitptl/medicare-api/internal/service/auth"
	patientService "github.com/jwalitptl/medicare-api/internal/service/patient"
	recordService "github.com/jwalitptl/medicare-api/internal/service/record"
	userService "github.com/jwalitptl/medicare-api/internal/service/user"
	"github.com/jwalitptl/medicare-api/pkg/auth"
	"github.com/jwalitptl/medicare-api/pkg/logger"
	"github.com/jwalitptl/medicare-api/pkg/messaging"
	"github.com/jwalitptl/medicare-api/pkg/messaging/redis"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
	"github.com/jwalitptl/medicare-api/pkg/security"
)

const bcryptCost = 12

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg, logCloser, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Server.Debug,
		File:    cfg.Log.File,
		MaxAge:  cfg.Log.MaxAge,
		Rotate:  cfg.Log.Rotate,
		Service: "medicare-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}
	defer logCloser.Close()
	logger.SetGlobal(lg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open store")
	}
	// The API still starts without a database; requests answer 503 until it is reachable.
	if err := store.Migrate(ctx); err != nil {
		log.Error().Err(err).Msg("failed to prepare database schema")
	}

	codec, err := security.NewCodec(cfg.Encryption.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize record encryption")
	}

	jwtSvc, err := auth.NewJWTService(cfg.JWT.Secret, auth.WithTTL(time.Duration(cfg.JWT.ExpiryHours)*time.Hour))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("medicare", registry)

	publisher := newPublisher(ctx, cfg.Redis, lg)
	defer publisher.Close()

	mailer := newMailer(cfg.SMTP, lg)

	// Initialize services
	auditor := auditService.NewService(store.Audit(), publisher, m, lg)
	svcs := router.Services{
		Auth:     authService.NewService(store.Users(), security.NewBcryptHasher(bcryptCost), jwtSvc, mailer, auditor, m, lg),
		Users:    userService.NewService(store.Users(), auditor),
		Patients: patientService.NewService(store.Users(), store.Records()),
		Records:  recordService.NewService(store, codec, auditor, m, lg),
		Access:   accessService.NewService(store.Access(), store.Users(), auditor),
		Admin:    adminService.NewService(store.Users(), store.Records(), auditor, mailer, lg),
	}

	routerCfg := router.DefaultRouterConfig()
	if cfg.Server.Debug {
		routerCfg.Mode = gin.DebugMode
	}
	routerCfg.RateLimit.Rate = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	routerCfg.RateLimit.Burst = cfg.RateLimit.Burst
	routerCfg.CORSConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	routerCfg.MaxBodySize = cfg.Server.MaxBodyBytes

	r := router.NewRouter(store, jwtSvc, svcs, m, registry, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("starting BharathMedicare API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}

	log.Info().Msg("server exited")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(postgres.Config{
			DSN:             cfg.PostgresDSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db), nil
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.NewStore(), nil
	default:
		return mongo.NewStore(ctx, mongo.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			ConnectTimeout: cfg.ConnectTimeout,
		})
	}
}

// newPublisher falls back to discarding audit events when redis is not
// configured or not reachable at startup.
func newPublisher(ctx context.Context, cfg config.RedisConfig, lg zerolog.Logger) messaging.Publisher {
	if cfg.URL == "" {
		return messaging.NopPublisher{}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := redis.NewPublisher(connectCtx, redis.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
	}, lg)
	if err != nil {
		log.Warn().Err(err).Msg("audit fan-out disabled")
		return messaging.NopPublisher{}
	}
	return p
}

func newMailer(cfg config.SMTPConfig, lg zerolog.Logger) email.Service {
	if cfg.Host == "" {
		log.Info().Msg("SMTP not configured; notifications are logged only")
		return email.NewLogService(lg)
	}
	return email.NewSMTPService(email.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}
