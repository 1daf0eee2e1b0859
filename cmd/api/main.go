package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	clinicHandler "github.com/jwalitptl/clinic-api/internal/handler/clinic"
	draftHandler "github.com/jwalitptl/clinic-api/internal/handler/draft"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	moderationHandler "github.com/jwalitptl/clinic-api/internal/handler/moderation"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	clinicService "github.com/jwalitptl/clinic-api/internal/service/clinic"
	draftService "github.com/jwalitptl/clinic-api/internal/service/draft"
	"github.com/jwalitptl/clinic-api/internal/service/identifier"
	moderationService "github.com/jwalitptl/clinic-api/internal/service/moderation"
	"github.com/jwalitptl/clinic-api/internal/service/publication"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.JWT.Secret == "" {
		appLogger.Fatal().Msg("JWT_SECRET is required")
	}

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	prom := prometheus.New()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, prom.Registry())

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	clinicRepo := postgres.NewClinicRepository(base)
	draftRepo := postgres.NewDraftRepository(base)
	categoryRepo := postgres.NewCategoryRepository(base)
	hoursRepo := postgres.NewHoursRepository(base)

	// Moderation events go to Redis when configured
	var publisher messaging.Publisher = messaging.NopPublisher{}
	var broker *redis.RedisBroker
	if cfg.Redis.URL != "" {
		broker, err = redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, appLogger, m)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		eventPublisher := messaging.NewBrokerPublisher(broker, cfg.Redis.Channel)
		defer eventPublisher.Close()
		publisher = eventPublisher
	} else {
		appLogger.Warn().Msg("REDIS_URL not set, moderation events are not published")
	}

	// Initialize services
	v := validator.New()
	resolver := identifier.NewResolver(categoryRepo, cfg.Cache.CategoryTTL, cfg.Cache.CleanupInterval, appLogger, m)
	committer := publication.NewCommitter(publication.Repositories{
		Clinics:    clinicRepo,
		Categories: categoryRepo,
		Catalog:    postgres.NewCatalogRepository(base),
		Media:      postgres.NewMediaRepository(base),
		Hours:      hoursRepo,
	}, resolver, appLogger, m)
	draftSvc := draftService.NewService(draftRepo, v, appLogger)
	moderationSvc := moderationService.NewService(clinicRepo, draftRepo, draftSvc, committer, publisher, appLogger, m)
	clinicSvc := clinicService.NewService(clinicRepo, hoursRepo, committer, v, appLogger)

	checks := map[string]health.Pinger{"database": db}
	if broker != nil {
		checks["redis"] = broker
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)),
		router.Handlers{
			Health:     health.NewHandler(checks),
			Prometheus: prom,
			Clinic:     clinicHandler.NewHandler(clinicSvc),
			Draft:      draftHandler.NewHandler(draftSvc, moderationSvc),
			Moderation: moderationHandler.NewHandler(moderationSvc),
		},
		m,
		router.RouterConfig{
			ImportRateLimit: rate.Limit(cfg.RateLimit.ImportRequestsPerSecond),
			ImportBurst:     cfg.RateLimit.ImportBurst,
			CORSConfig:      corsConfig,
			Timeout:         cfg.Server.Timeout(),
			MaxBodySize:     cfg.Server.MaxBodyBytes,
			MetricsPath:     cfg.Metrics.Path,
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		appLogger.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited properly")
}
