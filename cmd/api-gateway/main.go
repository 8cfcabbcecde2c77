package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/proceso-api/api/swagger"
	"github.com/noah-isme/proceso-api/internal/handler"
	"github.com/noah-isme/proceso-api/internal/models"
	"github.com/noah-isme/proceso-api/internal/repository"
	"github.com/noah-isme/proceso-api/internal/router"
	"github.com/noah-isme/proceso-api/internal/service"
	"github.com/noah-isme/proceso-api/pkg/cache"
	"github.com/noah-isme/proceso-api/pkg/config"
	"github.com/noah-isme/proceso-api/pkg/database"
	"github.com/noah-isme/proceso-api/pkg/email"
	"github.com/noah-isme/proceso-api/pkg/events"
	"github.com/noah-isme/proceso-api/pkg/jobs"
	"github.com/noah-isme/proceso-api/pkg/logger"
	"github.com/noah-isme/proceso-api/pkg/storage"
)

// @title ProCESO API
// @version 1.0.0
// @description Community extension activities, faculty assignments and notifications
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, falling back to in-process state", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := events.Connect(cfg.NATS.URL, "proceso-api")
	if err != nil {
		logr.Sugar().Warnw("nats unavailable, notification events disabled", "error", err)
		natsConn = nil
	}
	publisher := events.NewPublisher(natsConn, cfg.NATS.SubjectPrefix, "proceso-api", logr)
	defer publisher.Close()

	sender, err := newSender(cfg.Email, logr)
	if err != nil {
		logr.Sugar().Fatalw("email sender misconfigured", "error", err)
	}

	files, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("certificate storage unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()

	activityRepo := repository.NewActivityRepository(db, models.SourceActivities)
	eventRepo := repository.NewActivityRepository(db, models.SourceEvents)
	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	seriesRepo := repository.NewSeriesRepository(db)

	var runs jobs.RunStore = jobs.NewMemoryRunStore()
	if redisClient != nil {
		runs = jobs.NewRedisRunStore(redisClient, "proceso:jobs:", cfg.Jobs.RunTTL)
	}

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "proceso:", logr),
		metrics,
		cfg.Feed.CacheTTL,
		logr,
		cfg.Feed.CacheEnabled && redisClient != nil,
	)
	feedSvc := service.NewFeedService(activityRepo, eventRepo, cacheSvc, cfg.PublicBaseURL, cfg.Feed.CacheTTL, logr)
	notificationSvc := service.NewNotificationService(userRepo, runs, sender, publisher, metrics, cfg.PublicBaseURL, logr)

	var worker *service.NotificationWorker
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Runs:       runs,
		Logger:     logr,
	})

	certificateSvc := service.NewCertificateService(service.CertificateServiceConfig{
		Certificates: certificateRepo,
		Activities:   activityRepo,
		Files:        files,
		Signer:       signer,
		Sender:       sender,
		Runs:         runs,
		Queue:        queue,
		Publisher:    publisher,
		Metrics:      metrics,
		BaseURL:      cfg.PublicBaseURL,
		Issuer:       cfg.Certificates.Issuer,
		Validator:    validate,
		Logger:       logr,
	})
	worker = service.NewNotificationWorker(notificationSvc, certificateSvc, metrics, logr)

	activitySvc := service.NewActivityService(activityRepo, userRepo, feedSvc, queue, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, activityRepo, userRepo, notificationSvc, queue, logr)
	jobSvc := service.NewJobService(runs, logr)
	seriesSvc := service.NewSeriesService(seriesRepo, validate, logr)
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)

	engine := router.New(router.Dependencies{
		Config:        cfg,
		Logger:        logr,
		Auth:          authSvc,
		Metrics:       metrics,
		Feed:          handler.NewFeedHandler(feedSvc),
		Activities:    handler.NewActivityHandler(activitySvc),
		Assignments:   handler.NewAssignmentHandler(assignmentSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc, certificateSvc, validate),
		Certificates:  handler.NewCertificateHandler(certificateSvc),
		Jobs:          handler.NewJobHandler(jobSvc),
		Series:        handler.NewSeriesHandler(seriesSvc),
		Observability: handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
	queue.Stop()
}

func newSender(cfg config.EmailConfig, logr *zap.Logger) (email.Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderSendgrid:
		return email.NewSendgridSender(email.SendgridConfig{
			APIKey:        cfg.SendgridAPIKey,
			Host:          cfg.SendgridHost,
			FromAddress:   cfg.FromAddress,
			FromName:      cfg.FromName,
			SubjectPrefix: cfg.SubjectPrefix,
		}, logr)
	case config.EmailProviderConsole, "":
		return email.NewConsoleSender(cfg.SubjectPrefix, logr), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
