package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/realtime"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/cache"
	"github.com/noah-isme/classroom-api/pkg/config"
	"github.com/noah-isme/classroom-api/pkg/database"
	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/jobs"
	"github.com/noah-isme/classroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/cors"
	"github.com/noah-isme/classroom-api/pkg/observability"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

// @title Classroom API
// @version 1.0.0
// @description Classroom file management: uploads, submissions, grading and realtime upload progress
// @BasePath /
// @schemes http
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
	sugar := logr.Sugar()

	flushSentry, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		sugar.Warnw("sentry disabled", "error", err)
	}
	defer flushSentry()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	bundle, err := i18n.New(cfg.I18n.DefaultLanguage, cfg.I18n.SupportedLanguages)
	if err != nil {
		sugar.Fatalw("failed to load translations", "error", err)
	}
	validate := validator.New()
	if err := bundle.RegisterValidator(validate); err != nil {
		sugar.Fatalw("failed to register validation translations", "error", err)
	}

	metrics := service.NewMetricsService()

	realtimeOrigins := cfg.Realtime.AllowedOrigins
	if len(realtimeOrigins) == 0 {
		realtimeOrigins = cfg.CORS.AllowedOrigins
	}
	allowOrigin := corsmiddleware.Matcher(realtimeOrigins)
	hub := realtime.NewHub(realtime.Config{
		ClientBuffer: cfg.Realtime.ClientBuffer,
		WriteTimeout: cfg.Realtime.WriteTimeout,
		PingInterval: cfg.Realtime.PingInterval,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		},
		Logger:   logr.Named("realtime"),
		Observer: metrics,
	})

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var backend jobs.Backend
	switch cfg.Queue.Backend {
	case config.QueueBackendRedis:
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			sugar.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()
		backend = jobs.NewRedisBackend(rdb, cfg.Queue.Name, cfg.Queue.PollTimeout)
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, rdb) }
	case config.QueueBackendMemory, "":
		backend = jobs.NewMemoryBackend(cfg.Queue.MaxPending)
	default:
		sugar.Fatalw("unknown queue backend", "backend", cfg.Queue.Backend)
	}

	worker := service.NewUploadWorker(hub, validate, logr.Named("upload-worker"), metrics)
	queue := jobs.NewQueue(cfg.Queue.Name, worker.Handle, jobs.QueueConfig{
		Backend:        backend,
		EnqueueTimeout: cfg.Queue.EnqueueTimeout,
		OnComplete:     worker.Completed,
		OnFailure:      worker.Failed,
		Logger:         logr.Named("queue"),
	})
	// Outlives the signal context; queue.Stop runs after srv.Shutdown.
	queue.Start(context.Background())

	blobs, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		sugar.Fatalw("failed to prepare upload directory", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	users := repository.NewUserRepository(db)
	classes := repository.NewClassRepository(db)
	files := repository.NewFileRepository(db)
	submissions := repository.NewSubmissionRepository(db)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		Issuer:             cfg.JWT.Issuer,
		DefaultLanguage:    bundle.Default(),
		SupportedLanguages: bundle.Supported(),
	})
	profileSvc := service.NewProfileService(users, validate, logr, bundle.Supported())
	classSvc := service.NewClassService(classes, users, validate, logr)
	fileSvc := service.NewFileService(service.FileServiceDeps{
		Files:       files,
		Classes:     classes,
		Submissions: submissions,
		Storage:     blobs,
		Queue:       queue,
		Signer:      signer,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	}, service.FileConfig{
		APIPrefix:    cfg.APIPrefix,
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	})
	submissionSvc := service.NewSubmissionService(submissions, files, validate, logr)
	exportSvc := service.NewExportService(classes, submissions, logr)

	engine := router.New(router.Options{
		Config:   cfg,
		Logger:   logr,
		Tokens:   authSvc,
		Bundle:   bundle,
		Observer: metrics,
	}, router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc, profileSvc),
		Files:       handler.NewFileHandler(fileSvc),
		Classes:     handler.NewClassHandler(classSvc, exportSvc),
		Submissions: handler.NewSubmissionHandler(submissionSvc),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
		Realtime:    gin.WrapF(hub.ServeWS),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "queue_backend", cfg.Queue.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
	queue.Stop()
	hub.Close()
	logr.Info("shutdown complete", zap.Any("queue", queue.Stats()))
}

func pingRedis(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
