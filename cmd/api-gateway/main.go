package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sas-fee-api/api/swagger"
	"github.com/noah-isme/sas-fee-api/internal/handler"
	"github.com/noah-isme/sas-fee-api/internal/middleware"
	"github.com/noah-isme/sas-fee-api/internal/repository"
	"github.com/noah-isme/sas-fee-api/internal/service"
	"github.com/noah-isme/sas-fee-api/pkg/config"
	"github.com/noah-isme/sas-fee-api/pkg/database"
	"github.com/noah-isme/sas-fee-api/pkg/jobs"
	"github.com/noah-isme/sas-fee-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sas-fee-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sas-fee-api/pkg/middleware/requestid"
	"github.com/noah-isme/sas-fee-api/pkg/storage"
)

// @title School Fee Reconciliation API
// @version 1.0.0
// @description Fee obligation and payment reconciliation reporting for school administrators
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Fees.CacheTTL, logr, true)

	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewFeeScheduleRepository(db)
	txnRepo := repository.NewFeeTransactionRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "sas-fee-api",
	})

	feeReportSvc := service.NewFeeReportService(service.FeeReportServiceParams{
		Students:     studentRepo,
		Schedule:     scheduleRepo,
		Transactions: txnRepo,
		Classes:      classRepo,
		Cache:        cacheSvc,
		Metrics:      metricsSvc,
		Logger:       logr,
		Config: service.FeeReportServiceConfig{
			CacheTTL:            cfg.Fees.CacheTTL,
			TopUnpaidLimit:      cfg.Fees.TopUnpaidLimit,
			DefaultWindowMonths: cfg.Fees.DefaultWindowMonths,
			HonorEffectiveDates: cfg.Fees.HonorEffectiveDates,
		},
	})

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	var exportQueue *jobs.Queue
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Repo:    exportJobRepo,
		Reports: feeReportSvc,
		Queue:   queueRef{queue: &exportQueue},
		Storage: exportStorage,
		Signer:  signer,
		Metrics: metricsSvc,
		Logger:  logr,
		Config: service.ExportServiceConfig{
			Enabled:         cfg.Exports.Enabled,
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		},
	})
	worker := service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue = jobs.NewQueue("fee-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	if cfg.Exports.Enabled {
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	feeHandler := handler.NewFeeReportHandler(feeReportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "metrics": metricsSvc.Snapshot()})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

		fees := api.Group("/fees", middleware.JWT(authSvc))
		fees.GET("/report", feeHandler.Report)
		fees.GET("/unpaid", feeHandler.UnpaidList)
		fees.GET("/classes", feeHandler.Classes)
		fees.POST("/exports", exportHandler.CreateExport)
		fees.GET("/exports/:id", exportHandler.ExportStatus)

		// Download is authenticated by the signed token itself.
		api.GET("/fees/export/:token", exportHandler.DownloadExport)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// queueRef defers dispatch to a queue constructed after the export service.
// The service needs the queue to enqueue jobs and the queue needs the worker,
// which wraps the service.
type queueRef struct {
	queue **jobs.Queue
}

func (q queueRef) Enqueue(job jobs.Job) error {
	if q.queue == nil || *q.queue == nil {
		return fmt.Errorf("export queue not initialised")
	}
	return (*q.queue).Enqueue(job)
}
