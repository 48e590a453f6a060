package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appconnector "github.com/erp/amazon-connector/internal/application/connector"
	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/infrastructure/cache"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
	"github.com/erp/amazon-connector/internal/infrastructure/logger"
	"github.com/erp/amazon-connector/internal/infrastructure/mws"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence"
	"github.com/erp/amazon-connector/internal/infrastructure/queue"
	"github.com/erp/amazon-connector/internal/infrastructure/scheduler"
	"github.com/erp/amazon-connector/internal/infrastructure/sqs"
	"github.com/erp/amazon-connector/internal/infrastructure/storage"
	"github.com/erp/amazon-connector/internal/infrastructure/telemetry"
	"github.com/erp/amazon-connector/internal/interfaces/http/handler"
	"github.com/erp/amazon-connector/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting amazon connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, &cfg.Telemetry, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("error closing redis client", zap.Error(err))
		}
	}()
	schedulerLock := cache.NewSchedulerLock(redisClient, cfg.Sync.LockTTL)

	// Repositories
	backendRepo := persistence.NewGormBackendRepository(db.DB)
	checkpointRepo := persistence.NewGormCheckpointRepository(db.DB)
	shippingRepo := persistence.NewGormShippingTemplateRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	feedRepo := persistence.NewGormFeedRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	jobRepo := persistence.NewGormJobRepository(db.DB)

	// Marketplace gateway and AWS clients
	gateway := mws.NewAdapter(log)
	consumer, err := sqs.NewConsumer(ctx, &cfg.AWS, log)
	if err != nil {
		log.Fatal("failed to initialize SQS consumer", zap.Error(err))
	}
	var archive appsync.ReportArchive = storage.NoopArchive{}
	if cfg.AWS.ReportBucket != "" {
		s3Archive, err := storage.NewS3ReportArchive(ctx, &cfg.AWS, log)
		if err != nil {
			log.Fatal("failed to initialize report archive", zap.Error(err))
		}
		archive = s3Archive
	}

	// Durable job queue
	q := queue.New(jobRepo, &cfg.Queue, log)

	// Application services
	backendService := appconnector.NewBackendService(backendRepo, checkpointRepo, shippingRepo)
	syncService := appsync.NewService(
		backendRepo, checkpointRepo, orderRepo, productRepo, feedRepo,
		messageRepo, gateway, consumer, archive, q,
		cfg.AWS.SQSPollWindow, log)

	for _, operation := range syncService.Operations() {
		q.Register(operation, syncService.Execute)
	}
	if err := q.Start(ctx); err != nil {
		log.Fatal("failed to start job queue", zap.Error(err))
	}
	defer func() {
		if err := q.Stop(context.Background()); err != nil {
			log.Error("error stopping job queue", zap.Error(err))
		}
	}()

	trigger := scheduler.New(&cfg.Sync, syncService, schedulerLock, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("failed to start sync trigger", zap.Error(err))
	}
	defer func() {
		if err := trigger.Stop(context.Background()); err != nil {
			log.Error("error stopping sync trigger", zap.Error(err))
		}
	}()

	engine := router.New(router.Config{
		Backend: handler.NewBackendHandler(backendService),
		Sync:    handler.NewSyncHandler(syncService),
		Jobs:    handler.NewJobHandler(jobRepo),
		System:  handler.NewSystemHandler(db.DB),
		Logger:  log,
		Tracing: cfg.Telemetry.Enabled,
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
