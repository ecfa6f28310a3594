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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/knowledgevault-api/api/swagger"
	"github.com/noah-isme/knowledgevault-api/internal/handler"
	"github.com/noah-isme/knowledgevault-api/internal/middleware"
	"github.com/noah-isme/knowledgevault-api/internal/repository"
	"github.com/noah-isme/knowledgevault-api/internal/service"
	"github.com/noah-isme/knowledgevault-api/pkg/cache"
	"github.com/noah-isme/knowledgevault-api/pkg/config"
	"github.com/noah-isme/knowledgevault-api/pkg/database"
	"github.com/noah-isme/knowledgevault-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/knowledgevault-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/knowledgevault-api/pkg/middleware/requestid"
	"github.com/noah-isme/knowledgevault-api/pkg/storage"
)

// @title KnowledgeVault API
// @version 1.0.0
// @description Academic achievements registry with filtered listing, attachments and exports
// @BasePath /
// @schemes http

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var (
		store    repository.AchievementStore
		auditLog repository.AuditLogWriter
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logr.Warn("using in-memory storage; data is lost on restart")
		store = repository.NewMemoryAchievementRepository()
		auditLog = repository.NewMemoryAuditRepository()
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		store = repository.NewAchievementRepository(db)
		auditLog = repository.NewAuditRepository(db)
		checks["postgres"] = pingDB(db)
	}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, listing cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, logr.Named("cache"))
			defer cacheRepo.Close()
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr.Named("cache"), true)
			checks["redis"] = cacheRepo.Ping
		}
	}

	files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	audit := service.NewAuditService(auditLog, service.AuditServiceConfig{
		Workers:    cfg.Audit.Workers,
		MaxRetries: cfg.Audit.Retries,
	}, metrics, logr.Named("audit"))
	audit.Start(context.WithoutCancel(ctx))
	defer audit.Stop()

	achievements := service.NewAchievementService(store, service.AchievementServiceDeps{
		Cache:   cacheSvc,
		Metrics: metrics,
		Audit:   audit,
		Files:   files,
		Signer:  signer,
		Logger:  logr.Named("achievements"),
	}, service.AchievementServiceConfig{
		APIPrefix:    cfg.APIPrefix,
		MaxFileSize:  cfg.Attachments.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Attachments.AllowedMIMEs,
		CacheTTL:     cfg.Cache.TTL,
	})

	router := newRouter(cfg, logr, metrics, achievements, checks)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, achievements *service.AchievementService, checks map[string]handler.ReadinessCheck) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr.Named("http")))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Token(middleware.TokenConfig{JWTSecret: cfg.Auth.JWTSecret}))

	var guard gin.HandlerFunc
	if cfg.Auth.Required {
		guard = middleware.RequireToken()
	}
	handler.RegisterAchievementRoutes(r.Group(cfg.APIPrefix), handler.NewAchievementHandler(achievements), guard)
	handler.RegisterOpsRoutes(r, handler.NewMetricsHandler(metrics, checks))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

func pingDB(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
