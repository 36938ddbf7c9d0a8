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

	"grocery-marketplace-api/config"
	"grocery-marketplace-api/handlers"
	"grocery-marketplace-api/jobs"
	"grocery-marketplace-api/logger"
	"grocery-marketplace-api/mailer"
	"grocery-marketplace-api/metrics"
	"grocery-marketplace-api/middleware"
	"grocery-marketplace-api/routes"
	"grocery-marketplace-api/services"
	"grocery-marketplace-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	config.LoadDotEnvUp(3)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	db, err := config.OpenDB(cfg.Database, zlog)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	zlog.Info("database ready", zap.String("driver", cfg.Database.Driver))

	// Blobs
	if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	blobs := storage.NewFSStore(
		afero.NewBasePathFs(afero.NewOsFs(), cfg.Storage.Root),
		cfg.Storage.BaseURL,
		storage.WithMaxSize(cfg.Storage.MaxFileSize),
	)

	// Mail
	var mail mailer.Sender = mailer.NewLogSender(zlog)
	if cfg.Mail.Driver == "smtp" {
		mail = mailer.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	// Rate limiting: shared through Redis when configured
	var limiter middleware.Limiter = middleware.NewLocalLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.RPS)
	}

	jwt := middleware.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	drivers := services.NewDriverApplicationService(db, blobs, mail, zlog)
	h := &handlers.Handler{
		Users:     services.NewUserService(db, jwt, zlog),
		Drivers:   drivers,
		Catalog:   services.NewCatalogService(db),
		Cart:      services.NewCartService(db),
		Wishlist:  services.NewWishlistService(db),
		Orders:    services.NewOrderService(db, zlog),
		Reviews:   services.NewReviewService(db),
		Wholesale: services.NewWholesaleService(db),
		Dashboard: services.NewDashboardService(db),
	}

	if cfg.AppEnv != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(zlog),
		middleware.RequestLogger(zlog),
		metrics.Middleware(),
		middleware.CORS(),
	)
	if cfg.RateLimit.RPS > 0 {
		r.Use(middleware.RateLimit(limiter, cfg.RateLimit.RPS, zlog))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Grocery Marketplace API",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.StaticFS("/uploads", blobs.HTTPFileSystem())
	routes.SetupRoutes(r, h, jwt)

	// Jobs
	scheduler := jobs.NewScheduler(zlog)
	if err := scheduler.ScheduleSuspensionSweep(cfg.Jobs.SuspensionSweep, drivers, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-stop:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
