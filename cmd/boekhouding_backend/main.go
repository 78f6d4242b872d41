package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/adapters/bankprovider"
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/Fattieportal/boekhouding-saas/internal/core/services"
	"github.com/Fattieportal/boekhouding-saas/internal/handlers"
	"github.com/Fattieportal/boekhouding-saas/internal/job"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/config"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/lock"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/mq"
	"github.com/Fattieportal/boekhouding-saas/internal/repositories/database/pgsql"
	"github.com/Fattieportal/boekhouding-saas/internal/repositories/memory"
	"github.com/Fattieportal/boekhouding-saas/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

const shutdownTimeout = 10 * time.Second

// @title Boekhouding API
// @version 1.0
// @description Multi-tenant double-entry bookkeeping backend.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = middleware.WithLogger(ctx, logger)

	repos, closeStore, err := setupStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	locker, closeLocker, err := setupLocker(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize period locker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLocker()

	provider := bankprovider.NewClient(cfg)
	serviceContainer := services.NewServiceContainer(cfg, repos, locker, provider)

	// --- Background jobs ---
	var relay *job.AuditRelay
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mq.NewSyncProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("Failed to create kafka producer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		publisher := mq.NewAuditPublisher(producer, cfg.AuditTopic)
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Error("Error closing kafka producer", slog.String("error", cerr.Error()))
			}
		}()
		relay = job.NewAuditRelay(repos.AuditRepo, publisher, cfg.AuditRelayInterval, cfg.AuditMaxRetries)
		go relay.Start(ctx)
	}

	var bankSync *job.BankSync
	if cfg.BankProviderBaseURL != "" {
		bankSync = job.NewBankSync(serviceContainer.Bank, cfg.BankSyncInterval, cfg.BankSyncLookbackDays, cfg.BankSyncConcurrency)
		go bankSync.Start(ctx)
	}

	// --- HTTP ---
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	ipLimiter := limiter.New(limitermemory.NewStore(), rate)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}

	// Global middleware (logging, recovery, cors, rate limit)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(corsConfig),
		middleware.RateLimit(ipLimiter),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	if relay != nil {
		relay.Stop()
	}
	if bankSync != nil {
		bankSync.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
}

// setupStore connects to PostgreSQL and applies migrations when a database URL is set,
// and falls back to the in-memory store otherwise.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction {
			return portsrepo.RepositoryProvider{}, nil, errors.New("in-memory store is not allowed in production")
		}
		logger.Warn("Using the in-memory store. Data is lost on restart.")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger); err != nil {
		database.ClosePgxPool(pool, logger)
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(pool), func() { database.ClosePgxPool(pool, logger) }, nil
}

// setupLocker uses Redis for period locks when configured so several instances share them.
func setupLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.PeriodLocker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewMemoryLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("Connected to redis", slog.String("addr", cfg.RedisAddr))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing redis client", slog.String("error", err.Error()))
		}
	}
	return lock.NewRedisLocker(client, cfg.PeriodLockTTL), closeFn, nil
}
