// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/episode-ledger/internal/admin"
	"github.com/carterperez-dev/episode-ledger/internal/assets"
	"github.com/carterperez-dev/episode-ledger/internal/auth"
	"github.com/carterperez-dev/episode-ledger/internal/catalog"
	"github.com/carterperez-dev/episode-ledger/internal/config"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/entitlement"
	"github.com/carterperez-dev/episode-ledger/internal/health"
	"github.com/carterperez-dev/episode-ledger/internal/ledger"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
	"github.com/carterperez-dev/episode-ledger/internal/schema"
	"github.com/carterperez-dev/episode-ledger/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log, cfg.IsDevelopment())
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		applied, migrateErr := schema.Apply(ctx, db.DB)
		if migrateErr != nil {
			return fmt.Errorf("migrate: %w", migrateErr)
		}
		logger.Info("schema up to date", "applied", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT verifier initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	signer, err := assets.NewSigner(cfg.Assets)
	if err != nil {
		return err
	}

	courseCache := catalog.NewCachedReader(
		catalog.NewRepository(db.DB, catalog.CourseTables),
		redis.Client,
		entitlement.FamilyCourse,
		cfg.Cache.CatalogTTL,
	)
	shortCache := catalog.NewCachedReader(
		catalog.NewRepository(db.DB, catalog.ShortTables),
		redis.Client,
		entitlement.FamilyShort,
		cfg.Cache.CatalogTTL,
	)

	families, err := entitlement.NewRegistry(
		&entitlement.Family{
			Name:   entitlement.FamilyCourse,
			Tables: catalog.CourseTables,
			Reader: courseCache,
			Assets: signer,
		},
		&entitlement.Family{
			Name:   entitlement.FamilyShort,
			Tables: catalog.ShortTables,
			Reader: shortCache,
			Assets: signer,
		},
	)
	if err != nil {
		return err
	}

	ledgerRepo := ledger.NewRepository(db.DB)
	ledgerSvc := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(ledgerSvc)

	entitlementSvc := entitlement.NewService(db.DB, families, cfg.Entitlement)
	entitlementHandler := entitlement.NewHandler(entitlementSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Orders:     entitlementSvc,
		Caches: map[string]admin.CatalogCache{
			entitlement.FamilyCourse: courseCache,
			entitlement.FamilyShort:  shortCache,
		},
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Per(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen:   true,
			BypassFunc: isProbe,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	optionalAuth := middleware.OptionalAuth(jwtManager)
	adminOnly := middleware.RequireAdmin
	purchaseLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.PurchaseRequests,
			cfg.RateLimit.PurchaseBurst,
		),
		KeyFunc:  middleware.Scoped("purchase", middleware.KeyByUser),
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		ledgerHandler.RegisterRoutes(r, authenticator)
		entitlementHandler.RegisterRoutes(r, optionalAuth, authenticator, purchaseLimit)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}

func setupLogger(cfg config.LogConfig, addSource bool) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
