package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/posturetrack/posture-server/internal/config"
	"github.com/posturetrack/posture-server/internal/httpapi"
	"github.com/posturetrack/posture-server/internal/httpapi/middleware"
	"github.com/posturetrack/posture-server/internal/repository"
	"github.com/posturetrack/posture-server/internal/service"
	"github.com/posturetrack/posture-server/pkg/cache"
	dbbuilder "github.com/posturetrack/posture-server/pkg/database"
	"github.com/posturetrack/posture-server/pkg/httpserver"

	"go.uber.org/zap"
)

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	hub        *httpapi.Hub
	httpServer *httpserver.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbPool, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("schema init failed: %w", err)
	}

	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
	)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))

	deviceRepo := repository.NewDeviceRepository(dbPool)
	telemetryRepo := repository.NewTelemetryRepository(dbPool)
	rosterRepo := repository.NewRosterRepository(dbPool)

	statsService := service.NewStatsService(deviceRepo, telemetryRepo, rosterRepo, logger)

	hub := httpapi.NewHub(logger)
	handlers := httpapi.NewHandlers(statsService, cacheClient, hub, logger, cfg.CacheTTL)
	router := httpapi.NewRouter(handlers, cfg.SupabaseJWTSecret, logger)

	httpServer, err := httpserver.New(
		httpserver.WithPort(cfg.HTTPPort),
		httpserver.WithLogger(logger),
		httpserver.WithHandler(middleware.CORS(cfg.CORSOrigins)(router)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		hub:        hub,
		httpServer: httpServer,
	}, nil
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.httpServer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", zap.Error(err))
	}

	a.hub.Close()

	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	a.logger.Info("graceful shutdown completed")
	_ = a.logger.Sync()
	return nil
}
