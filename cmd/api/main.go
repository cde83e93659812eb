package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/api"
	"github.com/pingup/backend/internal/auth"
	"github.com/pingup/backend/internal/config"
	"github.com/pingup/backend/internal/domain"
	"github.com/pingup/backend/internal/events"
	"github.com/pingup/backend/internal/repository"
)

const version = "1.0.0"

// backend is what both store implementations provide.
type backend interface {
	domain.RelationshipStore
	domain.ConnectionRequestRepository
	domain.MessageLog
}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting relationship API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store backend
	var pinger api.Pinger
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := initDatabase(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repo := repository.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		store, pinger = repo, repo
		logger.Info("Connected to database")
	default:
		store = repository.NewMemoryStore()
		logger.Warn("Using in-memory store - relationships are lost on restart and recent messages are always empty")
	}

	// Event bus
	hub := api.NewWebSocketHub(logger)
	go hub.Run(ctx)

	publishers := events.Fanout{hub}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			logger.Warn("Failed to connect to NATS - connection request events stay local", zap.Error(err))
		} else {
			defer natsPublisher.Close()
			publishers = append(publishers, natsPublisher)
			logger.Info("Connected to NATS", zap.String("subject", cfg.NATS.Subject))
		}
	} else {
		logger.Warn("NATS is NOT configured - set NATS_URL to publish connection request events")
	}

	// Services
	followService := domain.NewFollowService(store, logger)
	connectionService := domain.NewConnectionService(store, store, publishers, logger,
		domain.WithRateLimit(cfg.Relationship.RequestLimit, cfg.Relationship.RequestWindow),
	)
	inboxService := domain.NewInboxService(store, cfg.Relationship.InboxFetchLimit, logger)

	// Handlers
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry)
	router := api.NewRouter(api.RouterDeps{
		Follows:     api.NewFollowHandler(followService, logger),
		Connections: api.NewConnectionHandler(connectionService, logger),
		Messages:    api.NewMessageHandler(inboxService, hub, cfg.Relationship.InboxPollInterval, logger),
		Health:      api.NewHealthHandler(pinger, version, logger),
		Tokens:      jwtManager,
		Users:       store,
		CORSOrigins: cfg.CORS.AllowedOrigins,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	cancel()

	logger.Info("Server stopped")
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Log.Level, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

func initDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
