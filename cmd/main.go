package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	usercmd "github.com/ggonzalesd/UniTable/internal/command"
	"github.com/ggonzalesd/UniTable/internal/handler"
	userqry "github.com/ggonzalesd/UniTable/internal/query"
	"github.com/ggonzalesd/UniTable/internal/repository"
	"github.com/ggonzalesd/UniTable/internal/repository/memory"
	"github.com/ggonzalesd/UniTable/shared/config"
	"github.com/ggonzalesd/UniTable/shared/logger"
	"github.com/ggonzalesd/UniTable/shared/metrics"
	redisClient "github.com/ggonzalesd/UniTable/shared/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	os.Exit(serve())
}

// serve returns the process exit code so deferred cleanup runs before exit.
func serve() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		return 1
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error("user service stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, logg *zap.Logger) error {
	metrics.Init()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- CQRS wiring ---
	commandSvc := usercmd.NewUserCommandService(store, logg)
	querySvc := userqry.NewUserQueryService(store, logg)
	authSvc := userqry.NewAuthQueryService(store, cfg.JWTSecret, logg)

	services := handler.Services{
		Users:      commandSvc,
		UserReads:  querySvc,
		Groups:     commandSvc,
		GroupReads: querySvc,
		Auth:       authSvc,
		Tokens:     authSvc,
		Identities: querySvc,
	}

	// Redis only backs the login rate limiter.
	if cfg.RateLimitEnabled() {
		redis, err := redisClient.NewClient(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer redis.Close()
		services.LoginLimiter = redisClient.NewLoginLimiter(redis.Client, cfg.LoginRateLimit, cfg.LoginRateWindow)
		logg.Info("login rate limiting enabled",
			zap.Int64("limit", cfg.LoginRateLimit),
			zap.Duration("window", cfg.LoginRateWindow))
	}

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(services, logg)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("user service starting", zap.String("port", cfg.Port), zap.String("driver", cfg.DatabaseDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		return memory.NewStore(), func() {}, nil
	}

	db, err := repository.OpenDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { _ = db.Close() }
	if err := repository.Migrate(ctx, db); err != nil {
		closeDB()
		return nil, nil, err
	}
	configurePool(db, cfg.DatabaseDriver)
	return repository.NewSQLStore(db), closeDB, nil
}

func configurePool(db *sql.DB, driver string) {
	if driver != config.DriverPostgres {
		return
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
}
