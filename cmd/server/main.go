package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"auth_api/internal/api"
	"auth_api/internal/app/service"
	"auth_api/internal/common/security"
	"auth_api/internal/domain/repository"
	"auth_api/internal/platform/config"
	"auth_api/internal/platform/database"
	"auth_api/internal/platform/limiter"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	tokens := security.NewTokenService(cfg.JWTKey, cfg.JWTExp, nil)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)

	var userRepo repository.UserRepository
	if cfg.DBDriver == "memory" {
		logger.Warn("using in-memory user store; data will not survive restarts")
		userRepo = repository.NewMemoryUserRepository()
	} else {
		db, err := database.Connect(context.Background(), cfg.DBConnStr)
		if err != nil {
			logger.Error("database init failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")
		userRepo = repository.NewPgUserRepository(db)
	}

	var limStore limiter.Store
	if cfg.RateLimitStore == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis init failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		logger.Info("redis connected")
		limStore = limiter.NewRedisStore(rdb, nil)
	} else {
		limStore = limiter.NewMemoryStore(nil)
	}

	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	userService := service.NewUserService(userRepo)

	router := api.NewRouter(cfg, logger, tokens, authService, userService, limStore)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", cfg.APIPort, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
