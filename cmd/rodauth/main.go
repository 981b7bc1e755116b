package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rodalabs/roda-auth/internal/app"
	"github.com/rodalabs/roda-auth/internal/audit"
	"github.com/rodalabs/roda-auth/internal/auth"
	"github.com/rodalabs/roda-auth/internal/observability"
	"github.com/rodalabs/roda-auth/internal/platform/cache"
	"github.com/rodalabs/roda-auth/internal/platform/db"
	"github.com/rodalabs/roda-auth/internal/rate"
	"github.com/rodalabs/roda-auth/internal/token"
	"github.com/rodalabs/roda-auth/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The throttle fails open, so a missing Redis degrades rather than stops
	// the service.
	var throttle auth.LoginThrottle
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login throttle disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		throttle = rate.New(redisClient, rate.Config{
			MaxLoginAttempts: cfg.MaxLoginAttempts,
			LoginCooldown:    cfg.LoginCooldown,
		})
	}

	codec, err := token.NewCodec(token.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Error("init token codec", slog.Any("error", err))
		os.Exit(1)
	}

	accountsRepo := users.NewRepository(pool)
	accounts := users.NewService(accountsRepo)

	auditor := audit.NewBestEffort(audit.NewLogger(pool), logger)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(codec, accounts, authRepo, auditor, metrics, logger)
	authHandler := auth.NewHandler(logger, authService, accounts, throttle, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: authHandler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
