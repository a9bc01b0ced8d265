// Command podsub-server starts the podsub HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/config"
	pkgcrypto "github.com/and161185/podsub/internal/crypto"
	"github.com/and161185/podsub/internal/limiter"
	"github.com/and161185/podsub/internal/migrate"
	"github.com/and161185/podsub/internal/repository/postgres"
	httpserver "github.com/and161185/podsub/internal/server/http"
	"github.com/and161185/podsub/internal/service"
	"github.com/and161185/podsub/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Fatal("dotenv", zap.Error(err))
	}
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.LookupEnv)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.Duration("access_ttl", cfg.AccessTTL),
		zap.Duration("refresh_ttl", cfg.RefreshTTL),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer db.Close()

	userRepo := postgres.NewUserRepo(db)
	refreshRepo := postgres.NewRefreshTokenRepo(db)
	subRepo := postgres.NewSubscriptionRepo(db)

	lim := limiter.NewPG(db.Pool, limiter.Config{
		Window:   cfg.LoginWindow,
		MaxFails: cfg.LoginMaxFails,
		BlockFor: cfg.LoginBlock,
	})

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}
	issuer := token.NewAccessIssuer(codec, cfg.AccessTTL)
	refresh := service.NewRefreshTokenManager(userRepo, refreshRepo, pkgcrypto.NewTokenHasher(cfg.RefreshHashCost), cfg.RefreshTTL)

	authSvc := service.NewAuthService(userRepo, issuer, refresh, lim, logger.Named("auth"))
	subSvc := service.NewSubscriptionService(subRepo, logger.Named("subscriptions"))
	userSvc := service.NewUserService(userRepo, logger.Named("users"))

	if created, err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Fatal("admin bootstrap", zap.Error(err))
	} else if created {
		logger.Info("admin account created", zap.String("username", cfg.AdminUsername))
	}

	sweeper := service.NewSweeper(refreshRepo, cfg.SweepInterval, logger.Named("sweeper")).WithAttempts(lim)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	gate := httpserver.NewGate(codec, userRepo, cfg.PublicPaths, logger.Named("gate"))
	handlers := httpserver.NewHandlers(authSvc, subSvc, userSvc, db, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.NewRouter(handlers, gate, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS()))
		if cfg.TLS() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
			<-sweepDone
			os.Exit(1)
		}
	}

	<-sweepDone
	logger.Info("shutdown complete")
}
