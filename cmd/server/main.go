package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"blog-platform/server/internal/audit"
	audithandler "blog-platform/server/internal/audit/handler"
	auditrepo "blog-platform/server/internal/audit/repository"
	"blog-platform/server/internal/config"
	"blog-platform/server/internal/db"
	healthhandler "blog-platform/server/internal/health/handler"
	identityhandler "blog-platform/server/internal/identity/handler"
	identityrepo "blog-platform/server/internal/identity/repository"
	identityservice "blog-platform/server/internal/identity/service"
	"blog-platform/server/internal/security"
	"blog-platform/server/internal/server"
	"blog-platform/server/internal/server/middleware"
	"blog-platform/server/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx := context.Background()
	providers, err := telemetry.NewProviders(ctx, cfg.OTLPEndpoint, "auth-server", false)
	if err != nil {
		logger.WithError(err).Fatal("telemetry")
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db")
	}
	defer conn.Close()

	repo := identityrepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.TokenTTL())
	authSvc := identityservice.NewAuthService(repo, hasher, tokens)

	auditRepo := auditrepo.NewPostgresRepository(conn)
	recorder := audit.NewLogger(auditRepo, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateWindow())
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	rateLimiter.StartCleanup(cleanupCtx)

	router := server.NewRouter(server.Deps{
		Auth:      identityhandler.NewAuthHandler(authSvc, recorder, logger),
		Audit:     audithandler.NewHandler(auditRepo, logger),
		Health:    healthhandler.NewHandler(conn, cfg.Env),
		Gate:      middleware.NewAuth(tokens, repo, logger),
		RateLimit: rateLimiter,
		Log:       logger,
	})

	srv := server.New(cfg.HTTPAddr, router, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.WithError(err).Fatal("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("telemetry shutdown")
	}
	logger.Info("server stopped")
}
