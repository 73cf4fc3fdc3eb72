// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

// Command api is the entry point for the TalentX HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the auth engines and HTTP handlers.
//  7. Start the cleanup janitor and the HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talentxhq/talentx-api/internal/api"
	"github.com/talentxhq/talentx-api/internal/auth"
	"github.com/talentxhq/talentx-api/internal/platform/config"
	"github.com/talentxhq/talentx-api/internal/platform/constants"
	"github.com/talentxhq/talentx-api/internal/platform/email"
	"github.com/talentxhq/talentx-api/internal/platform/migration"
	pgstore "github.com/talentxhq/talentx-api/internal/platform/postgres"
	redisstore "github.com/talentxhq/talentx-api/internal/platform/redis"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[TalentX] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Primitives ────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath)
	must(log, err, "initialize jwt service")

	hasher := sec.NewHasher(cfg.BcryptCost)

	// ── 7. Outbound Email ─────────────────────────────────────────────────
	var mailer auth.Mailer
	if cfg.SMTPHost != "" {
		smtpPort, err := strconv.Atoi(cfg.SMTPPort)
		must(log, err, "parse smtp port")
		mailer = email.NewSMTPMailer(cfg.SMTPHost, smtpPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, log)
	} else {
		log.Warn("smtp host not configured, using log-only mailer")
		mailer = email.NewLogMailer(log)
	}

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	tenantRepository := auth.NewTenantRepository(pool)
	customRoleRepository := auth.NewCustomRoleRepository(pool)
	refreshRepository := auth.NewRefreshTokenRepository(pool)
	resetRepository := auth.NewResetTokenRepository(pool)
	historyRepository := auth.NewPasswordHistoryRepository(pool)
	passwordWriter := auth.NewPasswordWriter(pool)
	otpRepository := auth.NewOtpRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	attemptRepository := auth.NewAttemptRepository(pool)
	throttleRepository := auth.NewThrottleRepository(rdb)

	tokenIssuer := auth.NewTokenIssuer(userRepository, customRoleRepository, refreshRepository, jwtSvc, log)
	sessionService := auth.NewSessionService(sessionRepository, userRepository)
	attemptGuard := auth.NewAttemptGuard(attemptRepository, log)
	mfaService := auth.NewMfaService(userRepository, hasher, cfg.MfaGloballyEnforced, log)
	otpService := auth.NewOtpService(otpRepository, userRepository, tenantRepository,
		tokenIssuer, sessionService, throttleRepository, mailer, cfg.ExposeOtpCodes, log)
	passwordService := auth.NewPasswordService(userRepository, historyRepository, resetRepository,
		passwordWriter, throttleRepository, mailer, hasher, cfg.WebURL, log)
	authService := auth.NewService(userRepository, tenantRepository, refreshRepository,
		otpService, mfaService, attemptGuard, sessionService, tokenIssuer, hasher, log)

	authHandler := auth.NewHandler(authService, passwordService, otpService, mfaService, sessionService)

	// ── 10. Background Cleanup ────────────────────────────────────────────
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()

	janitor := auth.NewJanitor(sessionRepository, refreshRepository, otpRepository, attemptRepository, log)
	go janitor.Run(janitorCtx)

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, jwtSvc, handlers)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background work before draining requests.
	janitorCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
