// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"log/slog"
	"time"
)

// Janitor is the periodic cleanup job for expired authentication state. It is
// independent of request traffic: expired rows are harmless until swept
// because every read path checks expiry itself.
type Janitor struct {
	sessionRepository SessionRepository
	refreshRepository RefreshTokenRepository
	otpRepository     OtpRepository
	attemptRepository AttemptRepository
	logger            *slog.Logger
}

// NewJanitor constructs a new [Janitor] with necessary dependencies.
func NewJanitor(
	sessionRepo SessionRepository,
	refreshRepo RefreshTokenRepository,
	otpRepo OtpRepository,
	attemptRepo AttemptRepository,
	logger *slog.Logger,
) *Janitor {
	return &Janitor{
		sessionRepository: sessionRepo,
		refreshRepository: refreshRepo,
		otpRepository:     otpRepo,
		attemptRepository: attemptRepo,
		logger:            logger,
	}
}

/*
Run sweeps on a fixed interval until the context is cancelled. One sweep runs
immediately on startup so a restarted server does not wait a full interval
with a backlog.

Parameters:
  - context: context.Context (cancellation stops the loop)
*/
func (janitor *Janitor) Run(context context.Context) {

	janitor.sweep(context)

	ticker := time.NewTicker(JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-context.Done():
			janitor.logger.Info("auth janitor stopped")
			return
		case <-ticker.C:
			janitor.sweep(context)
		}
	}
}

// sweep runs every cleanup once. Failures are logged and the remaining
// cleanups still run; the next tick retries.
func (janitor *Janitor) sweep(context context.Context) {

	sessions, err := janitor.sessionRepository.DeleteExpired(context)
	if err != nil {
		janitor.logger.ErrorContext(context, "session cleanup failed", "error", err)
	}

	tokens, err := janitor.refreshRepository.DeleteExpired(context)
	if err != nil {
		janitor.logger.ErrorContext(context, "refresh token cleanup failed", "error", err)
	}

	codes, err := janitor.otpRepository.DeleteExpired(context)
	if err != nil {
		janitor.logger.ErrorContext(context, "otp cleanup failed", "error", err)
	}

	attempts, err := janitor.attemptRepository.DeleteOlderThan(context, time.Now().Add(-AttemptRetention))
	if err != nil {
		janitor.logger.ErrorContext(context, "login attempt pruning failed", "error", err)
	}

	janitor.logger.InfoContext(context, "auth janitor sweep completed",
		"sessions", sessions, "refresh_tokens", tokens, "otp_codes", codes, "login_attempts", attempts)
}
