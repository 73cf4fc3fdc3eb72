// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// # Types

// LockoutStatus is the verdict of the lockout check before a login attempt.
type LockoutStatus struct {
	Locked            bool `json:"locked"`
	RemainingMinutes  int  `json:"remainingMinutes,omitempty"`  // Minutes until the lock clears; set only when locked.
	AttemptsRemaining int  `json:"attemptsRemaining,omitempty"` // Failures left before lockout; set only when unlocked.
}

// # Login-Attempt Guard

// AttemptGuard tracks consecutive login failures per (email, tenant) and
// enforces a timed lockout. The audit log is append-only: success "resets" the
// counter by windowing on rows newer than the last success, never by deletion,
// so history stays intact for audit.
type AttemptGuard struct {
	attemptRepository AttemptRepository
	logger            *slog.Logger
}

// NewAttemptGuard constructs a new [AttemptGuard] with necessary dependencies.
func NewAttemptGuard(attemptRepo AttemptRepository, logger *slog.Logger) *AttemptGuard {
	return &AttemptGuard{
		attemptRepository: attemptRepo,
		logger:            logger,
	}
}

/*
RecordAttempt appends one immutable audit row. It never fails the caller:
attempt logging must not turn a credential failure into a server error, so
persistence problems are logged and swallowed.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string
  - ipAddress: string
  - userAgent: string
  - successful: bool
  - failureReason: string (empty on success)
*/
func (guard *AttemptGuard) RecordAttempt(context context.Context, email, tenantID, ipAddress, userAgent string, successful bool, failureReason string) {

	attempt := &LoginAttempt{
		ID:            uuid.New(),
		Email:         email,
		TenantID:      tenantID,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Successful:    successful,
		FailureReason: failureReason,
	}

	if err := guard.attemptRepository.Record(context, attempt); err != nil {
		guard.logger.ErrorContext(context, "login attempt record failed",
			"email", email, "tenant_id", tenantID, "error", err)
	}
}

/*
IsAccountLocked evaluates the lockout state for (email, tenantID).

Failures are counted inside a rolling window AND since the most recent
success, so a successful login resets the effective count. The lock holds for
a fixed duration from the most recent failure in the triggering window — new
attempts during lockout do not extend the lock.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string

Returns:
  - *LockoutStatus: Locked flag with remaining minutes, or attempts remaining
  - error: Database retrieval failures
*/
func (guard *AttemptGuard) IsAccountLocked(context context.Context, email, tenantID string) (*LockoutStatus, error) {

	now := time.Now()
	attempts, err := guard.attemptRepository.ListSince(context, email, tenantID, now.Add(-LockoutWindow))
	if err != nil {
		return nil, fmt.Errorf("attempt_guard_list_failed: %w", err)
	}

	// Rows arrive newest first. Count consecutive failures until the first
	// success inside the window.
	failures := 0
	var mostRecentFailure time.Time
	for _, attempt := range attempts {
		if attempt.Successful {
			break
		}
		failures++
		if attempt.CreatedAt.After(mostRecentFailure) {
			mostRecentFailure = attempt.CreatedAt
		}
	}

	if failures >= LockoutMaxFailures {
		lockedUntil := mostRecentFailure.Add(LockoutDuration)
		if now.Before(lockedUntil) {
			remaining := int(math.Ceil(lockedUntil.Sub(now).Minutes()))
			return &LockoutStatus{Locked: true, RemainingMinutes: remaining}, nil
		}
		// The lock expired inside the counting window: treat as clear.
		return &LockoutStatus{Locked: false, AttemptsRemaining: LockoutMaxFailures}, nil
	}

	return &LockoutStatus{Locked: false, AttemptsRemaining: LockoutMaxFailures - failures}, nil
}

/*
GetRecentAttempts returns the newest audit rows for a credential pair, for the
account-security UI.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string
  - limit: int

Returns:
  - []LoginAttempt: Newest first
  - error: Database retrieval failures
*/
func (guard *AttemptGuard) GetRecentAttempts(context context.Context, email, tenantID string, limit int) ([]LoginAttempt, error) {
	attempts, err := guard.attemptRepository.ListRecent(context, email, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("attempt_guard_recent_failed: %w", err)
	}
	return attempts, nil
}
