// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/constants"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// # Strength Validation

/*
ValidatePasswordStrength checks a candidate password against the full policy
and returns EVERY violated rule, never just the first. Callers render the
complete checklist so the user fixes the password in one pass.

Rules: minimum length, lowercase, uppercase, digit, and one symbol from the
allowed set.

Parameters:
  - password: string

Returns:
  - []string: Human-readable violations; empty when the password is acceptable
*/
func ValidatePasswordStrength(password string) []string {

	var violations []string

	if len(password) < PasswordMinLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", PasswordMinLength))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, char := range password {
		switch {
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, char):
			hasSymbol = true
		}
	}

	if !hasLower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain at least one number")
	}
	if !hasSymbol {
		violations = append(violations, fmt.Sprintf("Password must contain at least one special character (%s)", PasswordSymbols))
	}

	return violations
}

// passwordPolicyError converts a violation list into one client-facing
// validation error with per-field details.
func passwordPolicyError(field string, violations []string) *apperr.AppError {
	details := make([]apperr.FieldError, 0, len(violations))
	for _, violation := range violations {
		details = append(details, apperr.FieldError{Field: field, Message: violation})
	}
	return apperr.ValidationError("Password does not meet the security requirements", details...)
}

// # Password Service

// PasswordService implements the credential rotation use cases: forgot, reset,
// and change password, plus the reuse check shared by both write paths.
type PasswordService struct {
	userRepository    UserRepository
	historyRepository PasswordHistoryRepository
	resetRepository   ResetTokenRepository
	passwordWriter    PasswordWriter
	throttle          ThrottleRepository
	mailer            Mailer
	hasher            *sec.Hasher
	webURL            string
	logger            *slog.Logger
}

// NewPasswordService constructs a new [PasswordService] with necessary dependencies.
func NewPasswordService(
	userRepo UserRepository,
	historyRepo PasswordHistoryRepository,
	resetRepo ResetTokenRepository,
	writer PasswordWriter,
	throttle ThrottleRepository,
	mailer Mailer,
	hasher *sec.Hasher,
	webURL string,
	logger *slog.Logger,
) *PasswordService {
	return &PasswordService{
		userRepository:    userRepo,
		historyRepository: historyRepo,
		resetRepository:   resetRepo,
		passwordWriter:    writer,
		throttle:          throttle,
		mailer:            mailer,
		hasher:            hasher,
		webURL:            webURL,
		logger:            logger,
	}
}

/*
IsReused reports whether the candidate matches the user's current password or
any of the last [PasswordHistoryLimit] retired ones. Short-circuits on the
first match to avoid unnecessary bcrypt comparisons.

Parameters:
  - context: context.Context
  - user: *User
  - candidate: string

Returns:
  - bool: True when the candidate is a recent password
  - error: History retrieval failures
*/
func (service *PasswordService) IsReused(context context.Context, user *User, candidate string) (bool, error) {

	// Current password first: the cheapest and most common reuse case.
	if user.PasswordHash != "" && sec.CheckPasswordHash(candidate, user.PasswordHash) {
		return true, nil
	}

	entries, err := service.historyRepository.ListRecent(context, user.ID, PasswordHistoryLimit)
	if err != nil {
		return false, fmt.Errorf("password_history_lookup_failed: %w", err)
	}

	for _, entry := range entries {
		if sec.CheckPasswordHash(candidate, entry.PasswordHash) {
			return true, nil
		}
	}

	return false, nil
}

// # Forgot Password Flow

/*
ForgotPassword issues a single-use reset token and emails a reset link.

The response is identical whether or not the account exists, so the endpoint
cannot be used to enumerate registered addresses. Issuing a new token
invalidates any prior unused one.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string (empty falls back to a cross-tenant lookup)

Returns:
  - error: RateLimited when the throttle trips; storage failures
*/
func (service *PasswordService) ForgotPassword(context context.Context, email, tenantID string) error {

	// Throttle by address regardless of account existence, so probing unknown
	// emails is rate-limited the same as real ones.
	count, err := service.throttle.Increment(context, constants.RedisPrefixResetThrottle+email, ResetRequestWindow)
	if err != nil {
		return apperr.Internal(err)
	}
	if count > ResetRequestLimit {
		return apperr.RateLimited(int(ResetRequestWindow.Seconds()))
	}

	user, err := service.findUser(context, email, tenantID)
	if err != nil {
		// Unknown account: succeed silently to prevent enumeration.
		service.logger.InfoContext(context, "password reset requested for unknown email", "email", email)
		return nil
	}

	// At most one redeemable token per user.
	if err := service.resetRepository.InvalidateActive(context, user.ID); err != nil {
		return fmt.Errorf("reset_token_invalidate_failed: %w", err)
	}

	rawToken, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("reset_token_generate_failed: %w", err)
	}

	token := &PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(rawToken),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}
	if err := service.resetRepository.Create(context, token); err != nil {
		return fmt.Errorf("reset_token_create_failed: %w", err)
	}

	// Fire-and-forget: delivery failure is logged, never surfaced.
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", service.webURL, rawToken)
	go func() {
		if err := service.mailer.SendPasswordResetEmail(detachedContext(context), user.Email, resetURL); err != nil {
			service.logger.Error("password reset email failed", "email", user.Email, "error", err)
		}
	}()

	return nil
}

// # Reset Password Flow

/*
ResetPassword redeems a reset token and rotates the credential.

Expired and already-used tokens produce distinct errors so the client can tell
the user to request a new link versus warning about a possibly intercepted one.
The rotation revokes every refresh token and device session.

Parameters:
  - context: context.Context
  - rawToken: string
  - newPassword: string

Returns:
  - error: Unauthorized (unknown token), BadRequest (expired, used, weak, reused)
*/
func (service *PasswordService) ResetPassword(context context.Context, rawToken, newPassword string) error {

	token, err := service.resetRepository.FindByTokenHash(context, sec.HashToken(rawToken))
	if err != nil {
		return apperr.Unauthorized("Invalid reset token")
	}

	if token.IsUsed {
		return apperr.BadRequest("Reset token has already been used")
	}
	if time.Now().After(token.ExpiresAt) {
		return apperr.BadRequest("Reset token has expired")
	}

	user, err := service.userRepository.FindByID(context, token.UserID)
	if err != nil {
		return apperr.Unauthorized("Invalid reset token")
	}

	if violations := ValidatePasswordStrength(newPassword); len(violations) > 0 {
		return passwordPolicyError(FieldNewPassword, violations)
	}

	reused, err := service.IsReused(context, user, newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if reused {
		return apperr.BadRequest(fmt.Sprintf("Password cannot match any of your last %d passwords", PasswordHistoryLimit))
	}

	newHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("password_hash_failed: %w", err)
	}

	// Full fan-out in one transaction: new hash, history append, token burn,
	// and global session/refresh revocation.
	change := PasswordChange{
		UserID:          user.ID,
		NewPasswordHash: newHash,
		HistoryEntryID:  uuid.New(),
		OldPasswordHash: user.PasswordHash,
		ResetTokenID:    token.ID,
		RevokeSessions:  true,
	}
	if err := service.passwordWriter.ApplyPasswordChange(context, change); err != nil {
		return fmt.Errorf("password_reset_apply_failed: %w", err)
	}

	service.logger.InfoContext(context, "password reset completed", "user_id", user.ID)
	return nil
}

// # Change Password Flow

/*
ChangePassword rotates the credential for an authenticated user.

Unlike reset, the current password must be proven and existing sessions stay
alive. A successful change also clears the temporary-password flag.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized (wrong current password), BadRequest (weak, reused)
*/
func (service *PasswordService) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return apperr.NotFound("User")
	}

	if user.PasswordHash == "" || !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	if violations := ValidatePasswordStrength(newPassword); len(violations) > 0 {
		return passwordPolicyError(FieldNewPassword, violations)
	}

	reused, err := service.IsReused(context, user, newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if reused {
		return apperr.BadRequest(fmt.Sprintf("Password cannot match any of your last %d passwords", PasswordHistoryLimit))
	}

	newHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("password_hash_failed: %w", err)
	}

	change := PasswordChange{
		UserID:          user.ID,
		NewPasswordHash: newHash,
		HistoryEntryID:  uuid.New(),
		OldPasswordHash: user.PasswordHash,
	}
	if err := service.passwordWriter.ApplyPasswordChange(context, change); err != nil {
		return fmt.Errorf("password_change_apply_failed: %w", err)
	}

	service.logger.InfoContext(context, "password changed", "user_id", user.ID)
	return nil
}

// findUser resolves a user by email, tenant-scoped when the tenant is known.
func (service *PasswordService) findUser(context context.Context, email, tenantID string) (*User, error) {
	if tenantID != "" {
		return service.userRepository.FindByEmail(context, email, tenantID)
	}
	return service.userRepository.FindFirstByEmail(context, email)
}
