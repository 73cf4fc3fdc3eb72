// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/constants"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// # Types

// OtpRequestResult is the response to a code issuance request.
type OtpRequestResult struct {
	Message string `json:"message"`
	// Code is only populated when the insecure expose-codes switch is on,
	// for test automation. Production deployments never set it.
	Code string `json:"code,omitempty"`
}

// OtpVerifyInput carries one verification attempt.
type OtpVerifyInput struct {
	Email     string
	TenantID  string
	Code      string
	Type      OtpType
	UserAgent string
	IPAddress string
}

// OtpVerifyResult is the discriminated outcome of a successful verification:
// LOGIN codes yield tokens and a session, every other type just confirms.
type OtpVerifyResult struct {
	Verified bool         `json:"verified"`
	Message  string       `json:"message"`
	User     *User        `json:"user,omitempty"`
	Tokens   *AuthTokens  `json:"tokens,omitempty"`
	Session  *NewSession  `json:"session,omitempty"`
}

// # OTP Engine

// OtpService issues and verifies single-use numeric codes for login, email
// verification, and password-reset flows.
//
// Per (email, tenant, type) the lifecycle is: none -> issued -> consumed,
// expired, or attempts-exhausted. Issuing a new code invalidates all prior
// unused ones of that type.
type OtpService struct {
	otpRepository    OtpRepository
	userRepository   UserRepository
	tenantRepository TenantRepository
	tokenIssuer      *TokenIssuer
	sessionService   *SessionService
	throttle         ThrottleRepository
	mailer           Mailer
	exposeCodes      bool
	logger           *slog.Logger
}

// NewOtpService constructs a new [OtpService] with necessary dependencies.
func NewOtpService(
	otpRepo OtpRepository,
	userRepo UserRepository,
	tenantRepo TenantRepository,
	tokenIssuer *TokenIssuer,
	sessionService *SessionService,
	throttle ThrottleRepository,
	mailer Mailer,
	exposeCodes bool,
	logger *slog.Logger,
) *OtpService {
	return &OtpService{
		otpRepository:    otpRepo,
		userRepository:   userRepo,
		tenantRepository: tenantRepo,
		tokenIssuer:      tokenIssuer,
		sessionService:   sessionService,
		throttle:         throttle,
		mailer:           mailer,
		exposeCodes:      exposeCodes,
		logger:           logger,
	}
}

// # Issuance

/*
Request issues a fresh code and dispatches it by email.

Tenant resolution: when no tenant is supplied, the newest account matching the
email provides it. An unknown email is only acceptable for LOGIN codes, which
auto-provision an account on successful verification; every other flow needs
an existing user.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string (empty triggers resolution by email)
  - otpType: OtpType

Returns:
  - *OtpRequestResult: Confirmation message, plus the code in insecure mode
  - error: NotFound, RateLimited, or storage failures
*/
func (service *OtpService) Request(context context.Context, email, tenantID string, otpType OtpType) (*OtpRequestResult, error) {

	if !otpType.IsValid() {
		return nil, apperr.BadRequest("Unknown verification code type")
	}

	// Resolve the tenant from the account when not supplied.
	if tenantID == "" {
		user, err := service.userRepository.FindFirstByEmail(context, email)
		switch {
		case err == nil:
			tenantID = user.TenantID
		case otpType != OtpLogin:
			// Only LOGIN may target an address with no account yet.
			return nil, apperr.NotFound("User")
		}
	}

	count, err := service.throttle.Increment(context,
		constants.RedisPrefixOtpThrottle+email+":"+tenantID+":"+string(otpType), OtpRequestWindow)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if count > OtpRequestLimit {
		return nil, apperr.RateLimited(int(OtpRequestWindow.Seconds()))
	}

	// At most one unused code per (email, tenant, type).
	if err := service.otpRepository.InvalidatePrior(context, email, tenantID, otpType); err != nil {
		return nil, fmt.Errorf("otp_invalidate_prior_failed: %w", err)
	}

	code, err := sec.GenerateNumericCode(OtpDigits)
	if err != nil {
		return nil, fmt.Errorf("otp_generate_failed: %w", err)
	}

	otp := &OtpCode{
		ID:        uuid.New(),
		Email:     email,
		TenantID:  tenantID,
		CodeHash:  sec.HashToken(code),
		Type:      otpType,
		ExpiresAt: time.Now().Add(OtpTTL),
	}
	if err := service.otpRepository.Create(context, otp); err != nil {
		return nil, fmt.Errorf("otp_create_failed: %w", err)
	}

	// Fire-and-forget: delivery failure is logged, never surfaced.
	go func() {
		if err := service.mailer.SendOtpEmail(detachedContext(context), email, code, string(otpType)); err != nil {
			service.logger.Error("otp email failed", "email", email, "type", otpType, "error", err)
		}
	}()

	result := &OtpRequestResult{Message: "Verification code sent"}
	if service.exposeCodes {
		result.Code = code
	}
	return result, nil
}

// # Verification

/*
Verify redeems a code and performs the type-specific follow-up.

State checks run in order: existence, expiry, attempt ceiling, then the code
comparison. Reaching the attempt ceiling consumes the record outright so it
can never be brute-forced further. On success the code is consumed and:

  - LOGIN auto-provisions a CANDIDATE account (creating a tenant when needed)
    and returns freshly minted tokens plus a device session.
  - EMAIL_VERIFY flips the account to ACTIVE.
  - Every other type just reports verified.

Parameters:
  - context: context.Context
  - input: OtpVerifyInput

Returns:
  - *OtpVerifyResult: Verified flag, with tokens and session for LOGIN
  - error: NotFound, BadRequest (expired, exhausted), Unauthorized (mismatch)
*/
func (service *OtpService) Verify(context context.Context, input OtpVerifyInput) (*OtpVerifyResult, error) {

	if !input.Type.IsValid() {
		return nil, apperr.BadRequest("Unknown verification code type")
	}

	otp, err := service.locateCode(context, input)
	if err != nil {
		return nil, err
	}

	if time.Now().After(otp.ExpiresAt) {
		return nil, apperr.BadRequest("Verification code has expired")
	}

	if otp.Attempts >= OtpMaxAttempts {
		// Burn the record so it cannot be retried.
		_ = service.otpRepository.MarkUsed(context, otp.ID)
		return nil, apperr.BadRequest("Too many failed attempts. Request a new code")
	}

	if otp.CodeHash != sec.HashToken(input.Code) {
		attempts, err := service.otpRepository.IncrementAttempts(context, otp.ID)
		if err != nil {
			return nil, fmt.Errorf("otp_increment_attempts_failed: %w", err)
		}
		if attempts >= OtpMaxAttempts {
			_ = service.otpRepository.MarkUsed(context, otp.ID)
		}
		return nil, apperr.Unauthorized("Invalid verification code")
	}

	if err := service.otpRepository.MarkUsed(context, otp.ID); err != nil {
		return nil, fmt.Errorf("otp_mark_used_failed: %w", err)
	}

	switch otp.Type {
	case OtpLogin:
		return service.completeLogin(context, otp, input)
	case OtpEmailVerify:
		return service.completeEmailVerify(context, otp)
	default:
		return &OtpVerifyResult{Verified: true, Message: "Code verified"}, nil
	}
}

// locateCode finds the newest unused record for the attempt. With a known
// tenant the lookup ignores the submitted value, so mismatches can increment
// the attempt counter. Without one it falls back to matching by code value —
// an accepted ambiguity since the lookup also filters by email.
func (service *OtpService) locateCode(context context.Context, input OtpVerifyInput) (*OtpCode, error) {

	if input.TenantID != "" {
		otp, err := service.otpRepository.FindNewestUnused(context, input.Email, input.TenantID, input.Type)
		if err != nil {
			return nil, service.notFound(err)
		}
		return otp, nil
	}

	// Tenantless: prefer codes issued before any tenant was known.
	otp, err := service.otpRepository.FindNewestUnused(context, input.Email, "", input.Type)
	if err == nil {
		return otp, nil
	}

	otp, err = service.otpRepository.FindUnusedByCode(context, input.Email, sec.HashToken(input.Code), input.Type)
	if err != nil {
		return nil, service.notFound(err)
	}
	return otp, nil
}

func (service *OtpService) notFound(err error) error {
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return apperr.NotFound("Valid verification code")
	}
	return fmt.Errorf("otp_lookup_failed: %w", err)
}

// completeLogin finishes a LOGIN verification: resolves or auto-provisions the
// account, then mints tokens and a device session.
func (service *OtpService) completeLogin(context context.Context, otp *OtpCode, input OtpVerifyInput) (*OtpVerifyResult, error) {

	user, err := service.resolveUser(context, otp)
	if err != nil {
		user, err = service.provisionUser(context, otp.Email)
		if err != nil {
			return nil, err
		}
	}

	if user.Status == StatusSuspended || user.Status == StatusInactive {
		return nil, apperr.Forbidden("Account is not active")
	}

	tokens, err := service.tokenIssuer.GenerateTokens(context, user)
	if err != nil {
		return nil, err
	}

	session, err := service.sessionService.CreateSession(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	if err := service.userRepository.UpdateLastLogin(context, user.ID, time.Now()); err != nil {
		service.logger.WarnContext(context, "last login update failed", "user_id", user.ID, "error", err)
	}

	return &OtpVerifyResult{
		Verified: true,
		Message:  "Login successful",
		User:     user,
		Tokens:   tokens,
		Session:  session,
	}, nil
}

// completeEmailVerify flips the account to ACTIVE if it is not already.
func (service *OtpService) completeEmailVerify(context context.Context, otp *OtpCode) (*OtpVerifyResult, error) {

	user, err := service.resolveUser(context, otp)
	if err != nil {
		return nil, apperr.NotFound("User")
	}

	if user.Status != StatusActive {
		user.Status = StatusActive
		if err := service.userRepository.Update(context, user); err != nil {
			return nil, fmt.Errorf("otp_activate_user_failed: %w", err)
		}
	}

	return &OtpVerifyResult{Verified: true, Message: "Email verified", User: user}, nil
}

func (service *OtpService) resolveUser(context context.Context, otp *OtpCode) (*User, error) {
	if otp.TenantID != "" {
		return service.userRepository.FindByEmail(context, otp.Email, otp.TenantID)
	}
	return service.userRepository.FindFirstByEmail(context, otp.Email)
}

// provisionUser self-service-signs-up a passwordless CANDIDATE for a LOGIN
// code, creating a tenant from the email domain when none exists.
func (service *OtpService) provisionUser(context context.Context, emailAddress string) (*User, error) {

	firstName, lastName := namesFromEmail(emailAddress)

	tenant, _, err := resolveOrCreateTenant(context, service.tenantRepository, emailAddress, firstName)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:        uuid.New(),
		TenantID:  tenant.ID,
		Email:     emailAddress,
		FirstName: firstName,
		LastName:  lastName,
		Role:      sec.RoleCandidate,
		Status:    StatusActive, // The OTP itself proved email ownership.
	}
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("otp_provision_user_failed: %w", err)
	}

	service.logger.InfoContext(context, "user auto-provisioned via otp login",
		"user_id", user.ID, "tenant_id", tenant.ID)
	return user, nil
}
