// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/slug"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// # Orchestrator

// Service is the authentication façade coordinating the credential, OTP, MFA,
// lockout, session, and token engines for the register/login/logout flows.
//
// # Review Process
//
// This service is critical for security. Any changes to the login state
// machine or registration logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	tenantRepository  TenantRepository
	refreshRepository RefreshTokenRepository
	otpService        *OtpService
	mfaService        *MfaService
	attemptGuard      *AttemptGuard
	sessionService    *SessionService
	tokenIssuer       *TokenIssuer
	hasher            *sec.Hasher
	logger            *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	tenantRepo TenantRepository,
	refreshRepo RefreshTokenRepository,
	otpService *OtpService,
	mfaService *MfaService,
	attemptGuard *AttemptGuard,
	sessionService *SessionService,
	tokenIssuer *TokenIssuer,
	hasher *sec.Hasher,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		tenantRepository:  tenantRepo,
		refreshRepository: refreshRepo,
		otpService:        otpService,
		mfaService:        mfaService,
		attemptGuard:      attemptGuard,
		sessionService:    sessionService,
		tokenIssuer:       tokenIssuer,
		hasher:            hasher,
		logger:            logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	TenantID  string       // Optional: join an existing tenant (invite flows).
	Role      sec.UserRole // Optional: defaults by registration path.
}

// RegisterResult describes a completed registration.
type RegisterResult struct {
	User                      *User   `json:"user"`
	Tenant                    *Tenant `json:"tenant"`
	RequiresEmailVerification bool    `json:"requiresEmailVerification"`
	Message                   string  `json:"message"`
}

/*
Register enrolls a new account, resolving or creating its tenant.

Tenant resolution by email domain, with uniquification for public mail
providers so strangers on gmail.com never share an organization. The first
registrant of a brand-new tenant becomes its ADMIN in PENDING status and must
verify email via OTP; joining an existing tenant activates immediately — a
deliberate asymmetry, since the tenant's admin vouches for invited members.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *RegisterResult: Created user and tenant
  - error: Conflict on duplicate email in the tenant, validation failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*RegisterResult, error) {

	if violations := ValidatePasswordStrength(input.Password); len(violations) > 0 {
		return nil, passwordPolicyError(FieldPassword, violations)
	}

	// Resolve the tenant: explicit ID wins, otherwise the email domain decides.
	var tenant *Tenant
	var createdTenant bool
	var err error
	if input.TenantID != "" {
		tenant, err = service.tenantRepository.FindByID(context, input.TenantID)
		if err != nil {
			return nil, apperr.NotFound("Tenant")
		}
	} else {
		tenant, createdTenant, err = resolveOrCreateTenant(context, service.tenantRepository, input.Email, input.FirstName)
		if err != nil {
			return nil, err
		}
	}

	// Email uniqueness is scoped to the resolved tenant.
	if _, err := service.userRepository.FindByEmail(context, input.Email, tenant.ID); err == nil {
		return nil, apperr.Conflict("Email is already registered in this organization")
	}

	passwordHash, err := service.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if !role.IsValid() {
		role = sec.RoleRecruiter
	}
	status := StatusActive
	if createdTenant {
		// Founding member: administers the tenant, but must prove the email.
		role = sec.RoleAdmin
		status = StatusPending
	}

	user := &User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		Status:       status,
	}
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	result := &RegisterResult{
		User:    user,
		Tenant:  tenant,
		Message: "Registration successful",
	}

	if createdTenant {
		result.RequiresEmailVerification = true
		result.Message = "Registration successful. Please verify your email address"

		// Side effect only: a failed OTP dispatch must not undo the signup.
		if _, err := service.otpService.Request(context, user.Email, tenant.ID, OtpEmailVerify); err != nil {
			service.logger.ErrorContext(context, "verification otp issue failed",
				"user_id", user.ID, "error", err)
		}
	}

	service.logger.InfoContext(context, "user registered",
		"user_id", user.ID, "tenant_id", tenant.ID, "new_tenant", createdTenant)
	return result, nil
}

// # Login Flow

// LoginInput defines one password authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	TenantID  string // Optional: empty falls back to a cross-tenant lookup.
	UserAgent string
	IPAddress string
}

// LoginResult is the discriminated outcome of a login call. All three shapes
// ride on HTTP 200; callers discriminate by Locked and RequiresMfa.
type LoginResult struct {
	// Locked shape: the account is in lockout and credentials were never checked.
	Locked           bool `json:"locked,omitempty"`
	RemainingMinutes int  `json:"remainingMinutes,omitempty"`

	// MFA-challenge shape: credentials passed, second factor pending.
	RequiresMfa bool   `json:"requiresMfa,omitempty"`
	MfaToken    string `json:"mfaToken,omitempty"`

	// Full session shape.
	User    *User       `json:"user,omitempty"`
	Tokens  *AuthTokens `json:"tokens,omitempty"`
	Session *NewSession `json:"session,omitempty"`

	Message string `json:"message"`
}

/*
Login runs the password authentication state machine:

	credentials-submitted -> locked-out | invalid | password-expired |
	                         inactive-status | mfa-required | session-established

The lockout check runs first, before any credential work: locked accounts
short-circuit with a countdown payload and the password is never compared.
Every attempt is recorded, success or failure, even when the call errors —
attempt logging is never skipped because of a credential failure.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Locked, MFA-challenge, or full session shape
  - error: Unauthorized (generic invalid credentials), Forbidden (status gates)
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {

	lockout, err := service.attemptGuard.IsAccountLocked(context, input.Email, input.TenantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if lockout.Locked {
		return &LoginResult{
			Locked:           true,
			RemainingMinutes: lockout.RemainingMinutes,
			Message:          fmt.Sprintf("Account temporarily locked. Try again in %d minutes", lockout.RemainingMinutes),
		}, nil
	}

	result, err := service.authenticate(context, input)

	// Try/record/rethrow: the audit row lands regardless of the verdict. The
	// row is keyed on the request's tenant — the same key the lockout check
	// above used — so the ceiling holds even when the client omits the tenant.
	service.attemptGuard.RecordAttempt(context, input.Email, input.TenantID,
		input.IPAddress, input.UserAgent, err == nil, failureReason(err))

	if err != nil {
		return nil, err
	}
	return result, nil
}

// authenticate performs the credential and status checks and builds the
// MFA-challenge or full-session result. The caller records the attempt.
func (service *Service) authenticate(context context.Context, input LoginInput) (*LoginResult, error) {

	user, err := service.findUser(context, input.Email, input.TenantID)
	if err != nil {
		// Generic message: user-not-found and wrong-password are
		// indistinguishable to prevent account enumeration.
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if user.PasswordHash == "" {
		// Passwordless (OTP-only) account.
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if user.TempPasswordExpiresAt != nil && time.Now().After(*user.TempPasswordExpiresAt) {
		// The caller proved knowledge of the temp password, so remediation
		// detail outweighs secrecy here.
		return nil, apperr.Unauthorized("Temporary password has expired. Please request a password reset")
	}

	switch user.Status {
	case StatusActive:
		// Proceed.
	case StatusInactive:
		return nil, apperr.Forbidden("Account is inactive. Contact your administrator")
	case StatusSuspended:
		return nil, apperr.Forbidden("Account is suspended. Contact your administrator")
	default:
		return nil, apperr.Unauthorized("Please verify your email address before logging in")
	}

	if service.mfaService.IsMfaRequired(user) {
		// Transport-only challenge token: no session or refresh token exists
		// until the second factor is proven.
		mfaToken, err := service.tokenIssuer.GenerateChallengeToken(context, user)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			RequiresMfa: true,
			MfaToken:    mfaToken,
			Message:     "Multi-factor verification required",
		}, nil
	}

	return service.establishSession(context, user, input.UserAgent, input.IPAddress)
}

/*
VerifyMfaLogin completes a login that returned an MFA challenge.

The challenge token identifies the user via a full signature verification —
token internals are never hand-parsed. Only after the TOTP or backup code is
accepted are the real session and token pair created.

Parameters:
  - context: context.Context
  - mfaToken: string
  - code: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *LoginResult: Full session shape
  - error: Unauthorized on challenge-token or code failure
*/
func (service *Service) VerifyMfaLogin(context context.Context, mfaToken, code, userAgent, ipAddress string) (*LoginResult, error) {

	claims, err := service.tokenIssuer.VerifyChallengeToken(mfaToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired MFA token")
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired MFA token")
	}

	accepted, err := service.mfaService.Verify(context, user.ID, code)
	if err != nil {
		return nil, err
	}
	if !accepted {
		service.attemptGuard.RecordAttempt(context, user.Email, user.TenantID,
			ipAddress, userAgent, false, "mfa_code_invalid")
		return nil, apperr.Unauthorized("Invalid verification code")
	}

	return service.establishSession(context, user, userAgent, ipAddress)
}

// establishSession mints the token pair, creates the device session, and
// stamps last-login.
func (service *Service) establishSession(context context.Context, user *User, userAgent, ipAddress string) (*LoginResult, error) {

	tokens, err := service.tokenIssuer.GenerateTokens(context, user)
	if err != nil {
		return nil, err
	}

	session, err := service.sessionService.CreateSession(context, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	if err := service.userRepository.UpdateLastLogin(context, user.ID, time.Now()); err != nil {
		service.logger.WarnContext(context, "last login update failed", "user_id", user.ID, "error", err)
	}

	return &LoginResult{
		User:    user,
		Tokens:  tokens,
		Session: session,
		Message: "Login successful",
	}, nil
}

// # Token & Sign-Out Flows

/*
Refresh rotates a refresh token into a fresh access/refresh pair.

Parameters:
  - context: context.Context
  - rawRefresh: string

Returns:
  - *AuthTokens: The fresh pair
  - error: Unauthorized on missing, expired, or already-consumed tokens
*/
func (service *Service) Refresh(context context.Context, rawRefresh string) (*AuthTokens, error) {
	return service.tokenIssuer.RefreshTokens(context, rawRefresh)
}

/*
Logout performs a full, unconditional global sign-out: every refresh token is
deleted and every device session terminated, not just the caller's.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (service *Service) Logout(context context.Context, userID string) error {

	if err := service.refreshRepository.DeleteAllForUser(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_tokens_failed: %w", err)
	}

	if _, err := service.sessionService.TerminateAllSessions(context, userID, ""); err != nil {
		return fmt.Errorf("auth_service_logout_sessions_failed: %w", err)
	}

	service.logger.InfoContext(context, "user logged out", "user_id", userID)
	return nil
}

// # Helpers

func (service *Service) findUser(context context.Context, email, tenantID string) (*User, error) {
	if tenantID != "" {
		return service.userRepository.FindByEmail(context, email, tenantID)
	}
	// Documented weak point: cross-tenant email collision picks the newest
	// account. Prefer explicit tenant resolution wherever the client has it.
	return service.userRepository.FindFirstByEmail(context, email)
}

func (service *Service) hashPassword(password string) (string, error) {
	hash, err := service.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}
	return hash, nil
}

// failureReason maps an authentication error to a stable audit label.
func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if appError := apperr.As(err); appError != nil {
		switch appError.HTTPStatus {
		case 401:
			return "invalid_credentials"
		case 403:
			return "account_not_active"
		}
	}
	return "error"
}

/*
resolveOrCreateTenant maps an email address to its tenant, creating one when
the domain is unclaimed.

Public mail providers are uniquified: every such signup gets its own synthetic
domain, so two strangers on the same consumer provider never share a tenant.

Parameters:
  - context: context.Context
  - tenants: TenantRepository
  - emailAddress: string
  - ownerFirstName: string (names a newly created tenant)

Returns:
  - *Tenant: Resolved or created tenant
  - bool: True when a tenant was created
  - error: Persistence failures
*/
func resolveOrCreateTenant(context context.Context, tenants TenantRepository, emailAddress, ownerFirstName string) (*Tenant, bool, error) {

	domain := emailDomain(emailAddress)
	if domain == "" {
		return nil, false, apperr.BadRequest("Invalid email address")
	}

	if publicEmailDomains[domain] {
		// Synthetic domain: slugged local part plus a random suffix.
		localPart := strings.ToLower(strings.SplitN(emailAddress, "@", 2)[0])
		domain = fmt.Sprintf("%s-%s", slug.From(localPart), uuid.New()[:8])
	} else if tenant, err := tenants.FindByDomain(context, domain); err == nil {
		return tenant, false, nil
	}

	name := "Organization"
	if ownerFirstName != "" {
		name = fmt.Sprintf("%s's Organization", ownerFirstName)
	}

	tenant := &Tenant{
		ID:     uuid.New(),
		Name:   name,
		Domain: domain,
		Status: TenantActive,
	}
	if err := tenants.Create(context, tenant); err != nil {
		return nil, false, fmt.Errorf("tenant_create_failed: %w", err)
	}

	return tenant, true, nil
}

// emailDomain extracts the lowercased domain part of an address.
func emailDomain(emailAddress string) string {
	at := strings.LastIndex(emailAddress, "@")
	if at < 0 || at == len(emailAddress)-1 {
		return ""
	}
	return strings.ToLower(emailAddress[at+1:])
}

// namesFromEmail derives a presentable first/last name from the local part of
// an address, for auto-provisioned accounts the user can correct later.
func namesFromEmail(emailAddress string) (string, string) {

	localPart := strings.SplitN(emailAddress, "@", 2)[0]
	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return localPart, ""
	}

	firstName := titleCase(parts[0])
	lastName := ""
	if len(parts) > 1 {
		lastName = titleCase(parts[len(parts)-1])
	}
	return firstName, lastName
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
